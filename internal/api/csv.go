package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"retail-ops/internal/apperrors"
	"retail-ops/internal/models"
)

// Required columns of a sales ingest file. Extra columns are ignored.
var salesColumns = []string{"product_id", "transaction_date", "quantity"}

// parseSalesCSV validates and parses a sales export. The whole file is
// validated before the caller writes anything, so a malformed row can never
// leave a partial batch behind.
func parseSalesCSV(r io.Reader) ([]models.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing CSV header: %w", apperrors.ErrValidation)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range salesColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q: %w", col, apperrors.ErrValidation)
		}
	}

	var records []models.SalesRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %v: %w", line, err, apperrors.ErrValidation)
		}

		productID := strings.TrimSpace(row[index["product_id"]])
		if productID == "" {
			return nil, fmt.Errorf("row %d: empty product_id: %w", line, apperrors.ErrValidation)
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[index["transaction_date"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad transaction_date: %w", line, apperrors.ErrValidation)
		}

		qty, err := strconv.ParseFloat(strings.TrimSpace(row[index["quantity"]]), 64)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("row %d: quantity must be a non-negative number: %w", line, apperrors.ErrValidation)
		}

		records = append(records, models.SalesRecord{
			ProductID:       productID,
			TransactionDate: date,
			Quantity:        qty,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no data rows in upload: %w", apperrors.ErrValidation)
	}
	return records, nil
}
