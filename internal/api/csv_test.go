package api

import (
	"strings"
	"testing"

	"retail-ops/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSalesCSV(t *testing.T) {
	input := strings.Join([]string{
		"product_id,transaction_date,quantity",
		"p1,2026-06-01,5",
		"p1,2026-06-02,3.5",
		"p2,2026-06-01,0",
	}, "\n")

	records, err := parseSalesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "p1", records[0].ProductID)
	assert.Equal(t, 5.0, records[0].Quantity)
	assert.Equal(t, "2026-06-01", records[0].TransactionDate.Format("2006-01-02"))
	assert.Equal(t, 3.5, records[1].Quantity)
}

func TestParseSalesCSVIgnoresExtraColumnsAndHeaderCase(t *testing.T) {
	input := strings.Join([]string{
		"store,Product_ID,Transaction_Date,Quantity",
		"taipei,p1,2026-06-01,2",
	}, "\n")

	records, err := parseSalesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].ProductID)
}

func TestParseSalesCSVRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"missing column": "product_id,quantity\np1,5",
		"bad date":       "product_id,transaction_date,quantity\np1,June 1st,5",
		"negative qty":   "product_id,transaction_date,quantity\np1,2026-06-01,-2",
		"non-numeric":    "product_id,transaction_date,quantity\np1,2026-06-01,lots",
		"empty product":  "product_id,transaction_date,quantity\n,2026-06-01,5",
		"no rows":        "product_id,transaction_date,quantity",
		"empty file":     "",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			// A single malformed row rejects the whole upload: nothing is
			// handed to the repository, so no partial write can occur.
			_, err := parseSalesCSV(strings.NewReader(input))
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}
