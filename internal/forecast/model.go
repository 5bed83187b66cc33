package forecast

import (
	"fmt"
	"math"
	"time"

	"retail-ops/internal/models"
)

// Prediction is one forecast point. Quantity is rounded to two decimal
// places; endpoints that need integers truncate at the edge, never here.
type Prediction struct {
	Date     string  `json:"date"`
	Quantity float64 `json:"predicted_quantity"`
}

// Model is a fitted per-product forecast artifact: a least-squares daily
// trend with additive day-of-week effects. It is persisted as an opaque gob
// blob; nothing outside this package inspects the coefficients.
type Model struct {
	ProductID string
	TrainedAt time.Time

	FirstDate time.Time
	LastDate  time.Time
	Points    int

	Intercept float64
	Slope     float64
	Weekday   [7]float64
}

// Fitter fits a model from an ordered series. The default implementation
// lives below; the interface exists so the algorithm can be swapped without
// touching the orchestrator.
type Fitter interface {
	Fit(productID string, series []models.SalesPoint) (*Model, error)
}

// TrendFitter is the default least-squares trend + weekly seasonality fit.
type TrendFitter struct{}

func NewTrendFitter() *TrendFitter {
	return &TrendFitter{}
}

// Fit fits the model over the series. The series must be ordered ascending
// with one point per distinct date; the orchestrator enforces the minimum
// length before calling.
func (f *TrendFitter) Fit(productID string, series []models.SalesPoint) (*Model, error) {
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("series too short to fit: %d points", n)
	}

	first := series[0].Date

	// Least squares over (days since first date, quantity).
	var sumX, sumY, sumXY, sumXX float64
	xs := make([]float64, n)
	for i, p := range series {
		x := p.Date.Sub(first).Hours() / 24
		xs[i] = x
		sumX += x
		sumY += p.Quantity
		sumXY += x * p.Quantity
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	var slope float64
	if denom != 0 {
		slope = (fn*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / fn

	// Additive weekday effects: mean residual per day of week.
	var residSum [7]float64
	var residCount [7]int
	for i, p := range series {
		resid := p.Quantity - (intercept + slope*xs[i])
		wd := int(p.Date.Weekday())
		residSum[wd] += resid
		residCount[wd]++
	}

	var weekday [7]float64
	for i := range weekday {
		if residCount[i] > 0 {
			weekday[i] = residSum[i] / float64(residCount[i])
		}
	}

	return &Model{
		ProductID: productID,
		TrainedAt: time.Now().UTC(),
		FirstDate: first,
		LastDate:  series[n-1].Date,
		Points:    n,
		Intercept: intercept,
		Slope:     slope,
		Weekday:   weekday,
	}, nil
}

// Forecast produces exactly horizonDays predictions, chronologically
// ordered, starting the day after the last fitted date. Quantities are
// clamped at zero and rounded to two decimal places.
func (m *Model) Forecast(horizonDays int) ([]Prediction, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}

	preds := make([]Prediction, 0, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		date := m.LastDate.AddDate(0, 0, i)
		x := date.Sub(m.FirstDate).Hours() / 24

		qty := m.Intercept + m.Slope*x + m.Weekday[int(date.Weekday())]
		if qty < 0 {
			qty = 0
		}

		preds = append(preds, Prediction{
			Date:     date.Format("2006-01-02"),
			Quantity: math.Round(qty*100) / 100,
		})
	}
	return preds, nil
}
