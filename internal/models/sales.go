package models

import "time"

// SalesRecord is one observed sale quantity for a product on a date.
// The table is append-only per ingestion batch; a full reload truncates
// and reinserts. Multiple rows on the same date are additive observations.
type SalesRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID       string    `json:"product_id" gorm:"type:varchar(100);not null;index"`
	TransactionDate time.Time `json:"transaction_date" gorm:"type:date;not null"`
	Quantity        float64   `json:"quantity" gorm:"not null"`
}

func (SalesRecord) TableName() string {
	return "sales_data"
}

// SalesPoint is one aggregated (date, quantity) observation in a series,
// as consumed by the forecaster. Ordered ascending by Date.
type SalesPoint struct {
	Date     time.Time
	Quantity float64
}
