package model

import "time"

// HistoricalPerformance is an immutable snapshot of a vendor's four
// performance metrics taken at recalculation time. Rows are append-only;
// nothing in the service updates or deletes them.
type HistoricalPerformance struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	VendorID uint      `json:"vendor_id" gorm:"index;not null"`
	Date     time.Time `json:"date" gorm:"not null"`

	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}
