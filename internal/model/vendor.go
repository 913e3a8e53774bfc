package model

import (
	"time"

	"gorm.io/gorm"
)

// Vendor represents the vendor model stored in the database.
//
// The four *_rate / *_avg / *_time fields are a denormalized cache of the
// vendor's performance metrics. They are derived state: only the performance
// coordinator writes them, and every recalculation overwrites them wholesale.
type Vendor struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	Name           string `json:"name" gorm:"type:varchar(255);index;not null"`
	ContactDetails string `json:"contact_details" gorm:"type:text"`
	Address        string `json:"address" gorm:"type:text"`
	VendorCode     string `json:"vendor_code" gorm:"type:varchar(100);uniqueIndex;not null"`

	// Cached performance metrics, refreshed on every purchase order mutation
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate" gorm:"default:0"`
	QualityRatingAvg    float64 `json:"quality_rating_avg" gorm:"default:0"`
	AverageResponseTime float64 `json:"average_response_time" gorm:"default:0"`
	FulfillmentRate     float64 `json:"fulfillment_rate" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
