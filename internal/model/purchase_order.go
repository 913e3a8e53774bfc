package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// JSONB stores an opaque structured payload as a jsonb column
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("failed to scan JSONB: %v", value)
		}
	}
	return json.Unmarshal(bytes, j)
}

// PurchaseOrder represents a single order placed with a vendor
type PurchaseOrder struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	PONumber string `json:"po_number" gorm:"type:varchar(100);uniqueIndex;not null"`
	VendorID uint   `json:"vendor_id" gorm:"index;not null"`

	OrderDate    time.Time `json:"order_date" gorm:"not null"`
	DeliveryDate time.Time `json:"delivery_date" gorm:"not null"`
	Items        JSONB     `json:"items" gorm:"type:jsonb"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	Status       string    `json:"status" gorm:"type:varchar(50);index;not null"`

	// QualityRating is set once the buyer rates a completed order; nil until then
	QualityRating *float64 `json:"quality_rating"`

	IssueDate time.Time `json:"issue_date" gorm:"not null"`
	// AcknowledgmentDate is nil until the vendor acknowledges the order
	AcknowledgmentDate *time.Time `json:"acknowledgment_date"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

// Purchase order status values. Only "completed" carries metric semantics;
// any other value is passed through untouched.
const (
	POStatusPending   = "pending"
	POStatusCompleted = "completed"
	POStatusCancelled = "cancelled"
)
