package performance

import (
	"context"
	"fmt"
	"time"

	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// Coordinator recomputes a vendor's performance metrics and persists the
// result: the cached fields on the vendor row are overwritten and one
// historical performance snapshot is appended. Both writes happen inside a
// single transaction, so a failed recalculation leaves no partial state.
type Coordinator struct {
	db *gorm.DB
}

// NewCoordinator returns a coordinator writing through the given database
func NewCoordinator(db *gorm.DB) *Coordinator {
	return &Coordinator{db: db}
}

// Recalculate recomputes all four metrics for the vendor and persists them.
// Returns an error wrapping gorm.ErrRecordNotFound when the vendor does not
// exist; callers are expected to invoke it only with vendor ids that existed
// at the time of the triggering mutation.
func (c *Coordinator) Recalculate(ctx context.Context, vendorID uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vendor model.Vendor
		if err := tx.First(&vendor, vendorID).Error; err != nil {
			return fmt.Errorf("load vendor %d: %w", vendorID, err)
		}

		metrics, err := NewEngine(NewOrderStats(tx)).Snapshot(ctx, vendorID)
		if err != nil {
			return fmt.Errorf("compute metrics for vendor %d: %w", vendorID, err)
		}

		if err := tx.Model(&vendor).Updates(map[string]interface{}{
			"on_time_delivery_rate": metrics.OnTimeDeliveryRate,
			"quality_rating_avg":    metrics.QualityRatingAvg,
			"average_response_time": metrics.AverageResponseTime,
			"fulfillment_rate":      metrics.FulfillmentRate,
		}).Error; err != nil {
			return fmt.Errorf("update vendor %d metrics: %w", vendorID, err)
		}

		snapshot := model.HistoricalPerformance{
			VendorID:            vendorID,
			Date:                time.Now(),
			OnTimeDeliveryRate:  metrics.OnTimeDeliveryRate,
			QualityRatingAvg:    metrics.QualityRatingAvg,
			AverageResponseTime: metrics.AverageResponseTime,
			FulfillmentRate:     metrics.FulfillmentRate,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return fmt.Errorf("append performance snapshot for vendor %d: %w", vendorID, err)
		}

		return nil
	})
}
