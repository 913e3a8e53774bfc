package performance

import (
	"context"
	"database/sql"
	"time"

	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// ResponseSpan is the pair of timestamps an acknowledged purchase order
// contributes to the average response time.
type ResponseSpan struct {
	IssueDate          time.Time
	AcknowledgmentDate time.Time
}

// OrderStats is the aggregate query capability the metrics engine needs from
// the data store. Keeping the engine behind this interface makes it
// storage-agnostic and testable against an in-memory fake.
type OrderStats interface {
	// TotalOrders counts every purchase order of the vendor, regardless of status.
	TotalOrders(ctx context.Context, vendorID uint) (int64, error)
	// CompletedOrders counts purchase orders with status "completed".
	CompletedOrders(ctx context.Context, vendorID uint) (int64, error)
	// OnTimeCompletedOrders counts completed purchase orders delivered on or
	// after their order date.
	OnTimeCompletedOrders(ctx context.Context, vendorID uint) (int64, error)
	// AvgQualityRating averages quality_rating over completed purchase orders,
	// skipping rows where it is null. Returns nil when no rated completed
	// orders exist.
	AvgQualityRating(ctx context.Context, vendorID uint) (*float64, error)
	// FulfilledOrders counts purchase orders that are completed and carry a
	// non-null quality rating.
	FulfilledOrders(ctx context.Context, vendorID uint) (int64, error)
	// ResponseSpans returns the (issue, acknowledgment) timestamp pairs of
	// every acknowledged purchase order.
	ResponseSpans(ctx context.Context, vendorID uint) ([]ResponseSpan, error)
}

type gormOrderStats struct {
	db *gorm.DB
}

// NewOrderStats returns an OrderStats backed by the given gorm database
func NewOrderStats(db *gorm.DB) OrderStats {
	return &gormOrderStats{db: db}
}

func (s *gormOrderStats) TotalOrders(ctx context.Context, vendorID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("vendor_id = ?", vendorID).
		Count(&count).Error
	return count, err
}

func (s *gormOrderStats) CompletedOrders(ctx context.Context, vendorID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("vendor_id = ? AND status = ?", vendorID, model.POStatusCompleted).
		Count(&count).Error
	return count, err
}

func (s *gormOrderStats) OnTimeCompletedOrders(ctx context.Context, vendorID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("vendor_id = ? AND status = ?", vendorID, model.POStatusCompleted).
		Where("delivery_date >= order_date").
		Count(&count).Error
	return count, err
}

func (s *gormOrderStats) AvgQualityRating(ctx context.Context, vendorID uint) (*float64, error) {
	var avg sql.NullFloat64
	err := s.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("vendor_id = ? AND status = ? AND quality_rating IS NOT NULL", vendorID, model.POStatusCompleted).
		Select("AVG(quality_rating)").
		Scan(&avg).Error
	if err != nil || !avg.Valid {
		return nil, err
	}
	return &avg.Float64, nil
}

func (s *gormOrderStats) FulfilledOrders(ctx context.Context, vendorID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("vendor_id = ? AND status = ? AND quality_rating IS NOT NULL", vendorID, model.POStatusCompleted).
		Count(&count).Error
	return count, err
}

func (s *gormOrderStats) ResponseSpans(ctx context.Context, vendorID uint) ([]ResponseSpan, error) {
	var orders []model.PurchaseOrder
	err := s.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Select("issue_date", "acknowledgment_date").
		Where("vendor_id = ? AND acknowledgment_date IS NOT NULL", vendorID).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	spans := make([]ResponseSpan, 0, len(orders))
	for _, po := range orders {
		if po.AcknowledgmentDate == nil {
			continue
		}
		spans = append(spans, ResponseSpan{
			IssueDate:          po.IssueDate,
			AcknowledgmentDate: *po.AcknowledgmentDate,
		})
	}
	return spans, nil
}
