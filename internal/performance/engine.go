package performance

import (
	"context"
	"fmt"
)

// Metrics bundles the four vendor performance metrics
type Metrics struct {
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// Engine computes vendor performance metrics from the current purchase order
// set. All computations are read-only; every zero-denominator case resolves
// to 0 rather than dividing.
type Engine struct {
	stats OrderStats
}

// NewEngine returns an engine computing metrics from the given order stats
func NewEngine(stats OrderStats) *Engine {
	return &Engine{stats: stats}
}

// OnTimeDeliveryRate returns the fraction of completed purchase orders whose
// delivery date is on or after the order date. 0 when the vendor has no
// completed orders.
func (e *Engine) OnTimeDeliveryRate(ctx context.Context, vendorID uint) (float64, error) {
	completed, err := e.stats.CompletedOrders(ctx, vendorID)
	if err != nil {
		return 0, fmt.Errorf("count completed orders: %w", err)
	}
	if completed == 0 {
		return 0, nil
	}

	onTime, err := e.stats.OnTimeCompletedOrders(ctx, vendorID)
	if err != nil {
		return 0, fmt.Errorf("count on-time orders: %w", err)
	}
	return float64(onTime) / float64(completed), nil
}

// QualityRatingAvg returns the mean quality rating over completed purchase
// orders, ignoring unrated ones. 0 when no rated completed orders exist.
func (e *Engine) QualityRatingAvg(ctx context.Context, vendorID uint) (float64, error) {
	avg, err := e.stats.AvgQualityRating(ctx, vendorID)
	if err != nil {
		return 0, fmt.Errorf("average quality rating: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// AverageResponseTime returns the mean time, in hours, between issuing a
// purchase order and the vendor acknowledging it. Only acknowledged orders
// count; 0 when there are none. Durations are summed with full precision and
// converted to hours only at the final step.
func (e *Engine) AverageResponseTime(ctx context.Context, vendorID uint) (float64, error) {
	spans, err := e.stats.ResponseSpans(ctx, vendorID)
	if err != nil {
		return 0, fmt.Errorf("load response spans: %w", err)
	}
	if len(spans) == 0 {
		return 0, nil
	}

	var totalSeconds float64
	for _, span := range spans {
		totalSeconds += span.AcknowledgmentDate.Sub(span.IssueDate).Seconds()
	}
	return totalSeconds / float64(len(spans)) / 3600, nil
}

// FulfillmentRate returns the fraction of all the vendor's purchase orders,
// regardless of status, that are completed with a quality rating. 0 when the
// vendor has no purchase orders at all.
func (e *Engine) FulfillmentRate(ctx context.Context, vendorID uint) (float64, error) {
	total, err := e.stats.TotalOrders(ctx, vendorID)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	fulfilled, err := e.stats.FulfilledOrders(ctx, vendorID)
	if err != nil {
		return 0, fmt.Errorf("count fulfilled orders: %w", err)
	}
	return float64(fulfilled) / float64(total), nil
}

// Snapshot computes all four metrics for the vendor's current purchase order set
func (e *Engine) Snapshot(ctx context.Context, vendorID uint) (Metrics, error) {
	var m Metrics
	var err error

	if m.OnTimeDeliveryRate, err = e.OnTimeDeliveryRate(ctx, vendorID); err != nil {
		return Metrics{}, err
	}
	if m.QualityRatingAvg, err = e.QualityRatingAvg(ctx, vendorID); err != nil {
		return Metrics{}, err
	}
	if m.AverageResponseTime, err = e.AverageResponseTime(ctx, vendorID); err != nil {
		return Metrics{}, err
	}
	if m.FulfillmentRate, err = e.FulfillmentRate(ctx, vendorID); err != nil {
		return Metrics{}, err
	}
	return m, nil
}
