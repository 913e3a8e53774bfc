package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePurchaseOrderRecalculatesVendor(t *testing.T) {
	e := setupTestAPI(t)
	vendor := createTestVendor(t, "PO-C-001")

	rec := doRequest(t, e, http.MethodPost, "/api/purchase_orders", map[string]interface{}{
		"po_number":      "PO-1001",
		"vendor_id":      vendor.ID,
		"order_date":     "2024-01-01T00:00:00Z",
		"delivery_date":  "2024-01-03T00:00:00Z",
		"issue_date":     "2024-01-01T00:00:00Z",
		"items":          map[string]interface{}{"widget": 10},
		"quantity":       10,
		"status":         "completed",
		"quality_rating": 4.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The mutation must have refreshed the vendor's cached metrics
	var loaded model.Vendor
	require.NoError(t, database.GetDB().First(&loaded, vendor.ID).Error)
	assert.InDelta(t, 1.0, loaded.OnTimeDeliveryRate, 1e-9)
	assert.InDelta(t, 4.0, loaded.QualityRatingAvg, 1e-9)
	assert.InDelta(t, 1.0, loaded.FulfillmentRate, 1e-9)

	// ...and appended one historical snapshot
	var count int64
	require.NoError(t, database.GetDB().Model(&model.HistoricalPerformance{}).
		Where("vendor_id = ?", vendor.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreatePurchaseOrderUnknownVendor(t *testing.T) {
	e := setupTestAPI(t)

	rec := doRequest(t, e, http.MethodPost, "/api/purchase_orders", map[string]interface{}{
		"po_number":     "PO-1002",
		"vendor_id":     42,
		"order_date":    "2024-01-01T00:00:00Z",
		"delivery_date": "2024-01-03T00:00:00Z",
		"issue_date":    "2024-01-01T00:00:00Z",
		"status":        "pending",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePurchaseOrderDuplicateNumber(t *testing.T) {
	e := setupTestAPI(t)
	vendor := createTestVendor(t, "PO-DUP-001")

	body := map[string]interface{}{
		"po_number":     "PO-2001",
		"vendor_id":     vendor.ID,
		"order_date":    "2024-01-01T00:00:00Z",
		"delivery_date": "2024-01-03T00:00:00Z",
		"issue_date":    "2024-01-01T00:00:00Z",
		"status":        "pending",
	}

	rec := doRequest(t, e, http.MethodPost, "/api/purchase_orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, e, http.MethodPost, "/api/purchase_orders", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListPurchaseOrdersFilterByVendor(t *testing.T) {
	e := setupTestAPI(t)
	vendorA := createTestVendor(t, "PO-LIST-A")
	vendorB := createTestVendor(t, "PO-LIST-B")

	orderDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, vendorID := range []uint{vendorA.ID, vendorA.ID, vendorB.ID} {
		require.NoError(t, database.GetDB().Create(&model.PurchaseOrder{
			PONumber:     "PO-LIST-" + string(rune('1'+i)),
			VendorID:     vendorID,
			Status:       model.POStatusPending,
			OrderDate:    orderDate,
			DeliveryDate: orderDate.Add(24 * time.Hour),
			IssueDate:    orderDate,
			Quantity:     1,
		}).Error)
	}

	rec := doRequest(t, e, http.MethodGet, "/api/purchase_orders?vendor_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []model.PurchaseOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 2)

	rec = doRequest(t, e, http.MethodGet, "/api/purchase_orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 3)
}

func TestUpdatePurchaseOrderVendorChangeRecalculatesBoth(t *testing.T) {
	e := setupTestAPI(t)
	vendorA := createTestVendor(t, "PO-MOVE-A")
	vendorB := createTestVendor(t, "PO-MOVE-B")

	rec := doRequest(t, e, http.MethodPost, "/api/purchase_orders", map[string]interface{}{
		"po_number":      "PO-3001",
		"vendor_id":      vendorA.ID,
		"order_date":     "2024-01-01T00:00:00Z",
		"delivery_date":  "2024-01-03T00:00:00Z",
		"issue_date":     "2024-01-01T00:00:00Z",
		"quantity":       5,
		"status":         "completed",
		"quality_rating": 5.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var loadedA model.Vendor
	require.NoError(t, database.GetDB().First(&loadedA, vendorA.ID).Error)
	require.InDelta(t, 1.0, loadedA.FulfillmentRate, 1e-9)

	// Move the order to vendor B
	rec = doRequest(t, e, http.MethodPut, "/api/purchase_orders/1", map[string]interface{}{
		"po_number":      "PO-3001",
		"vendor_id":      vendorB.ID,
		"order_date":     "2024-01-01T00:00:00Z",
		"delivery_date":  "2024-01-03T00:00:00Z",
		"issue_date":     "2024-01-01T00:00:00Z",
		"quantity":       5,
		"status":         "completed",
		"quality_rating": 5.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The previous owner's aggregates went back to zero
	require.NoError(t, database.GetDB().First(&loadedA, vendorA.ID).Error)
	assert.Zero(t, loadedA.FulfillmentRate)
	assert.Zero(t, loadedA.OnTimeDeliveryRate)

	var loadedB model.Vendor
	require.NoError(t, database.GetDB().First(&loadedB, vendorB.ID).Error)
	assert.InDelta(t, 1.0, loadedB.FulfillmentRate, 1e-9)

	// Both vendors got a snapshot from the move
	var countA, countB int64
	require.NoError(t, database.GetDB().Model(&model.HistoricalPerformance{}).
		Where("vendor_id = ?", vendorA.ID).Count(&countA).Error)
	require.NoError(t, database.GetDB().Model(&model.HistoricalPerformance{}).
		Where("vendor_id = ?", vendorB.ID).Count(&countB).Error)
	assert.EqualValues(t, 2, countA)
	assert.EqualValues(t, 1, countB)
}

func TestDeletePurchaseOrderRecalculatesFormerOwner(t *testing.T) {
	e := setupTestAPI(t)
	vendor := createTestVendor(t, "PO-DEL-001")

	rec := doRequest(t, e, http.MethodPost, "/api/purchase_orders", map[string]interface{}{
		"po_number":      "PO-4001",
		"vendor_id":      vendor.ID,
		"order_date":     "2024-01-01T00:00:00Z",
		"delivery_date":  "2024-01-03T00:00:00Z",
		"issue_date":     "2024-01-01T00:00:00Z",
		"quantity":       5,
		"status":         "completed",
		"quality_rating": 4.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, e, http.MethodDelete, "/api/purchase_orders/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded model.Vendor
	require.NoError(t, database.GetDB().First(&loaded, vendor.ID).Error)
	assert.Zero(t, loaded.OnTimeDeliveryRate)
	assert.Zero(t, loaded.QualityRatingAvg)
	assert.Zero(t, loaded.AverageResponseTime)
	assert.Zero(t, loaded.FulfillmentRate)
}

func TestAcknowledgePurchaseOrder(t *testing.T) {
	e := setupTestAPI(t)
	vendor := createTestVendor(t, "PO-ACK-001")

	issued := time.Now().Add(-24 * time.Hour)
	require.NoError(t, database.GetDB().Create(&model.PurchaseOrder{
		PONumber:     "PO-5001",
		VendorID:     vendor.ID,
		Status:       model.POStatusPending,
		OrderDate:    issued,
		DeliveryDate: issued.Add(72 * time.Hour),
		IssueDate:    issued,
		Quantity:     3,
	}).Error)

	rec := doRequest(t, e, http.MethodPost, "/api/purchase_orders/1/acknowledge", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var po model.PurchaseOrder
	require.NoError(t, database.GetDB().First(&po, 1).Error)
	require.NotNil(t, po.AcknowledgmentDate)

	// Acknowledging is the one path that moves average_response_time on its own
	var loaded model.Vendor
	require.NoError(t, database.GetDB().First(&loaded, vendor.ID).Error)
	assert.InDelta(t, 24.0, loaded.AverageResponseTime, 0.1)
}

func TestAcknowledgePurchaseOrderNotFound(t *testing.T) {
	e := setupTestAPI(t)

	rec := doRequest(t, e, http.MethodPost, "/api/purchase_orders/99/acknowledge", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
