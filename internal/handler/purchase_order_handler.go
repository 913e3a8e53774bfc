package handler

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PurchaseOrderRequest defines the structure for purchase order creation/update requests
type PurchaseOrderRequest struct {
	PONumber           string      `json:"po_number" validate:"required"`
	VendorID           uint        `json:"vendor_id" validate:"required"`
	OrderDate          time.Time   `json:"order_date" validate:"required"`
	DeliveryDate       time.Time   `json:"delivery_date" validate:"required"`
	Items              model.JSONB `json:"items"`
	Quantity           int         `json:"quantity"`
	Status             string      `json:"status" validate:"required"`
	QualityRating      *float64    `json:"quality_rating"`
	IssueDate          time.Time   `json:"issue_date" validate:"required"`
	AcknowledgmentDate *time.Time  `json:"acknowledgment_date"`
}

// recalculateForVendors drives one performance recalculation per affected
// vendor. Every purchase order mutation handler funnels the vendor ids it
// touched through here, so the trigger points stay in one place.
func recalculateForVendors(c echo.Context, vendorIDs ...uint) error {
	log := logger.FromContext(c)
	coordinator := performance.NewCoordinator(database.GetDB())

	seen := make(map[uint]bool, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		if vendorID == 0 || seen[vendorID] {
			continue
		}
		seen[vendorID] = true

		start := time.Now()
		if err := coordinator.Recalculate(c.Request().Context(), vendorID); err != nil {
			prometheus.RecalculationErrors.Inc()
			log.Error("Failed to recalculate vendor performance",
				zap.Uint("vendor_id", vendorID),
				zap.Error(err))
			return err
		}
		prometheus.RecalculationDuration.Observe(time.Since(start).Seconds())
		prometheus.PerformanceSnapshots.Inc()

		log.Info("Vendor performance recalculated",
			zap.Uint("vendor_id", vendorID))
	}
	return nil
}

// CreatePurchaseOrder creates a new purchase order and refreshes the owning
// vendor's performance metrics
func CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new purchase order")
	prometheus.RecordPurchaseOrderOperation("create")

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.PONumber == "" || req.VendorID == 0 || req.Status == "" {
		log.Warn("Missing required purchase order fields",
			zap.String("po_number", req.PONumber),
			zap.Uint("vendor_id", req.VendorID))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "po_number, vendor_id and status are required",
		})
	}

	// The owning vendor must exist
	var vendor model.Vendor
	if err := database.GetDB().First(&vendor, req.VendorID).Error; err != nil {
		log.Warn("Vendor not found for purchase order",
			zap.Uint("vendor_id", req.VendorID),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Check if a purchase order with the same number already exists
	var count int64
	database.GetDB().Model(&model.PurchaseOrder{}).
		Where("po_number = ?", req.PONumber).
		Count(&count)
	if count > 0 {
		log.Warn("Purchase order with this number already exists",
			zap.String("po_number", req.PONumber))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Purchase order with this number already exists",
		})
	}

	po := model.PurchaseOrder{
		PONumber:           req.PONumber,
		VendorID:           req.VendorID,
		OrderDate:          req.OrderDate,
		DeliveryDate:       req.DeliveryDate,
		Items:              req.Items,
		Quantity:           req.Quantity,
		Status:             req.Status,
		QualityRating:      req.QualityRating,
		IssueDate:          req.IssueDate,
		AcknowledgmentDate: req.AcknowledgmentDate,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&po)
	if result.Error != nil {
		log.Error("Failed to create purchase order",
			zap.String("po_number", req.PONumber),
			zap.Uint("vendor_id", req.VendorID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create purchase order",
		})
	}

	// Refresh the vendor's cached metrics
	if err := recalculateForVendors(c, po.VendorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor performance metrics",
		})
	}

	log.Info("Purchase order created successfully",
		zap.Uint("id", po.ID),
		zap.String("po_number", po.PONumber),
		zap.Uint("vendor_id", po.VendorID))
	return c.JSON(http.StatusCreated, po)
}

// ListPurchaseOrders retrieves purchase orders, optionally filtered by vendor
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing purchase orders")
	prometheus.RecordPurchaseOrderOperation("list")

	query := database.GetDB()

	// Filter by vendor if specified
	vendorParam := c.QueryParam("vendor_id")
	if vendorParam != "" {
		vendorID, err := strconv.ParseUint(vendorParam, 10, 32)
		if err != nil {
			log.Warn("Invalid vendor_id parameter", zap.String("value", vendorParam), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid vendor_id parameter",
			})
		}
		query = query.Where("vendor_id = ?", vendorID)
		log.Info("Filtering purchase orders by vendor", zap.Uint64("vendor_id", vendorID))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var orders []model.PurchaseOrder
	result := query.Order("created_at desc").Find(&orders)
	if result.Error != nil {
		log.Error("Failed to retrieve purchase orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}

	log.Info("Purchase orders retrieved successfully", zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

// GetPurchaseOrder retrieves a purchase order by ID
func GetPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	log.Info("Getting purchase order by ID", zap.Uint64("po_id", id))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var po model.PurchaseOrder
	result := database.GetDB().First(&po, id)
	if result.Error != nil {
		log.Error("Purchase order not found",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	log.Info("Purchase order retrieved successfully",
		zap.Uint64("po_id", id),
		zap.String("po_number", po.PONumber),
		zap.Uint("vendor_id", po.VendorID))
	return c.JSON(http.StatusOK, po)
}

// UpdatePurchaseOrder updates an existing purchase order and refreshes the
// metrics of every affected vendor. When the order moves between vendors the
// previous owner's aggregates change too, so both vendors are recalculated.
func UpdatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	log.Info("Updating purchase order", zap.Uint64("po_id", id))

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint64("po_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Status == "" {
		log.Warn("Missing status in purchase order update", zap.Uint64("po_id", id))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "status is required",
		})
	}

	var po model.PurchaseOrder
	result := database.GetDB().First(&po, id)
	if result.Error != nil {
		log.Error("Purchase order not found for update",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	previousVendorID := po.VendorID

	// A vendor change must point at an existing vendor
	if req.VendorID != 0 && req.VendorID != po.VendorID {
		var vendor model.Vendor
		if err := database.GetDB().First(&vendor, req.VendorID).Error; err != nil {
			log.Warn("Target vendor not found for purchase order update",
				zap.Uint64("po_id", id),
				zap.Uint("vendor_id", req.VendorID),
				zap.Error(err))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Vendor not found",
			})
		}
	}

	// Check if the PO number is changed and if the new number already exists
	if req.PONumber != "" && req.PONumber != po.PONumber {
		var count int64
		database.GetDB().Model(&model.PurchaseOrder{}).
			Where("po_number = ? AND id != ?", req.PONumber, id).
			Count(&count)
		if count > 0 {
			log.Warn("Purchase order with this number already exists",
				zap.String("po_number", req.PONumber))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Purchase order with this number already exists",
			})
		}
		po.PONumber = req.PONumber
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	if req.VendorID != 0 {
		po.VendorID = req.VendorID
	}
	po.OrderDate = req.OrderDate
	po.DeliveryDate = req.DeliveryDate
	po.Items = req.Items
	po.Quantity = req.Quantity
	po.Status = req.Status
	po.QualityRating = req.QualityRating
	po.IssueDate = req.IssueDate
	po.AcknowledgmentDate = req.AcknowledgmentDate

	result = database.GetDB().Save(&po)
	if result.Error != nil {
		log.Error("Failed to update purchase order",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update purchase order",
		})
	}

	// Refresh the current vendor and, when ownership moved, the previous one
	if err := recalculateForVendors(c, po.VendorID, previousVendorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor performance metrics",
		})
	}

	log.Info("Purchase order updated successfully",
		zap.Uint64("po_id", id),
		zap.String("po_number", po.PONumber),
		zap.Uint("vendor_id", po.VendorID))
	return c.JSON(http.StatusOK, po)
}

// DeletePurchaseOrder deletes a purchase order and refreshes the former
// owner's performance metrics
func DeletePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	log.Info("Deleting purchase order", zap.Uint64("po_id", id))

	var po model.PurchaseOrder
	preResult := database.GetDB().First(&po, id)
	if preResult.Error != nil {
		log.Warn("Purchase order not found for deletion",
			zap.Uint64("po_id", id),
			zap.Error(preResult.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Capture the owner before the row disappears
	vendorID := po.VendorID

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().Delete(&po)
	if result.Error != nil {
		log.Error("Failed to delete purchase order",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}

	if err := recalculateForVendors(c, vendorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor performance metrics",
		})
	}

	log.Info("Purchase order deleted successfully",
		zap.Uint64("po_id", id),
		zap.Uint("vendor_id", vendorID),
		zap.Int64("rows_affected", result.RowsAffected))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Purchase order deleted successfully",
	})
}

// AcknowledgePurchaseOrder records the vendor's acknowledgment timestamp and
// refreshes the vendor's metrics. This is the only path that moves
// average_response_time on its own.
func AcknowledgePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("acknowledge")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	log.Info("Acknowledging purchase order", zap.Uint64("po_id", id))

	var po model.PurchaseOrder
	result := database.GetDB().First(&po, id)
	if result.Error != nil {
		log.Error("Purchase order not found for acknowledgment",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	now := time.Now()
	po.AcknowledgmentDate = &now

	result = database.GetDB().Save(&po)
	if result.Error != nil {
		log.Error("Failed to acknowledge purchase order",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to acknowledge purchase order",
		})
	}

	if err := recalculateForVendors(c, po.VendorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor performance metrics",
		})
	}

	log.Info("Purchase order acknowledged successfully",
		zap.Uint64("po_id", id),
		zap.Uint("vendor_id", po.VendorID),
		zap.Time("acknowledgment_date", now))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Purchase order acknowledged successfully",
	})
}
