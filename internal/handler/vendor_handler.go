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

// VendorRequest defines the structure for vendor creation/update requests.
// The cached metric fields are deliberately absent: they are derived state
// owned by the performance coordinator and cannot be set by clients.
type VendorRequest struct {
	Name           string `json:"name" validate:"required"`
	ContactDetails string `json:"contact_details"`
	Address        string `json:"address"`
	VendorCode     string `json:"vendor_code" validate:"required"`
}

// CreateVendor creates a new vendor
func CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new vendor")
	prometheus.RecordVendorOperation("create")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name == "" || req.VendorCode == "" {
		log.Warn("Missing required vendor fields",
			zap.String("name", req.Name),
			zap.String("vendor_code", req.VendorCode))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name and vendor_code are required",
		})
	}

	// Check if a vendor with the same code already exists
	var count int64
	database.GetDB().Model(&model.Vendor{}).
		Where("vendor_code = ?", req.VendorCode).
		Count(&count)
	if count > 0 {
		log.Warn("Vendor with this code already exists",
			zap.String("vendor_code", req.VendorCode))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Vendor with this code already exists",
		})
	}

	vendor := model.Vendor{
		Name:           req.Name,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
		VendorCode:     req.VendorCode,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&vendor)
	if result.Error != nil {
		log.Error("Failed to create vendor",
			zap.String("name", req.Name),
			zap.String("vendor_code", req.VendorCode),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create vendor",
		})
	}

	// Update vendor count metric
	go updateVendorCount()

	log.Info("Vendor created successfully",
		zap.Uint("id", vendor.ID),
		zap.String("name", vendor.Name),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusCreated, vendor)
}

// ListVendors retrieves all vendors
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing vendors")
	prometheus.RecordVendorOperation("list")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendors []model.Vendor
	result := database.GetDB().Order("created_at desc").Find(&vendors)
	if result.Error != nil {
		log.Error("Failed to retrieve vendors", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendors",
		})
	}

	log.Info("Vendors retrieved successfully", zap.Int("count", len(vendors)))
	return c.JSON(http.StatusOK, vendors)
}

// GetVendor retrieves a vendor by ID
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	log.Info("Getting vendor by ID", zap.Uint64("vendor_id", id))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Error("Vendor not found",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	log.Info("Vendor retrieved successfully",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusOK, vendor)
}

// UpdateVendor updates an existing vendor's profile fields
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	log.Info("Updating vendor", zap.Uint64("vendor_id", id))

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Error("Vendor not found for update",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	oldCode := vendor.VendorCode

	// Check if code is changed and if the new code already exists
	if req.VendorCode != vendor.VendorCode {
		log.Info("Vendor code change requested",
			zap.Uint64("vendor_id", id),
			zap.String("old_code", oldCode),
			zap.String("new_code", req.VendorCode))

		var count int64
		database.GetDB().Model(&model.Vendor{}).
			Where("vendor_code = ? AND id != ?", req.VendorCode, id).
			Count(&count)
		if count > 0 {
			log.Warn("Vendor with this code already exists",
				zap.String("vendor_code", req.VendorCode))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Vendor with this code already exists",
			})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	// Update profile fields only; the cached metric fields stay untouched
	vendor.Name = req.Name
	vendor.ContactDetails = req.ContactDetails
	vendor.Address = req.Address
	vendor.VendorCode = req.VendorCode

	result = database.GetDB().Save(&vendor)
	if result.Error != nil {
		log.Error("Failed to update vendor",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	log.Info("Vendor updated successfully",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name),
		zap.String("old_code", oldCode),
		zap.String("new_code", vendor.VendorCode))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor handles deleting a vendor (soft delete)
func DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	log.Info("Deleting vendor", zap.Uint64("vendor_id", id))

	var vendor model.Vendor
	preResult := database.GetDB().First(&vendor, id)
	if preResult.Error != nil {
		log.Warn("Vendor not found for deletion",
			zap.Uint64("vendor_id", id),
			zap.Error(preResult.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().Delete(&vendor)
	if result.Error != nil {
		log.Error("Failed to delete vendor",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete vendor",
		})
	}

	// Update vendor count metric
	go updateVendorCount()

	log.Info("Vendor deleted successfully",
		zap.Uint64("vendor_id", id),
		zap.Int64("rows_affected", result.RowsAffected))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Vendor deleted successfully",
	})
}

// GetVendorPerformance computes the vendor's four performance metrics fresh
// from the current purchase order set. It reads nothing from the cached
// fields on the vendor row and performs no writes.
func GetVendorPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("performance")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	log.Info("Computing vendor performance", zap.Uint64("vendor_id", id))

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Error("Vendor not found",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	engine := performance.NewEngine(performance.NewOrderStats(database.GetDB()))
	metrics, err := engine.Snapshot(c.Request().Context(), vendor.ID)
	if err != nil {
		log.Error("Failed to compute vendor performance",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute vendor performance",
		})
	}

	log.Info("Vendor performance computed",
		zap.Uint64("vendor_id", id),
		zap.Float64("on_time_delivery_rate", metrics.OnTimeDeliveryRate),
		zap.Float64("quality_rating_avg", metrics.QualityRatingAvg),
		zap.Float64("average_response_time", metrics.AverageResponseTime),
		zap.Float64("fulfillment_rate", metrics.FulfillmentRate))

	return c.JSON(http.StatusOK, echo.Map{
		"vendor_id":             vendor.ID,
		"on_time_delivery_rate": metrics.OnTimeDeliveryRate,
		"quality_rating_avg":    metrics.QualityRatingAvg,
		"average_response_time": metrics.AverageResponseTime,
		"fulfillment_rate":      metrics.FulfillmentRate,
	})
}

// Helper function to update the vendor count metric
func updateVendorCount() {
	var count int64
	database.GetDB().Model(&model.Vendor{}).Count(&count)
	prometheus.UpdateVendorCount(int(count))
}
