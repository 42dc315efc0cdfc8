package delivery

import (
	"net/http"

	authdelivery "update-tracker/internal/auth/delivery"
	"update-tracker/internal/device/domain"
	"update-tracker/internal/device/usecase"
	"update-tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// DeviceHandler handles device directory HTTP requests
type DeviceHandler struct {
	deviceUsecase usecase.DeviceUsecase
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceUsecase usecase.DeviceUsecase) *DeviceHandler {
	return &DeviceHandler{
		deviceUsecase: deviceUsecase,
	}
}

// RegisterDevice registers a device for a user
// POST /api/devices
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req usecase.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if !authdelivery.AllowUser(c, req.UserID) {
		return
	}

	device, err := h.deviceUsecase.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

// ListDevices returns the whole fleet
// GET /api/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceUsecase.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": nonNil(devices),
		"total":   len(devices),
	})
}

// GetDevice returns a specific device
// GET /api/devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, ok := h.loadOwned(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, device)
}

// GetUserDevices returns the devices of a user
// GET /api/devices/users/:userId
func (h *DeviceHandler) GetUserDevices(c *gin.Context) {
	userID := c.Param("userId")
	if !authdelivery.AllowUser(c, userID) {
		return
	}

	devices, err := h.deviceUsecase.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": nonNil(devices),
		"total":   len(devices),
	})
}

// GetOutdatedDevices lists devices not on the platform's latest version
// GET /api/devices/outdated?user_id=&platform=
func (h *DeviceHandler) GetOutdatedDevices(c *gin.Context) {
	userID := c.Query("user_id")
	principal := authdelivery.PrincipalFrom(c)
	if userID == "" && principal != nil && !principal.IsOperator() {
		userID = principal.UserID
	}
	if !authdelivery.AllowUser(c, userID) {
		return
	}

	devices, err := h.deviceUsecase.Outdated(c.Request.Context(), userID, c.Query("platform"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": nonNil(devices),
		"total":   len(devices),
	})
}

// UpdateDevice edits a device
// PUT /api/devices/:id
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req usecase.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if _, ok := h.loadOwned(c); !ok {
		return
	}
	if req.UserID != nil && !authdelivery.AllowUser(c, *req.UserID) {
		return
	}

	device, err := h.deviceUsecase.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// DeleteDevice removes a device
// DELETE /api/devices/:id
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	if _, ok := h.loadOwned(c); !ok {
		return
	}

	if err := h.deviceUsecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device deleted successfully"})
}

// CheckIn records the version a device reports
// POST /api/devices/:id/check-in
func (h *DeviceHandler) CheckIn(c *gin.Context) {
	var req usecase.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if _, ok := h.loadOwned(c); !ok {
		return
	}

	device, err := h.deviceUsecase.CheckIn(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// GetDistribution counts devices per version
// GET /api/devices/stats/distribution
func (h *DeviceHandler) GetDistribution(c *gin.Context) {
	shares, err := h.deviceUsecase.Distribution(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if shares == nil {
		shares = []*domain.VersionShare{}
	}

	c.JSON(http.StatusOK, gin.H{"distribution": shares})
}

// loadOwned resolves :id and checks the caller may access it
func (h *DeviceHandler) loadOwned(c *gin.Context) (*domain.DeviceRecord, bool) {
	device, err := h.deviceUsecase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !authdelivery.AllowUser(c, device.UserID) {
		return nil, false
	}
	return device, true
}

func nonNil(devices []*domain.DeviceRecord) []*domain.DeviceRecord {
	if devices == nil {
		return []*domain.DeviceRecord{}
	}
	return devices
}
