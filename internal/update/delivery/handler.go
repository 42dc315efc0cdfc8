package delivery

import (
	"net/http"

	authdelivery "update-tracker/internal/auth/delivery"
	"update-tracker/internal/update/domain"
	"update-tracker/internal/update/usecase"
	"update-tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// UpdateHandler handles update evaluation and remediation HTTP requests
type UpdateHandler struct {
	updateUsecase usecase.UpdateUsecase
}

// NewUpdateHandler creates a new UpdateHandler
func NewUpdateHandler(updateUsecase usecase.UpdateUsecase) *UpdateHandler {
	return &UpdateHandler{
		updateUsecase: updateUsecase,
	}
}

// ScanResponse is the rendered form of a fleet scan
type ScanResponse struct {
	Verdicts  []*domain.Verdict `json:"verdicts"`
	Evaluated int               `json:"evaluated"`
	Failed    int               `json:"failed"`
	Errors    []string          `json:"errors,omitempty"`
	Cancelled bool              `json:"cancelled,omitempty"`
}

// NewScanResponse flattens a report for JSON output
func NewScanResponse(report *domain.ScanReport) ScanResponse {
	resp := ScanResponse{
		Verdicts:  report.Verdicts,
		Evaluated: report.Evaluated,
		Failed:    report.Failed,
		Cancelled: report.Cancelled,
	}
	if resp.Verdicts == nil {
		resp.Verdicts = []*domain.Verdict{}
	}
	if report.Err != nil {
		for _, err := range report.Err.Errors {
			resp.Errors = append(resp.Errors, err.Error())
		}
	}
	return resp
}

// EvaluateDevice returns the verdict for one device
// GET /api/updates/devices/:id
func (h *UpdateHandler) EvaluateDevice(c *gin.Context) {
	verdict, err := h.updateUsecase.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !authdelivery.AllowUser(c, verdict.UserID) {
		return
	}

	c.JSON(http.StatusOK, verdict)
}

// ApplyUpdate moves a device to its target version
// POST /api/updates/devices/:id/apply
func (h *UpdateHandler) ApplyUpdate(c *gin.Context) {
	current, err := h.updateUsecase.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !authdelivery.AllowUser(c, current.UserID) {
		return
	}

	verdict, err := h.updateUsecase.UpdateDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, verdict)
}

// ScanFleet evaluates every device, optionally filtered by urgency
// GET /api/updates?urgency=MANDATORY
func (h *UpdateHandler) ScanFleet(c *gin.Context) {
	var (
		report *domain.ScanReport
		err    error
	)
	if urgency := c.Query("urgency"); urgency != "" {
		report, err = h.updateUsecase.ScanByUrgency(c.Request.Context(), urgency)
	} else {
		report, err = h.updateUsecase.ScanAll(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScanResponse(report))
}

// ForceUpdate remediates every MANDATORY and DEPRECATED device
// POST /api/updates/force
func (h *UpdateHandler) ForceUpdate(c *gin.Context) {
	verdicts, err := h.updateUsecase.ForceUpdateAllOutdated(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"updated": verdicts,
		"total":   len(verdicts),
	})
}
