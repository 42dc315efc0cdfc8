package delivery

import (
	"net/http"

	"update-tracker/internal/version/domain"
	"update-tracker/internal/version/usecase"
	"update-tracker/pkg/apperr"
	"update-tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// VersionHandler handles version registry HTTP requests
type VersionHandler struct {
	versionUsecase usecase.VersionUsecase
}

// NewVersionHandler creates a new VersionHandler
func NewVersionHandler(versionUsecase usecase.VersionUsecase) *VersionHandler {
	return &VersionHandler{
		versionUsecase: versionUsecase,
	}
}

// ListVersions returns every version, optionally for one platform
// GET /api/versions?platform=ANDROID
func (h *VersionHandler) ListVersions(c *gin.Context) {
	versions, err := h.versionUsecase.List(c.Request.Context(), c.Query("platform"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if versions == nil {
		versions = []*domain.VersionRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"versions": versions,
		"total":    len(versions),
	})
}

// GetLatestVersion returns the governing version of a platform
// GET /api/versions/latest?platform=ANDROID
func (h *VersionHandler) GetLatestVersion(c *gin.Context) {
	platform, ok := domain.ParsePlatform(c.Query("platform"))
	if !ok {
		response.Error(c, apperr.InvalidArgument("invalid platform %q", c.Query("platform")))
		return
	}

	version, err := h.versionUsecase.Latest(c.Request.Context(), platform)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// GetVersion returns a specific version
// GET /api/versions/:id
func (h *VersionHandler) GetVersion(c *gin.Context) {
	version, err := h.versionUsecase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// CreateVersion registers a new version
// POST /api/versions
func (h *VersionHandler) CreateVersion(c *gin.Context) {
	var req usecase.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	version, err := h.versionUsecase.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

// UpdateVersion edits an existing version
// PUT /api/versions/:id
func (h *VersionHandler) UpdateVersion(c *gin.Context) {
	var req usecase.UpdateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	version, err := h.versionUsecase.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// DeleteVersion removes a version
// DELETE /api/versions/:id
func (h *VersionHandler) DeleteVersion(c *gin.Context) {
	if err := h.versionUsecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Version deleted successfully"})
}
