package api

import (
	"update-tracker/internal/app"
	deviceDelivery "update-tracker/internal/device/delivery"
	notificationDelivery "update-tracker/internal/notification/delivery"
	updateDelivery "update-tracker/internal/update/delivery"
	versionDelivery "update-tracker/internal/version/delivery"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	app                 *app.App
	versionHandler      *versionDelivery.VersionHandler
	deviceHandler       *deviceDelivery.DeviceHandler
	updateHandler       *updateDelivery.UpdateHandler
	notificationHandler *notificationDelivery.NotificationHandler
}

func NewHandler(a *app.App) *Handler {
	return &Handler{
		app:                 a,
		versionHandler:      versionDelivery.NewVersionHandler(a.Versions),
		deviceHandler:       deviceDelivery.NewDeviceHandler(a.Devices),
		updateHandler:       updateDelivery.NewUpdateHandler(a.Updates),
		notificationHandler: notificationDelivery.NewNotificationHandler(a.Notifications, a.Devices, a.Config.NotificationRetentionDays),
	}
}

// Router builds the gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	if h.app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)
	return r
}
