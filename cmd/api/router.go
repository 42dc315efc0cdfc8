package api

import (
	"net/http"

	"update-tracker/internal/auth/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	auth := delivery.AuthMiddleware(h.app.Auth)
	operator := delivery.RequireOperator()

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.app.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Version registry routes
		versions := api.Group("/versions")
		versions.Use(auth)
		{
			versions.GET("", h.versionHandler.ListVersions)
			versions.GET("/latest", h.versionHandler.GetLatestVersion)
			versions.GET("/:id", h.versionHandler.GetVersion)
			versions.POST("", operator, h.versionHandler.CreateVersion)
			versions.PUT("/:id", operator, h.versionHandler.UpdateVersion)
			versions.DELETE("/:id", operator, h.versionHandler.DeleteVersion)
		}

		// Device directory routes
		devices := api.Group("/devices")
		devices.Use(auth)
		{
			devices.POST("", h.deviceHandler.RegisterDevice)
			devices.GET("", operator, h.deviceHandler.ListDevices)
			devices.GET("/outdated", h.deviceHandler.GetOutdatedDevices)
			devices.GET("/stats/distribution", operator, h.deviceHandler.GetDistribution)
			devices.GET("/users/:userId", h.deviceHandler.GetUserDevices)
			devices.GET("/:id", h.deviceHandler.GetDevice)
			devices.PUT("/:id", h.deviceHandler.UpdateDevice)
			devices.DELETE("/:id", h.deviceHandler.DeleteDevice)
			devices.POST("/:id/check-in", h.deviceHandler.CheckIn)
		}

		// Update evaluation and remediation routes
		updates := api.Group("/updates")
		updates.Use(auth)
		{
			updates.GET("", operator, h.updateHandler.ScanFleet)
			updates.POST("/force", operator, h.updateHandler.ForceUpdate)
			updates.GET("/devices/:id", h.updateHandler.EvaluateDevice)
			updates.POST("/devices/:id/apply", h.updateHandler.ApplyUpdate)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		notifications.Use(auth)
		{
			notifications.POST("/dispatch", operator, h.notificationHandler.Dispatch)
			notifications.POST("/deliver", operator, h.notificationHandler.DeliverPending)
			notifications.DELETE("/expired", operator, h.notificationHandler.PurgeExpired)
			notifications.GET("/devices/:id", h.notificationHandler.GetDeviceNotifications)
			notifications.GET("/users/:userId", h.notificationHandler.GetUserNotifications)
			notifications.GET("/:id", h.notificationHandler.GetNotification)
			notifications.PATCH("/:id/read", h.notificationHandler.MarkAsRead)
			notifications.PATCH("/:id/dismiss", h.notificationHandler.Dismiss)
			notifications.DELETE("/:id", h.notificationHandler.DeleteNotification)
		}
	}
}
