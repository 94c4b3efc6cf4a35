package handlers

import "github.com/gin-gonic/gin"

// Register mounts the API under api.
func Register(api *gin.RouterGroup, apps *ApplicationHandler, sess *SessionHandler) {
	api.GET("/health", HealthCheck)

	api.GET("/dashboard", apps.GetDashboard)
	api.GET("/applications", apps.ListApplications)
	api.PUT("/applications/:id/status", apps.UpdateStatus)
	api.POST("/applications/bulk-status", apps.BulkUpdateStatus)
	api.GET("/applications/:id/history", apps.GetHistory)

	api.GET("/selection", apps.GetSelection)
	api.POST("/selection/status", apps.UpdateSelectionStatus)
	api.POST("/selection/items/:id", apps.ToggleSelection)
	api.DELETE("/selection", apps.ClearSelection)

	api.GET("/session", sess.Status)
	api.POST("/session", sess.Login)
	api.DELETE("/session", sess.Logout)
}
