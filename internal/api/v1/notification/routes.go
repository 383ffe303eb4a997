package notification

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	notifications.GET("", List)
	notifications.PATCH("/mark-all-read", MarkAllRead)
	notifications.PATCH("/:id/read", MarkRead)
}

// RegisterAdminRoutes mounts the privileged create endpoint.
func RegisterAdminRoutes(router *gin.RouterGroup) {
	router.POST("/notifications", Create)
}
