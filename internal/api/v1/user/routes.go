package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.GET("/profile", Profile)
	users.POST("/deduct-message-credit", DeductMessageCredit)
}

// RegisterAdminRoutes mounts the privileged ledger operation.
func RegisterAdminRoutes(router *gin.RouterGroup) {
	router.PATCH("/users/credits", AdjustCredits)
}
