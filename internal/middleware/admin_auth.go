package middleware

import (
	"aichat-backend/internal/services"
	"aichat-backend/internal/utils"
	"aichat-backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminAuthMiddleware validates that the caller has admin privileges. The
// credit-adjust and notification-create endpoints sit behind it.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		isDenylisted, err := services.IsDenylisted(tokenString)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to check token status"))
			c.Abort()
			return
		}
		if isDenylisted {
			abortUnauthenticated(c)
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != "admin" {
			if logger.Log != nil {
				logger.Log.Warn("Non-admin attempted privileged operation",
					zap.String("path", c.Request.URL.Path))
			}
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Forbidden: Admins only"))
			c.Abort()
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if ok {
			user, err := services.FindUserByID(uint(userIDFloat))
			if err == nil {
				c.Set("user", user)
			}
		}

		c.Next()
	}
}
