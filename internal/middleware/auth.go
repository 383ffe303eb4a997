package middleware

import (
	"aichat-backend/internal/services"
	"aichat-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every authentication failure gets the same message so callers cannot tell
// which check rejected them.
const unauthenticatedMessage = "Invalid or missing credentials"

func abortUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, unauthenticatedMessage))
	c.Abort()
}

// AuthMiddleware resolves the bearer token to a user and stores it in the
// context. It runs before every protected operation.
func AuthMiddleware() gin.HandlerFunc {
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

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		userID := uint(userIDFloat)

		user, err := services.FindUserByID(userID)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
