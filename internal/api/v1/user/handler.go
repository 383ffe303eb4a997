package user

import (
	"aichat-backend/internal/models"
	"aichat-backend/internal/services"
	"aichat-backend/internal/utils"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// Profile godoc
// @Summary Get current user's profile
// @Description Returns identity, credit balance, and notifications
// @Tags user
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=ProfileResponse}
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/profile [get]
func Profile(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	u := userVal.(models.User)

	// Reload from the DB so the balance reflects deductions that happened
	// after the middleware's cached lookup.
	profile, err := services.GetProfile(u.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
		return
	}

	notifications := profile.Notifications
	sort.Slice(notifications, func(i, j int) bool {
		if notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].ID > notifications[j].ID
		}
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile retrieved successfully", ProfileResponse{
		ID:            profile.ID,
		Username:      profile.Username,
		Credits:       profile.Credits,
		Notifications: notifications,
	}))
}

// DeductMessageCredit godoc
// @Summary Deduct one credit for a sent message
// @Tags user
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=CreditsResponse}
// @Failure 400 {object} utils.Response{data=CreditsResponse}
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/deduct-message-credit [post]
func DeductMessageCredit(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	u := userVal.(models.User)

	credits, err := services.DeductCredits(u.ID, services.MessageCreditCost)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientCredits) {
			c.JSON(http.StatusBadRequest, utils.NewResponse(http.StatusBadRequest,
				"Insufficient credits", CreditsResponse{Credits: credits}))
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to deduct credit"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Credit deducted successfully", CreditsResponse{Credits: credits}))
}

// AdjustCredits godoc
// @Summary Apply a signed credit delta to an account
// @Description Administrative grant/charge; no balance floor check. Admin only.
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body AdjustCreditsInput true "Adjustment"
// @Success 200 {object} utils.Response{data=CreditsResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/credits [patch]
func AdjustCredits(c *gin.Context) {
	var input AdjustCreditsInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	var targetID uint
	if input.UserID != nil {
		targetID = *input.UserID
	} else {
		userVal, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
			return
		}
		targetID = userVal.(models.User).ID
	}

	credits, err := services.AdjustCredits(targetID, *input.Amount)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update credits"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Credits updated successfully", CreditsResponse{Credits: credits}))
}
