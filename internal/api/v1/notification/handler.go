package notification

import (
	"aichat-backend/internal/models"
	"aichat-backend/internal/services"
	"aichat-backend/internal/utils"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return models.User{}, false
	}
	return userVal.(models.User), true
}

// List godoc
// @Summary List the caller's notifications
// @Description Sorted by creation time, newest first
// @Tags notification
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=[]models.Notification}
// @Failure 401 {object} utils.Response
// @Router /notifications [get]
func List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	notifications, err := services.ListNotifications(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch notifications"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Notifications retrieved successfully", notifications))
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Description Idempotent; re-marking a read notification succeeds
// @Tags notification
// @Produce json
// @Security Bearer
// @Param id path int true "Notification ID"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /notifications/{id}/read [patch]
func MarkRead(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid notification ID"))
		return
	}

	if err := services.MarkNotificationRead(u.ID, uint(id)); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Notification not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to mark notification as read"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Notification marked as read", nil))
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags notification
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /notifications/mark-all-read [patch]
func MarkAllRead(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	if err := services.MarkAllNotificationsRead(u.ID); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to mark notifications as read"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("All notifications marked as read", nil))
}

// Create godoc
// @Summary Push a notification onto an account
// @Description Admin only
// @Tags notification
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body CreateNotificationInput true "Notification"
// @Success 201 {object} utils.Response{data=models.Notification}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /notifications [post]
func Create(c *gin.Context) {
	var input CreateNotificationInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	var targetID uint
	if input.UserID != nil {
		targetID = *input.UserID
	} else {
		u, ok := currentUser(c)
		if !ok {
			return
		}
		targetID = u.ID
	}

	created, err := services.CreateNotification(targetID, models.NotificationType(input.Type), input.Title, input.Message)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to add notification"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Notification added successfully", created))
}
