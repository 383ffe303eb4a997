package services

import (
	"aichat-backend/internal/database"
	"aichat-backend/internal/models"
	"errors"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// ListNotifications returns the user's notifications, newest first.
func ListNotifications(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func CreateNotification(userID uint, nType models.NotificationType, title, message string) (*models.Notification, error) {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    nType,
		Title:   title,
		Message: message,
		Read:    false,
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		return nil, err
	}

	InvalidateUserCache(userID)
	return &notification, nil
}

// MarkNotificationRead flips a notification to read. Marking an already-read
// notification is a no-op success.
func MarkNotificationRead(userID, notificationID uint) error {
	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	InvalidateUserCache(userID)
	return nil
}

// MarkAllNotificationsRead never fails for a valid user; a user with no
// notifications is a no-op success.
func MarkAllNotificationsRead(userID uint) error {
	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Update("read", true).Error
	if err != nil {
		return err
	}

	InvalidateUserCache(userID)
	return nil
}
