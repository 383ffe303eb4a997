package services

import (
	"aichat-backend/internal/database"
	"aichat-backend/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

func userCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func FindUserByID(userID uint) (models.User, error) {
	// Try cache
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, userCacheKey(userID)).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return user, nil
			}
		}
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return user, err
	}

	// Set cache
	if database.RedisClient != nil {
		if data, err := json.Marshal(user); err == nil {
			database.RedisClient.Set(database.Ctx, userCacheKey(userID), data, time.Hour)
		}
	}

	return user, nil
}

// GetProfile returns the user with notifications preloaded, always from the
// database so the balance is current.
func GetProfile(userID uint) (models.User, error) {
	var user models.User
	err := database.DB.Preload("Notifications").First(&user, userID).Error
	return user, err
}

// InvalidateUserCache drops the cached copy of a user. Every credit or
// notification mutation calls this so subsequent reads see the write.
func InvalidateUserCache(userID uint) {
	if database.RedisClient != nil {
		database.RedisClient.Del(database.Ctx, userCacheKey(userID))
	}
}
