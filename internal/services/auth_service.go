package services

import (
	"aichat-backend/config"
	"aichat-backend/internal/database"
	"aichat-backend/internal/models"
	"aichat-backend/internal/utils"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrUserAlreadyExists = errors.New("user with this username already exists")

// RegisterUser creates the account with its starting credit grant and seeds
// the welcome notification in the same transaction.
func RegisterUser(username, password string) (*models.User, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	var existingUser models.User
	result := database.DB.Where("username = ?", username).First(&existingUser)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var userCount int64
	database.DB.Model(&models.User{}).Count(&userCount)

	role := "user"
	if userCount == 0 {
		role = "admin"
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     role,
		Credits:  cfg.StartingCredits,
		Notifications: []models.Notification{
			{
				Type:    models.NotificationTypeWelcome,
				Title:   "Welcome!",
				Message: fmt.Sprintf("Welcome to AI Chat. You have %d credits to start with.", cfg.StartingCredits),
			},
		},
	}

	if err := database.DB.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func LoginUser(username, password string) (string, *models.User, error) {
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, &user, nil
}
