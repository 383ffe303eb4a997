package services

import (
	"aichat-backend/internal/database"
	"aichat-backend/internal/models"
	"errors"

	"gorm.io/gorm"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

// MessageCreditCost is the price of one user-sent chat message.
const MessageCreditCost int64 = 1

// DeductCredits performs the check-and-decrement as a single conditional
// UPDATE so two concurrent deductions for the same user cannot both pass the
// balance check. Returns the balance after the deduction; on
// ErrInsufficientCredits it returns the current balance instead.
func DeductCredits(userID uint, amount int64) (int64, error) {
	result := database.DB.Model(&models.User{}).
		Where("id = ? AND credits >= ?", userID, amount).
		Update("credits", gorm.Expr("credits - ?", amount))
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		// Either the user is missing or the balance was too low.
		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrUserNotFound
			}
			return 0, err
		}
		return user.Credits, ErrInsufficientCredits
	}

	InvalidateUserCache(userID)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Credits, nil
}

// AdjustCredits applies a signed delta without a balance floor check. It
// trusts the caller; routes expose it to admins only.
func AdjustCredits(userID uint, delta int64) (int64, error) {
	result := database.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("credits", gorm.Expr("credits + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrUserNotFound
	}

	InvalidateUserCache(userID)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Credits, nil
}
