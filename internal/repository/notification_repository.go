package repository

import (
	"gorm.io/gorm"

	"github.com/getdone/api/internal/models"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a new notification
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// ListByUser lists a user's notifications newest first
func (r *GormNotificationRepository) ListByUser(userID uint64) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAllRead flips isRead on every notification of a user
func (r *GormNotificationRepository) MarkAllRead(userID uint64) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Update("is_read", true).Error
}

// MarkRead flips isRead on a single caller-owned notification
func (r *GormNotificationRepository) MarkRead(id, userID uint64) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// DeleteAllByUser removes every notification of a user
func (r *GormNotificationRepository) DeleteAllByUser(userID uint64) error {
	return r.db.Where("user_id = ?", userID).
		Delete(&models.Notification{}).Error
}
