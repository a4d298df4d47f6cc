package dto

import (
	"time"

	"github.com/getdone/api/internal/models"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID        uint64                  `json:"id"`
	UserID    uint64                  `json:"userId"`
	GroupID   *uint64                 `json:"groupId"`
	TaskID    *uint64                 `json:"taskId"`
	Type      models.NotificationType `json:"type"`
	Message   string                  `json:"message"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"created_at"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(notification models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        notification.ID,
		UserID:    notification.UserID,
		GroupID:   notification.GroupID,
		TaskID:    notification.TaskID,
		Type:      notification.Type,
		Message:   notification.Message,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt,
	}
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(notifications []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		items[i] = ToNotificationDTO(n)
	}
	return items
}
