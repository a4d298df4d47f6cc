package models

import "time"

type NotificationType string

const (
	NotificationAssignment  NotificationType = "assignment"
	NotificationDateChanged NotificationType = "date_changed"
	NotificationExpiring    NotificationType = "expiring"
)

type Notification struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	UserID    uint64           `gorm:"not null;index" json:"userId"`
	GroupID   *uint64          `json:"groupId"`
	TaskID    *uint64          `json:"taskId"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message   string           `gorm:"type:varchar(512);not null" json:"message"`
	IsRead    bool             `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time        `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
