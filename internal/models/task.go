package models

import "time"

type TaskStatus string

const (
	TaskStatusPending      TaskStatus = "pending"
	TaskStatusCompleted    TaskStatus = "completed"
	TaskStatusExpiringSoon TaskStatus = "expiring-soon"
)

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "Alta"
	PriorityMedium TaskPriority = "Media"
	PriorityLow    TaskPriority = "Baja"
)

type Task struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	GroupID     uint64     `gorm:"not null" json:"groupId"`
	AssignedBy  uint64     `gorm:"not null" json:"assignedBy"`
	AssignedTo  uint64     `gorm:"not null" json:"assignedTo"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	// DeliveryDate is date-only; the time component is always midnight.
	DeliveryDate             time.Time    `gorm:"type:date;not null" json:"delivery_date"`
	Priority                 TaskPriority `gorm:"type:varchar(10);not null" json:"priority"`
	CompletedAt              *time.Time   `json:"completedAt"`
	ExpiringNotificationSent bool         `gorm:"not null;default:false" json:"expiring_notification_sent"`
	CreatedAt                time.Time    `json:"created_at"`
	UpdatedAt                time.Time    `json:"updated_at"`

	// Relations
	Group    Group         `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Assigner User          `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
	Assignee User          `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Comments []TaskComment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

// ValidPriority reports whether p is one of the accepted priority levels.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
