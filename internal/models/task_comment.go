package models

import "time"

// TaskComment is immutable once created; there is no edit or delete path.
type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null" json:"taskId"`
	UserID    uint64    `gorm:"not null" json:"userId"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
