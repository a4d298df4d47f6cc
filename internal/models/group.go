package models

import "time"

type Group struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	AdminID     uint64    `gorm:"not null" json:"adminId"`
	InviteCode  string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"inviteCode"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Admin   User          `gorm:"foreignKey:AdminID" json:"-"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Tasks   []Task        `gorm:"foreignKey:GroupID" json:"tasks,omitempty"`
}
