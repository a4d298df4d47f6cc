package models

import "time"

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	FirstName    string    `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName     string    `gorm:"type:varchar(100);not null" json:"lastName"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Memberships   []GroupMember  `gorm:"foreignKey:UserID" json:"-"`
	AssignedTasks []Task         `gorm:"foreignKey:AssignedTo" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}
