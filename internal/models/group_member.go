package models

import "time"

type GroupRole string

const (
	RoleAdmin  GroupRole = "admin"
	RoleMember GroupRole = "member"
)

// GroupMember is the membership join row. The composite primary key makes a
// (group, user) pair unique regardless of repeated join attempts.
type GroupMember struct {
	GroupID  uint64    `gorm:"primarykey" json:"groupId"`
	UserID   uint64    `gorm:"primarykey" json:"userId"`
	Role     GroupRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
	IsActive bool      `gorm:"not null;default:true" json:"isActive"`

	// Relations
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
