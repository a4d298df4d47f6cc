package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Invitation is a single-use, time-limited token sent to a specific email
// for joining a specific group.
type Invitation struct {
	ID         uint64           `gorm:"primarykey" json:"id"`
	GroupID    uint64           `gorm:"not null" json:"groupId"`
	InvitedBy  uint64           `gorm:"not null" json:"invitedBy"`
	Email      string           `gorm:"type:varchar(255);not null" json:"email"`
	Status     InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Token      string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	ExpiresAt  time.Time        `gorm:"not null" json:"expiresAt"`
	AcceptedAt *time.Time       `json:"acceptedAt"`
	CreatedAt  time.Time        `json:"created_at"`

	// Relations
	Group   Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Inviter User  `gorm:"foreignKey:InvitedBy" json:"-"`
}
