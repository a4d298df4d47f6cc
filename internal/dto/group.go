package dto

import (
	"time"

	"github.com/getdone/api/internal/models"
)

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AdminID     uint64 `json:"adminId"`
	InviteCode  string `json:"inviteCode,omitempty"`
}

// GroupWithRoleDTO represents a group with the caller's role
type GroupWithRoleDTO struct {
	GroupDTO
	Role models.GroupRole `json:"role"`
}

// GroupMemberDTO represents a member in a group member listing
type GroupMemberDTO struct {
	UserID   uint64           `json:"userId"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Role     models.GroupRole `json:"role"`
	JoinedAt time.Time        `json:"joinedAt"`
}

// InvitationDTO represents an invitation in API responses
type InvitationDTO struct {
	ID        uint64                  `json:"id"`
	GroupID   uint64                  `json:"groupId"`
	Email     string                  `json:"email"`
	Status    models.InvitationStatus `json:"status"`
	Token     string                  `json:"token"`
	ExpiresAt time.Time               `json:"expiresAt"`
}

// ToGroupDTO converts a Group model to GroupDTO
func ToGroupDTO(group models.Group, includeInviteCode bool) GroupDTO {
	dto := GroupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		AdminID:     group.AdminID,
	}
	if includeInviteCode {
		dto.InviteCode = group.InviteCode
	}
	return dto
}

// ToGroupWithRoleDTO converts a group to a DTO carrying the caller's
// role. The invite code is only exposed to the group admin.
func ToGroupWithRoleDTO(group models.Group, role models.GroupRole, includeInviteCode bool) GroupWithRoleDTO {
	return GroupWithRoleDTO{
		GroupDTO: ToGroupDTO(group, includeInviteCode),
		Role:     role,
	}
}

// ToGroupMemberDTO converts a membership with a preloaded user
func ToGroupMemberDTO(member models.GroupMember) GroupMemberDTO {
	return GroupMemberDTO{
		UserID:   member.User.ID,
		Name:     member.User.FirstName + " " + member.User.LastName,
		Email:    member.User.Email,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToGroupMemberDTOs converts memberships with preloaded users
func ToGroupMemberDTOs(members []models.GroupMember) []GroupMemberDTO {
	dtos := make([]GroupMemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, ToGroupMemberDTO(m))
	}
	return dtos
}

// ToInvitationDTO converts an Invitation model to InvitationDTO
func ToInvitationDTO(invitation models.Invitation) InvitationDTO {
	return InvitationDTO{
		ID:        invitation.ID,
		GroupID:   invitation.GroupID,
		Email:     invitation.Email,
		Status:    invitation.Status,
		Token:     invitation.Token,
		ExpiresAt: invitation.ExpiresAt,
	}
}
