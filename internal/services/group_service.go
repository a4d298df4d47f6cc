package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/getdone/api/internal/constants"
	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/repository"
	"github.com/getdone/api/internal/utils"
)

var (
	ErrGroupNotFound              = errors.New("group not found")
	ErrInvalidGroupName           = errors.New("group name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyGroupMember         = errors.New("user is already an active member of this group")
	ErrNotGroupAdmin              = errors.New("only the group admin can perform this action")
	ErrInvitationInvalid          = errors.New("invitation invalid or expired")
)

// GroupService provides business logic for group, membership, and
// invitation operations.
type GroupService struct {
	groupRepo      repository.GroupRepository
	invitationRepo repository.InvitationRepository
	userRepo       repository.UserRepository
	mailer         Mailer
	log            *logrus.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(groupRepo repository.GroupRepository, invitationRepo repository.InvitationRepository, userRepo repository.UserRepository, mailer Mailer, log *logrus.Logger) *GroupService {
	return &GroupService{
		groupRepo:      groupRepo,
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		log:            log,
	}
}

// IsGroupAdmin reports whether the user owns the group. It is the single
// authorization predicate for group administration.
func (s *GroupService) IsGroupAdmin(userID uint64, group *models.Group) bool {
	return group.AdminID == userID
}

// IsActiveMember reports whether the user is an active member of the group.
func (s *GroupService) IsActiveMember(groupID, userID uint64) (bool, error) {
	_, err := s.groupRepo.FindActiveMember(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify membership: %w", err)
	}
	return true, nil
}

// CreateGroupInput represents parameters to create a new group.
type CreateGroupInput struct {
	Name        string
	Description string
	AdminID     uint64
}

// CreateGroup creates a group with the creator as its admin member.
func (s *GroupService) CreateGroup(input CreateGroupInput) (*models.Group, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidGroupName
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	group := &models.Group{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		AdminID:     input.AdminID,
		InviteCode:  inviteCode,
	}

	member := &models.GroupMember{
		Role:     models.RoleAdmin,
		JoinedAt: time.Now(),
		IsActive: true,
	}

	if err := s.groupRepo.CreateWithAdmin(group, member); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

// JoinByInviteCode adds a user to a group via its permanent invite code.
func (s *GroupService) JoinByInviteCode(userID uint64, inviteCode string) (*models.GroupMember, error) {
	group, err := s.groupRepo.FindByInviteCode(inviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find group by invite code: %w", err)
	}

	return s.addOrReactivateMember(group.ID, userID)
}

// addOrReactivateMember creates a member-role membership, or flips an
// existing inactive row back to active. The (group, user) composite key
// keeps membership unique either way.
func (s *GroupService) addOrReactivateMember(groupID, userID uint64) (*models.GroupMember, error) {
	existing, err := s.groupRepo.FindMember(groupID, userID)
	if err == nil {
		if existing.IsActive {
			return nil, ErrAlreadyGroupMember
		}

		existing.IsActive = true
		existing.Role = models.RoleMember
		existing.JoinedAt = time.Now()
		if err := s.groupRepo.UpdateMember(existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate member: %w", err)
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
		IsActive: true,
	}

	if err := s.groupRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// ListGroupsForUser returns the groups the user actively belongs to.
func (s *GroupService) ListGroupsForUser(userID uint64) ([]models.GroupMember, error) {
	memberships, err := s.groupRepo.ListMembershipsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return memberships, nil
}

// GetGroupWithRole returns a group along with the caller's role in it.
// Role is empty when the caller is not a member.
func (s *GroupService) GetGroupWithRole(groupID, userID uint64) (*models.Group, models.GroupRole, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrGroupNotFound
		}
		return nil, "", fmt.Errorf("failed to find group: %w", err)
	}

	member, err := s.groupRepo.FindMember(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return group, "", nil
		}
		return nil, "", fmt.Errorf("failed to find membership: %w", err)
	}

	return group, member.Role, nil
}

// ListMembers returns a group's active members. Only the group admin may
// see the member list.
func (s *GroupService) ListMembers(groupID, callerID uint64) ([]models.GroupMember, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	if !s.IsGroupAdmin(callerID, group) {
		return nil, ErrNotGroupAdmin
	}

	members, err := s.groupRepo.ListActiveMembers(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	return members, nil
}

// InviteInput represents parameters to invite a user by email.
type InviteInput struct {
	GroupID   uint64
	Email     string
	InvitedBy uint64
}

// Invite creates a single-use, 7-day invitation and emails its token to
// the invitee. Only the group admin may invite.
func (s *GroupService) Invite(input InviteInput) (*models.Invitation, error) {
	group, err := s.groupRepo.FindByID(input.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	if !s.IsGroupAdmin(input.InvitedBy, group) {
		return nil, ErrNotGroupAdmin
	}

	invitation := &models.Invitation{
		GroupID:   group.ID,
		InvitedBy: input.InvitedBy,
		Email:     NormalizeEmail(input.Email),
		Status:    models.InvitationPending,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(constants.InvitationTTLDays * 24 * time.Hour),
	}

	if err := s.invitationRepo.Create(invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	subject := fmt.Sprintf("You have been invited to join %s on GetDone", group.Name)
	body := fmt.Sprintf("Use this invitation token to join the group %q: %s\nThe invitation expires in %d days.",
		group.Name, invitation.Token, constants.InvitationTTLDays)
	html := fmt.Sprintf("<p>Use this invitation token to join the group <strong>%s</strong>:</p><p><code>%s</code></p>",
		group.Name, invitation.Token)
	if err := s.mailer.Send(invitation.Email, subject, body, html); err != nil {
		s.log.WithError(err).WithField("group_id", group.ID).Error("failed to send invitation email")
	}

	return invitation, nil
}

// AcceptInvitation redeems an invitation token, making the caller an
// active member. The token is single-use: redemption flips the status.
func (s *GroupService) AcceptInvitation(userID uint64, token string) (*models.GroupMember, error) {
	invitation, err := s.invitationRepo.FindPendingByToken(token, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationInvalid
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	member, err := s.addOrReactivateMember(invitation.GroupID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invitation.Status = models.InvitationAccepted
	invitation.AcceptedAt = &now
	if err := s.invitationRepo.Update(invitation); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	return member, nil
}

// SearchGroups finds up to ten of the caller's groups by name.
func (s *GroupService) SearchGroups(userID uint64, query string) ([]models.Group, error) {
	groups, err := s.groupRepo.SearchByName(userID, query, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to search groups: %w", err)
	}
	return groups, nil
}
