package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/getdone/api/internal/dto"
	apierrors "github.com/getdone/api/internal/errors"
	"github.com/getdone/api/internal/middleware"
	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/services"
)

// GroupHandler coordinates group and invitation endpoints.
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup creates a group with the caller as admin and returns the
// generated invite code.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateGroupRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Group name is required")
		return
	}

	group, err := h.groupService.CreateGroup(services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		AdminID:     userID,
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Group created successfully",
		"group":   dto.ToGroupDTO(*group, true),
	})
}

// JoinGroup adds the caller to the group behind an invite code.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"inviteCode" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "inviteCode is required")
		return
	}

	member, err := h.groupService.JoinByInviteCode(userID, req.InviteCode)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Joined group successfully",
		"groupId": member.GroupID,
		"role":    member.Role,
	})
}

// ListGroups returns every group the caller belongs to, with their role
// in each.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.groupService.ListGroupsForUser(userID)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	groups := make([]dto.GroupWithRoleDTO, 0, len(memberships))
	for _, m := range memberships {
		groups = append(groups, dto.ToGroupWithRoleDTO(m.Group, m.Role, m.Role == models.RoleAdmin))
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroup returns one group with the caller's role. Members see the
// invite code only when they are the admin.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	groupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid group id")
		return
	}

	group, role, err := h.groupService.GetGroupWithRole(groupID, userID)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	// Non-members get a null role and never see the invite code.
	var roleValue any
	if role != "" {
		roleValue = role
	}

	c.JSON(http.StatusOK, gin.H{
		"group": dto.ToGroupDTO(*group, role == models.RoleAdmin),
		"role":  roleValue,
	})
}

// GetGroupMembers lists a group's active members. Admin only.
func (h *GroupHandler) GetGroupMembers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	groupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid group id")
		return
	}

	members, err := h.groupService.ListMembers(groupID, userID)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToGroupMemberDTOs(members)})
}

// InviteUser emails an invitation token for the group. Admin only.
func (h *GroupHandler) InviteUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type InviteRequest struct {
		GroupID uint64 `json:"groupId" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "groupId and a valid email are required")
		return
	}

	invitation, err := h.groupService.Invite(services.InviteInput{
		GroupID:   req.GroupID,
		Email:     req.Email,
		InvitedBy: userID,
	})
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Invitation sent",
		"invitation": dto.ToInvitationDTO(*invitation),
	})
}

// AcceptInvitation redeems an invitation token for the caller.
func (h *GroupHandler) AcceptInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type AcceptRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "token is required")
		return
	}

	member, err := h.groupService.AcceptInvitation(userID, req.Token)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation accepted",
		"groupId": member.GroupID,
		"role":    member.Role,
	})
}

// SearchGroups finds the caller's groups by name.
func (h *GroupHandler) SearchGroups(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	groups, err := h.groupService.SearchGroups(userID, c.Query("query"))
	if err != nil {
		respondGroupError(c, err)
		return
	}

	results := make([]dto.GroupDTO, 0, len(groups))
	for _, g := range groups {
		results = append(results, dto.ToGroupDTO(g, false))
	}

	c.JSON(http.StatusOK, gin.H{"groups": results})
}

func respondGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidGroupName):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrInvitationInvalid):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyGroupMember):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotGroupAdmin):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
