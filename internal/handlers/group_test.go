package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/getdone/api/internal/auth"
	"github.com/getdone/api/internal/middleware"
	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/repository"
	"github.com/getdone/api/internal/services"
)

type groupTestEnv struct {
	db           *gorm.DB
	handler      *GroupHandler
	groupService *services.GroupService
	authService  *services.AuthService
	mailer       *fakeMailer
	router       *gin.Engine
}

func setupGroupTestEnv(t *testing.T) groupTestEnv {
	t.Helper()

	db := openTestDB(t)
	auth.Configure("test-secret", 10*time.Minute)

	log := logrus.New()
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	mailer := &fakeMailer{}
	authService := services.NewAuthService(userRepo)
	groupService := services.NewGroupService(groupRepo, invitationRepo, userRepo, mailer, log)
	handler := NewGroupHandler(groupService)

	r := gin.New()
	groups := r.Group("/api/groups")
	groups.Use(middleware.RequireAuth())
	{
		groups.POST("", handler.CreateGroup)
		groups.GET("", handler.ListGroups)
		groups.POST("/join", handler.JoinGroup)
		groups.POST("/invite", handler.InviteUser)
		groups.POST("/accept", handler.AcceptInvitation)
		groups.GET("/search", handler.SearchGroups)
		groups.GET("/:id", handler.GetGroup)
		groups.GET("/:id/members", handler.GetGroupMembers)
	}

	return groupTestEnv{
		db:           db,
		handler:      handler,
		groupService: groupService,
		authService:  authService,
		mailer:       mailer,
		router:       r,
	}
}

func createTestGroup(t *testing.T, groupService *services.GroupService, adminID uint64, name string) *models.Group {
	t.Helper()

	group, err := groupService.CreateGroup(services.CreateGroupInput{
		Name:    name,
		AdminID: adminID,
	})
	require.NoError(t, err)
	return group
}

func TestGroupHandler_CreateGroup(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")

	w := postJSON(t, env.router, "/api/groups", map[string]string{
		"name":        "Household",
		"description": "Chores and errands",
	}, tokenFor(t, admin))

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Group struct {
			ID         uint64 `json:"id"`
			InviteCode string `json:"inviteCode"`
		} `json:"group"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), response.Group.InviteCode)

	// The creator is stored as an active admin member.
	var member models.GroupMember
	require.NoError(t, env.db.Where("group_id = ? AND user_id = ?", response.Group.ID, admin.ID).First(&member).Error)
	require.Equal(t, models.RoleAdmin, member.Role)
	require.True(t, member.IsActive)
}

func TestGroupHandler_JoinGroup(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	joiner := registerTestUser(t, env.authService, "joiner@example.com")
	group := createTestGroup(t, env.groupService, admin.ID, "Household")

	w := postJSON(t, env.router, "/api/groups/join", map[string]string{
		"inviteCode": group.InviteCode,
	}, tokenFor(t, joiner))

	require.Equal(t, http.StatusOK, w.Code)

	var member models.GroupMember
	require.NoError(t, env.db.Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).First(&member).Error)
	require.Equal(t, models.RoleMember, member.Role)
}

func TestGroupHandler_JoinGroup_AlreadyMember(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	group := createTestGroup(t, env.groupService, admin.ID, "Household")

	w := postJSON(t, env.router, "/api/groups/join", map[string]string{
		"inviteCode": group.InviteCode,
	}, tokenFor(t, admin))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, admin.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGroupHandler_JoinGroup_RejoinAfterLeaving(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	joiner := registerTestUser(t, env.authService, "joiner@example.com")
	group := createTestGroup(t, env.groupService, admin.ID, "Household")

	w := postJSON(t, env.router, "/api/groups/join", map[string]string{
		"inviteCode": group.InviteCode,
	}, tokenFor(t, joiner))
	require.Equal(t, http.StatusOK, w.Code)

	// A deactivated membership row stays behind; joining again must
	// revive it instead of inserting a second row for the same pair.
	require.NoError(t, env.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).
		Update("is_active", false).Error)

	w = postJSON(t, env.router, "/api/groups/join", map[string]string{
		"inviteCode": group.InviteCode,
	}, tokenFor(t, joiner))
	require.Equal(t, http.StatusOK, w.Code)

	var members []models.GroupMember
	require.NoError(t, env.db.
		Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).Find(&members).Error)
	require.Len(t, members, 1)
	require.True(t, members[0].IsActive)
	require.Equal(t, models.RoleMember, members[0].Role)
}

func TestGroupHandler_JoinGroup_InvalidCode(t *testing.T) {
	env := setupGroupTestEnv(t)
	joiner := registerTestUser(t, env.authService, "joiner@example.com")

	w := postJSON(t, env.router, "/api/groups/join", map[string]string{
		"inviteCode": "deadbeef",
	}, tokenFor(t, joiner))

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupHandler_InviteAndAccept(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	invitee := registerTestUser(t, env.authService, "invitee@example.com")
	group := createTestGroup(t, env.groupService, admin.ID, "Household")

	w := postJSON(t, env.router, "/api/groups/invite", map[string]any{
		"groupId": group.ID,
		"email":   "invitee@example.com",
	}, tokenFor(t, admin))
	require.Equal(t, http.StatusCreated, w.Code)

	// The token travels by email.
	sent := env.mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "invitee@example.com", sent[0].To)

	var invitation models.Invitation
	require.NoError(t, env.db.Where("group_id = ?", group.ID).First(&invitation).Error)
	require.Equal(t, models.InvitationPending, invitation.Status)

	w = postJSON(t, env.router, "/api/groups/accept", map[string]string{
		"token": invitation.Token,
	}, tokenFor(t, invitee))
	require.Equal(t, http.StatusOK, w.Code)

	var member models.GroupMember
	require.NoError(t, env.db.Where("group_id = ? AND user_id = ?", group.ID, invitee.ID).First(&member).Error)
	require.Equal(t, models.RoleMember, member.Role)

	// Redemption is single-use.
	require.NoError(t, env.db.First(&invitation, invitation.ID).Error)
	require.Equal(t, models.InvitationAccepted, invitation.Status)
	require.NotNil(t, invitation.AcceptedAt)

	w = postJSON(t, env.router, "/api/groups/accept", map[string]string{
		"token": invitation.Token,
	}, tokenFor(t, invitee))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupHandler_Invite_NonAdmin(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	member := registerTestUser(t, env.authService, "member@example.com")
	group := createTestGroup(t, env.groupService, admin.ID, "Household")

	_, err := env.groupService.JoinByInviteCode(member.ID, group.InviteCode)
	require.NoError(t, err)

	w := postJSON(t, env.router, "/api/groups/invite", map[string]any{
		"groupId": group.ID,
		"email":   "someone@example.com",
	}, tokenFor(t, member))

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGroupHandler_Accept_ExpiredInvitation(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	invitee := registerTestUser(t, env.authService, "invitee@example.com")
	group := createTestGroup(t, env.groupService, admin.ID, "Household")

	invitation, err := env.groupService.Invite(services.InviteInput{
		GroupID:   group.ID,
		Email:     "invitee@example.com",
		InvitedBy: admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	w := postJSON(t, env.router, "/api/groups/accept", map[string]string{
		"token": invitation.Token,
	}, tokenFor(t, invitee))

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupHandler_GetGroupMembers_AdminOnly(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	member := registerTestUser(t, env.authService, "member@example.com")
	group := createTestGroup(t, env.groupService, admin.ID, "Household")

	_, err := env.groupService.JoinByInviteCode(member.ID, group.InviteCode)
	require.NoError(t, err)

	path := fmt.Sprintf("/api/groups/%d/members", group.ID)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, member))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, admin))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Members []struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Members, 2)
}

func TestGroupHandler_SearchGroups(t *testing.T) {
	env := setupGroupTestEnv(t)
	admin := registerTestUser(t, env.authService, "admin@example.com")
	createTestGroup(t, env.groupService, admin.ID, "Household")
	createTestGroup(t, env.groupService, admin.ID, "Work Projects")

	req := httptest.NewRequest(http.MethodGet, "/api/groups/search?query=house", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, admin))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Groups []struct {
			Name string `json:"name"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Groups, 1)
	require.Equal(t, "Household", response.Groups[0].Name)
}
