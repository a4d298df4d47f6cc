package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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

type notificationTestEnv struct {
	db          *gorm.DB
	authService *services.AuthService
	router      *gin.Engine
	user        *models.User
	other       *models.User
}

func setupNotificationTestEnv(t *testing.T) notificationTestEnv {
	t.Helper()

	db := openTestDB(t)
	auth.Configure("test-secret", 10*time.Minute)

	log := logrus.New()
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	mailer := &fakeMailer{}
	authService := services.NewAuthService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, mailer, log)
	handler := NewNotificationHandler(notificationService)

	r := gin.New()
	notifications := r.Group("/api/notifications")
	notifications.Use(middleware.RequireAuth())
	{
		notifications.GET("", handler.List)
		notifications.POST("/markasread", handler.MarkAllRead)
		notifications.PUT("/:id/read", handler.MarkRead)
		notifications.DELETE("/deleteall", handler.DeleteAll)
	}

	user := registerTestUser(t, authService, "ana@example.com")
	other, err := authService.Register(services.RegisterInput{
		FirstName: "Luis",
		LastName:  "Garcia",
		Email:     "luis@example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)

	return notificationTestEnv{
		db:          db,
		authService: authService,
		router:      r,
		user:        user,
		other:       other,
	}
}

func (env notificationTestEnv) seedNotification(t *testing.T, userID uint64, message string) *models.Notification {
	t.Helper()

	notification := &models.Notification{
		UserID:  userID,
		Type:    models.NotificationAssignment,
		Message: message,
	}
	require.NoError(t, env.db.Create(notification).Error)
	return notification
}

func TestNotificationHandler_List(t *testing.T) {
	env := setupNotificationTestEnv(t)
	env.seedNotification(t, env.user.ID, "first")
	env.seedNotification(t, env.user.ID, "second")
	env.seedNotification(t, env.other.ID, "not yours")

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.user))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Notifications []struct {
			Message string `json:"message"`
			IsRead  bool   `json:"isRead"`
		} `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Notifications, 2)
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	env := setupNotificationTestEnv(t)
	env.seedNotification(t, env.user.ID, "first")
	env.seedNotification(t, env.user.ID, "second")
	env.seedNotification(t, env.other.ID, "not yours")

	w := postJSON(t, env.router, "/api/notifications/markasread", nil, tokenFor(t, env.user))
	require.Equal(t, http.StatusOK, w.Code)

	var unread int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", env.user.ID, false).Count(&unread).Error)
	require.EqualValues(t, 0, unread)

	// Other users' notifications are untouched.
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", env.other.ID, false).Count(&unread).Error)
	require.EqualValues(t, 1, unread)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	env := setupNotificationTestEnv(t)
	mine := env.seedNotification(t, env.user.ID, "mine")

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", mine.ID), nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.user))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Notification
	require.NoError(t, env.db.First(&stored, mine.ID).Error)
	require.True(t, stored.IsRead)
}

func TestNotificationHandler_MarkRead_ForeignNotification(t *testing.T) {
	env := setupNotificationTestEnv(t)
	foreign := env.seedNotification(t, env.other.ID, "not yours")

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", foreign.ID), nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.user))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	var stored models.Notification
	require.NoError(t, env.db.First(&stored, foreign.ID).Error)
	require.False(t, stored.IsRead)
}

func TestNotificationHandler_DeleteAll(t *testing.T) {
	env := setupNotificationTestEnv(t)
	env.seedNotification(t, env.user.ID, "first")
	env.seedNotification(t, env.user.ID, "second")
	env.seedNotification(t, env.other.ID, "not yours")

	req := httptest.NewRequest(http.MethodDelete, "/api/notifications/deleteall", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.user))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("user_id = ?", env.user.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)

	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("user_id = ?", env.other.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
