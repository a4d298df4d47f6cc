package handlers

import (
	"bytes"
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

type taskTestEnv struct {
	db           *gorm.DB
	taskService  *services.TaskService
	groupService *services.GroupService
	authService  *services.AuthService
	mailer       *fakeMailer
	router       *gin.Engine

	admin  *models.User
	member *models.User
	group  *models.Group
}

func setupTaskTestEnv(t *testing.T) taskTestEnv {
	t.Helper()

	db := openTestDB(t)
	auth.Configure("test-secret", 10*time.Minute)

	log := logrus.New()
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	mailer := &fakeMailer{}
	notificationService := services.NewNotificationService(notificationRepo, mailer, log)
	authService := services.NewAuthService(userRepo)
	groupService := services.NewGroupService(groupRepo, invitationRepo, userRepo, mailer, log)
	taskService := services.NewTaskService(taskRepo, groupRepo, userRepo, notificationService)
	handler := NewTaskHandler(taskService)

	r := gin.New()
	tasks := r.Group("/api/tasks")
	tasks.Use(middleware.RequireAuth())
	{
		tasks.POST("", handler.CreateTask)
		tasks.GET("", handler.ListTasks)
		tasks.GET("/search", handler.SearchTasks)
		tasks.GET("/:id", handler.GetTask)
		tasks.PUT("/:id", handler.UpdateTask)
		tasks.PATCH("/:id/complete", handler.CompleteTask)
		tasks.DELETE("/:id", handler.DeleteTask)
		tasks.POST("/:id/comments", handler.AddComment)
		tasks.GET("/:id/comments", handler.ListComments)
	}

	admin := registerTestUser(t, authService, "admin@example.com")
	member, err := authService.Register(services.RegisterInput{
		FirstName: "Luis",
		LastName:  "Garcia",
		Email:     "member@example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)

	group := createTestGroup(t, groupService, admin.ID, "Household")
	_, err = groupService.JoinByInviteCode(member.ID, group.InviteCode)
	require.NoError(t, err)

	return taskTestEnv{
		db:           db,
		taskService:  taskService,
		groupService: groupService,
		authService:  authService,
		mailer:       mailer,
		router:       r,
		admin:        admin,
		member:       member,
		group:        group,
	}
}

func (env taskTestEnv) createTask(t *testing.T, assignedTo uint64, title string) *models.Task {
	t.Helper()

	task, err := env.taskService.CreateTask(services.CreateTaskInput{
		Title:        title,
		GroupID:      env.group.ID,
		AssignedBy:   env.admin.ID,
		AssignedTo:   assignedTo,
		DeliveryDate: time.Now().AddDate(0, 0, 14),
		Priority:     models.PriorityMedium,
	})
	require.NoError(t, err)
	return task
}

func TestTaskHandler_CreateTask(t *testing.T) {
	env := setupTaskTestEnv(t)

	w := postJSON(t, env.router, "/api/tasks", map[string]any{
		"title":         "Buy groceries",
		"description":   "Milk and bread",
		"groupId":       env.group.ID,
		"assignedTo":    env.member.ID,
		"delivery_date": "2026-09-15",
		"priority":      "Alta",
	}, tokenFor(t, env.admin))

	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.Where("title = ?", "Buy groceries").First(&task).Error)
	require.Equal(t, models.TaskStatusPending, task.Status)
	require.Equal(t, models.PriorityHigh, task.Priority)
	require.Equal(t, env.member.ID, task.AssignedTo)

	// Assignment creates an in-app notification for the assignee.
	var notification models.Notification
	require.NoError(t, env.db.Where("user_id = ?", env.member.ID).First(&notification).Error)
	require.Equal(t, models.NotificationAssignment, notification.Type)
	require.False(t, notification.IsRead)
}

func TestTaskHandler_CreateTask_NonAdmin(t *testing.T) {
	env := setupTaskTestEnv(t)

	w := postJSON(t, env.router, "/api/tasks", map[string]any{
		"title":         "Buy groceries",
		"groupId":       env.group.ID,
		"assignedTo":    env.member.ID,
		"delivery_date": "2026-09-15",
		"priority":      "Alta",
	}, tokenFor(t, env.member))

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskHandler_CreateTask_InvalidPriority(t *testing.T) {
	env := setupTaskTestEnv(t)

	w := postJSON(t, env.router, "/api/tasks", map[string]any{
		"title":         "Buy groceries",
		"groupId":       env.group.ID,
		"assignedTo":    env.member.ID,
		"delivery_date": "2026-09-15",
		"priority":      "Urgent",
	}, tokenFor(t, env.admin))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_CreateTask_AssigneeNotMember(t *testing.T) {
	env := setupTaskTestEnv(t)
	outsider := registerTestUser(t, env.authService, "outsider@example.com")

	w := postJSON(t, env.router, "/api/tasks", map[string]any{
		"title":         "Buy groceries",
		"groupId":       env.group.ID,
		"assignedTo":    outsider.ID,
		"delivery_date": "2026-09-15",
		"priority":      "Baja",
	}, tokenFor(t, env.admin))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_GetTask_NonMember(t *testing.T) {
	env := setupTaskTestEnv(t)
	outsider := registerTestUser(t, env.authService, "outsider@example.com")
	task := env.createTask(t, env.member.ID, "Buy groceries")

	// Non-members get a 404, not a 403, so task existence is not leaked.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, outsider))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_CompleteAndReopen(t *testing.T) {
	env := setupTaskTestEnv(t)
	task := env.createTask(t, env.member.ID, "Buy groceries")

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/tasks/%d/complete", task.ID), nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.member))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Task
	require.NoError(t, env.db.First(&stored, task.ID).Error)
	require.Equal(t, models.TaskStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	// Re-opening clears completedAt in lockstep with the status.
	body, err := json.Marshal(map[string]string{"status": "pending"})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.admin))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	stored = models.Task{}
	require.NoError(t, env.db.First(&stored, task.ID).Error)
	require.Equal(t, models.TaskStatusPending, stored.Status)
	require.Nil(t, stored.CompletedAt)
}

func TestTaskHandler_UpdateTask_DateChange(t *testing.T) {
	env := setupTaskTestEnv(t)
	task := env.createTask(t, env.member.ID, "Buy groceries")

	require.NoError(t, env.db.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Update("expiring_notification_sent", true).Error)

	body, err := json.Marshal(map[string]string{"delivery_date": "2026-10-01"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.admin))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A date change re-arms the expiring notification and records a
	// date_changed notification for the assignee.
	var stored models.Task
	require.NoError(t, env.db.First(&stored, task.ID).Error)
	require.False(t, stored.ExpiringNotificationSent)

	var count int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", env.member.ID, models.NotificationDateChanged).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestTaskHandler_UpdateTask_SameDateNoNotification(t *testing.T) {
	env := setupTaskTestEnv(t)
	task := env.createTask(t, env.member.ID, "Buy groceries")

	body, err := json.Marshal(map[string]string{
		"delivery_date": task.DeliveryDate.Format("2006-01-02"),
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.admin))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("type = ?", models.NotificationDateChanged).
		Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestTaskHandler_UpdateTask_SweeperOwnedStatus(t *testing.T) {
	env := setupTaskTestEnv(t)
	task := env.createTask(t, env.member.ID, "Buy groceries")

	body, err := json.Marshal(map[string]string{"status": "expiring-soon"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.admin))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_UpdateTask_BlankTitle(t *testing.T) {
	env := setupTaskTestEnv(t)
	task := env.createTask(t, env.member.ID, "Buy groceries")

	body, err := json.Marshal(map[string]string{"title": "   "})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.admin))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var stored models.Task
	require.NoError(t, env.db.First(&stored, task.ID).Error)
	require.Equal(t, "Buy groceries", stored.Title)
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	env := setupTaskTestEnv(t)
	task := env.createTask(t, env.member.ID, "Buy groceries")

	_, err := env.taskService.AddComment(task.ID, env.member.ID, "on it")
	require.NoError(t, err)

	// Members cannot delete.
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.member))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.admin))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
	require.NoError(t, env.db.Model(&models.TaskComment{}).Where("task_id = ?", task.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestTaskHandler_Comments(t *testing.T) {
	env := setupTaskTestEnv(t)
	task := env.createTask(t, env.member.ID, "Buy groceries")

	w := postJSON(t, env.router, fmt.Sprintf("/api/tasks/%d/comments", task.ID), map[string]string{
		"comment": "on it",
	}, tokenFor(t, env.member))
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, env.router, fmt.Sprintf("/api/tasks/%d/comments", task.ID), map[string]string{
		"comment": "   ",
	}, tokenFor(t, env.member))
	require.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/tasks/%d/comments", task.ID), nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.admin))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Comments []struct {
			Comment string `json:"comment"`
			UserID  uint64 `json:"userId"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Comments, 1)
	require.Equal(t, "on it", response.Comments[0].Comment)
	require.Equal(t, env.member.ID, response.Comments[0].UserID)
}

func TestTaskHandler_ListTasks_ScopedToGroups(t *testing.T) {
	env := setupTaskTestEnv(t)
	env.createTask(t, env.member.ID, "Buy groceries")
	env.createTask(t, env.admin.ID, "Pay bills")

	// A second group the caller does not belong to.
	other := registerTestUser(t, env.authService, "other@example.com")
	otherGroup := createTestGroup(t, env.groupService, other.ID, "Other")
	_, err := env.taskService.CreateTask(services.CreateTaskInput{
		Title:        "Hidden task",
		GroupID:      otherGroup.ID,
		AssignedBy:   other.ID,
		AssignedTo:   other.ID,
		DeliveryDate: time.Now().AddDate(0, 0, 7),
		Priority:     models.PriorityLow,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.member))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.EqualValues(t, 2, response.Pagination.Total)
	for _, task := range response.Tasks {
		require.NotEqual(t, "Hidden task", task.Title)
	}
}

func TestTaskHandler_SearchTasks(t *testing.T) {
	env := setupTaskTestEnv(t)
	env.createTask(t, env.member.ID, "Buy groceries")
	env.createTask(t, env.admin.ID, "Pay bills")

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/search?query=GROCER", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, env.member))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Tasks, 1)
	require.Equal(t, "Buy groceries", response.Tasks[0].Title)
}
