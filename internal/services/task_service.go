package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/repository"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotGroupMember       = errors.New("you are not a member of this group")
	ErrTaskPermissionDenied = errors.New("you do not have permission to modify this task")
	ErrAssigneeNotMember    = errors.New("assignee is not an active member of the group")
	ErrInvalidPriority      = errors.New("priority must be Alta, Media or Baja")
	ErrTitleRequired        = errors.New("title is required")
	ErrInvalidStatus        = errors.New("status must be pending or completed")
	ErrCommentRequired      = errors.New("comment text is required")
)

// TaskService provides business logic for task operations.
type TaskService struct {
	taskRepo  repository.TaskRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	notifier  *NotificationService
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, groupRepo repository.GroupRepository, userRepo repository.UserRepository, notifier *NotificationService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
		notifier:  notifier,
	}
}

// canAdministerTasks is the single predicate for task mutation rights:
// the caller must hold an active admin membership in the group.
func (s *TaskService) canAdministerTasks(groupID, userID uint64) error {
	member, err := s.groupRepo.FindActiveMember(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskPermissionDenied
		}
		return fmt.Errorf("failed to verify membership: %w", err)
	}
	if member.Role != models.RoleAdmin {
		return ErrTaskPermissionDenied
	}
	return nil
}

// ensureActiveMember is the predicate for read/comment/complete rights.
func (s *TaskService) ensureActiveMember(groupID, userID uint64) error {
	_, err := s.groupRepo.FindActiveMember(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotGroupMember
		}
		return fmt.Errorf("failed to verify membership: %w", err)
	}
	return nil
}

// CreateTaskInput represents the parameters to create a task.
type CreateTaskInput struct {
	Title        string
	Description  string
	GroupID      uint64
	AssignedBy   uint64
	AssignedTo   uint64
	DeliveryDate time.Time
	Priority     models.TaskPriority
}

// CreateTask creates a task and dispatches the assignment notification.
// Only an admin member of the group may create tasks, and the assignee
// must be an active member.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !models.ValidPriority(input.Priority) {
		return nil, ErrInvalidPriority
	}

	if err := s.canAdministerTasks(input.GroupID, input.AssignedBy); err != nil {
		return nil, err
	}

	if _, err := s.groupRepo.FindActiveMember(input.GroupID, input.AssignedTo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotMember
		}
		return nil, fmt.Errorf("failed to verify assignee membership: %w", err)
	}

	task := &models.Task{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		GroupID:      input.GroupID,
		AssignedBy:   input.AssignedBy,
		AssignedTo:   input.AssignedTo,
		Status:       models.TaskStatusPending,
		DeliveryDate: input.DeliveryDate,
		Priority:     input.Priority,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if assignee, err := s.userRepo.FindByID(task.AssignedTo); err == nil {
		s.notifier.TaskAssigned(task, assignee)
	}

	return task, nil
}

// GetTask returns a task the caller may see. Non-members get a not-found
// to avoid leaking task existence.
func (s *TaskService) GetTask(taskID, callerID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignee", "Assigner")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureActiveMember(task.GroupID, callerID); err != nil {
		if errors.Is(err, ErrNotGroupMember) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

// ListTasksInput holds the task list filters.
type ListTasksInput struct {
	CallerID   uint64
	GroupID    *uint64
	AssignedTo *uint64
	TitleQuery string
	OrderBy    string
	Page       int
	Limit      int
}

// ListTasks returns tasks within the caller's groups, filtered and
// paginated.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	groupIDs, err := s.resolveAccessibleGroupIDs(input.CallerID, input.GroupID)
	if err != nil {
		return nil, 0, err
	}

	return s.taskRepo.List(repository.TaskFilter{
		GroupIDs:   groupIDs,
		GroupID:    input.GroupID,
		AssignedTo: input.AssignedTo,
		TitleQuery: input.TitleQuery,
		OrderBy:    input.OrderBy,
		Page:       input.Page,
		Limit:      input.Limit,
	})
}

// UpdateTaskInput holds the editable task fields. Nil means unchanged.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	DeliveryDate *time.Time
	Priority     *models.TaskPriority
	AssignedTo   *uint64
	Status       *models.TaskStatus
}

// UpdateTask edits a task. Only an admin member of the task's group may
// edit. A due-date change dispatches a date_changed notification and
// re-arms the expiring notification; re-opening clears completedAt.
func (s *TaskService) UpdateTask(taskID, callerID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.canAdministerTasks(task.GroupID, callerID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !models.ValidPriority(*input.Priority) {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.AssignedTo != nil && *input.AssignedTo != task.AssignedTo {
		if _, err := s.groupRepo.FindActiveMember(task.GroupID, *input.AssignedTo); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotMember
			}
			return nil, fmt.Errorf("failed to verify assignee membership: %w", err)
		}
		task.AssignedTo = *input.AssignedTo
	}

	dateChanged := false
	if input.DeliveryDate != nil && !sameDate(*input.DeliveryDate, task.DeliveryDate) {
		task.DeliveryDate = *input.DeliveryDate
		task.ExpiringNotificationSent = false
		dateChanged = true
		// The expiring-soon flag only holds while the due date is at most
		// a day away; a moved date goes back to pending and lets the
		// sweeper re-evaluate against the new date.
		if task.Status == models.TaskStatusExpiringSoon {
			task.Status = models.TaskStatusPending
		}
	}

	if input.Status != nil && *input.Status != task.Status {
		switch *input.Status {
		case models.TaskStatusCompleted:
			now := time.Now()
			task.Status = models.TaskStatusCompleted
			task.CompletedAt = &now
		case models.TaskStatusPending:
			// Re-open: completedAt is cleared in lockstep.
			task.Status = models.TaskStatusPending
			task.CompletedAt = nil
		default:
			// expiring-soon is owned by the sweeper and cannot be set
			// through the API.
			return nil, ErrInvalidStatus
		}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if dateChanged {
		if assignee, err := s.userRepo.FindByID(task.AssignedTo); err == nil {
			s.notifier.DueDateChanged(task, assignee)
		}
	}

	return task, nil
}

// CompleteTask marks a task completed. Any active member of the task's
// group may complete it.
func (s *TaskService) CompleteTask(taskID, callerID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureActiveMember(task.GroupID, callerID); err != nil {
		return nil, err
	}

	now := time.Now()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	return task, nil
}

// DeleteTask removes a task and its comments. Admin only.
func (s *TaskService) DeleteTask(taskID, callerID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.canAdministerTasks(task.GroupID, callerID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AddComment creates a comment on a task. Any active member may comment;
// comments are immutable afterwards.
func (s *TaskService) AddComment(taskID, callerID uint64, text string) (*models.TaskComment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentRequired
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureActiveMember(task.GroupID, callerID); err != nil {
		return nil, err
	}

	comment := &models.TaskComment{
		TaskID:  taskID,
		UserID:  callerID,
		Comment: text,
	}

	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return comment, nil
}

// ListComments returns a task's comments oldest first.
func (s *TaskService) ListComments(taskID, callerID uint64) ([]models.TaskComment, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureActiveMember(task.GroupID, callerID); err != nil {
		return nil, err
	}

	return s.taskRepo.ListComments(taskID)
}

// resolveAccessibleGroupIDs returns the group IDs the caller can read
// tasks from. When a specific group is requested, membership is required.
func (s *TaskService) resolveAccessibleGroupIDs(callerID uint64, groupID *uint64) ([]uint64, error) {
	if groupID != nil {
		if err := s.ensureActiveMember(*groupID, callerID); err != nil {
			return nil, err
		}
		return []uint64{*groupID}, nil
	}

	memberships, err := s.groupRepo.ListMembershipsForUser(callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch group memberships: %w", err)
	}

	groupIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}

	return groupIDs, nil
}

// sameDate compares two timestamps by calendar day, ignoring time of day.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
