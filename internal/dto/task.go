package dto

import (
	"time"

	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                       uint64              `json:"id"`
	Title                    string              `json:"title"`
	Description              string              `json:"description"`
	GroupID                  uint64              `json:"groupId"`
	AssignedBy               uint64              `json:"assignedBy"`
	AssignedTo               uint64              `json:"assignedTo"`
	Status                   models.TaskStatus   `json:"status"`
	DeliveryDate             string              `json:"delivery_date"`
	Priority                 models.TaskPriority `json:"priority"`
	CompletedAt              *time.Time          `json:"completedAt"`
	ExpiringNotificationSent bool                `json:"expiring_notification_sent"`
	CreatedAt                time.Time           `json:"created_at"`
	Assignee                 *UserDTO            `json:"assignee,omitempty"`
	Assigner                 *UserDTO            `json:"assigner,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"taskId"`
	UserID    uint64    `json:"userId"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	User      *UserDTO  `json:"user,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:                       task.ID,
		Title:                    task.Title,
		Description:              task.Description,
		GroupID:                  task.GroupID,
		AssignedBy:               task.AssignedBy,
		AssignedTo:               task.AssignedTo,
		Status:                   task.Status,
		DeliveryDate:             task.DeliveryDate.Format("2006-01-02"),
		Priority:                 task.Priority,
		CompletedAt:              task.CompletedAt,
		ExpiringNotificationSent: task.ExpiringNotificationSent,
		CreatedAt:                task.CreatedAt,
	}

	if task.Assignee.ID != 0 {
		assignee := ToUserDTO(task.Assignee)
		dto.Assignee = &assignee
	}
	if task.Assigner.ID != 0 {
		assigner := ToUserDTO(task.Assigner)
		dto.Assigner = &assigner
	}

	return dto
}

// ToTaskListResponse converts tasks and pagination data into a response
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}

// ToCommentDTO converts a TaskComment model to CommentDTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		Comment:   comment.Comment,
		CreatedAt: comment.CreatedAt,
	}

	if comment.User.ID != 0 {
		user := ToUserDTO(comment.User)
		dto.User = &user
	}

	return dto
}
