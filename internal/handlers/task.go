package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/getdone/api/internal/dto"
	apierrors "github.com/getdone/api/internal/errors"
	"github.com/getdone/api/internal/middleware"
	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/services"
	"github.com/getdone/api/internal/utils"
)

const dateLayout = "2006-01-02"

// TaskHandler coordinates task and comment endpoints.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask creates a task in a group. Admin only; the assignee must
// be an active member of the same group.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title        string `json:"title" binding:"required"`
		Description  string `json:"description"`
		GroupID      uint64 `json:"groupId" binding:"required"`
		AssignedTo   uint64 `json:"assignedTo" binding:"required"`
		DeliveryDate string `json:"delivery_date" binding:"required"`
		Priority     string `json:"priority" binding:"required"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "title, groupId, assignedTo, delivery_date and priority are required")
		return
	}

	deliveryDate, err := time.Parse(dateLayout, req.DeliveryDate)
	if err != nil {
		apierrors.BadRequest(c, "delivery_date must be in YYYY-MM-DD format")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		GroupID:      req.GroupID,
		AssignedBy:   userID,
		AssignedTo:   req.AssignedTo,
		DeliveryDate: deliveryDate,
		Priority:     models.TaskPriority(req.Priority),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// ListTasks returns tasks across the caller's groups, filtered by the
// groupId, assignedTo, search and orderBy query parameters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		CallerID:   userID,
		TitleQuery: c.Query("search"),
		OrderBy:    c.Query("orderBy"),
		Page:       params.Page,
		Limit:      params.Limit,
	}

	if raw := c.Query("groupId"); raw != "" {
		groupID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid groupId")
			return
		}
		input.GroupID = &groupID
	}
	if raw := c.Query("assignedTo"); raw != "" {
		assignedTo, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignedTo")
			return
		}
		input.AssignedTo = &assignedTo
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// SearchTasks finds tasks by title across the caller's groups.
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(services.ListTasksInput{
		CallerID:   userID,
		TitleQuery: c.Query("query"),
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// GetTask returns one task with its assignee and assigner.
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task id")
		return
	}

	task, err := h.taskService.GetTask(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": dto.ToTaskDTO(*task)})
}

// UpdateTask edits a task's fields. Admin only. Fields absent from the
// body are left unchanged.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task id")
		return
	}

	type UpdateTaskRequest struct {
		Title        *string `json:"title"`
		Description  *string `json:"description"`
		DeliveryDate *string `json:"delivery_date"`
		Priority     *string `json:"priority"`
		AssignedTo   *uint64 `json:"assignedTo"`
		Status       *string `json:"status"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.DeliveryDate != nil {
		deliveryDate, err := time.Parse(dateLayout, *req.DeliveryDate)
		if err != nil {
			apierrors.BadRequest(c, "delivery_date must be in YYYY-MM-DD format")
			return
		}
		input.DeliveryDate = &deliveryDate
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}

	task, err := h.taskService.UpdateTask(taskID, userID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// CompleteTask marks a task as completed. Any active group member may
// complete a task.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task id")
		return
	}

	task, err := h.taskService.CompleteTask(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task completed successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// DeleteTask removes a task and its comments. Admin only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task id")
		return
	}

	if err := h.taskService.DeleteTask(taskID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AddComment appends a comment to a task. Comments are immutable.
func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task id")
		return
	}

	type CommentRequest struct {
		Comment string `json:"comment" binding:"required"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "comment is required")
		return
	}

	comment, err := h.taskService.AddComment(taskID, userID, req.Comment)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment added successfully",
		"comment": dto.ToCommentDTO(*comment),
	})
}

// ListComments returns a task's comments, oldest first.
func (h *TaskHandler) ListComments(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task id")
		return
	}

	comments, err := h.taskService.ListComments(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	dtos := make([]dto.CommentDTO, 0, len(comments))
	for _, comment := range comments {
		dtos = append(dtos, dto.ToCommentDTO(comment))
	}

	c.JSON(http.StatusOK, gin.H{"comments": dtos})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrCommentRequired),
		errors.Is(err, services.ErrAssigneeNotMember),
		errors.Is(err, services.ErrInvalidStatus):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotGroupMember),
		errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
