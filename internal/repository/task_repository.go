package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/getdone/api/internal/database"
	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/utils"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.GroupIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).Where("tasks.group_id IN ?", filter.GroupIDs)

	if filter.GroupID != nil {
		query = query.Where("tasks.group_id = ?", *filter.GroupID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.TitleQuery != "" {
		query = query.Where("LOWER(tasks.title) LIKE LOWER(?)", "%"+filter.TitleQuery+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(orderClause(filter.OrderBy))

	if filter.Page > 0 && filter.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.Limit,
			Offset: (filter.Page - 1) * filter.Limit,
		}))
	}

	if err := listQuery.Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// orderClause maps the orderBy query value onto a whitelisted ORDER BY.
func orderClause(orderBy string) string {
	switch orderBy {
	case "delivery_date":
		return "tasks.delivery_date ASC"
	case "priority":
		// Alta < Baja < Media alphabetically, so order explicitly
		return "CASE tasks.priority WHEN 'Alta' THEN 0 WHEN 'Media' THEN 1 ELSE 2 END"
	default:
		return "tasks.created_at DESC"
	}
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete removes a task together with its comments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddComment creates a comment on a task
func (r *GormTaskRepository) AddComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}

// ListComments lists a task's comments oldest first, with authors
func (r *GormTaskRepository) ListComments(taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// ListPendingInWindow lists pending tasks due within [from, to)
func (r *GormTaskRepository) ListPendingInWindow(from, to time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("status = ? AND delivery_date >= ? AND delivery_date < ?",
			models.TaskStatusPending, from, to).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListUnnotifiedExpiring lists expiring-soon tasks whose expiring
// notification has not been sent yet, with assignees preloaded.
func (r *GormTaskRepository) ListUnnotifiedExpiring() ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Preload("Assignee").
		Where("status = ? AND expiring_notification_sent = ?",
			models.TaskStatusExpiringSoon, false).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
