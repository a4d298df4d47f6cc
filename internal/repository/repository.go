package repository

import (
	"time"

	"github.com/getdone/api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// UpdateField updates one of the mutable profile columns
	UpdateField(id uint64, column string, value string) error

	// UpdatePasswordByEmail replaces the stored password hash
	UpdatePasswordByEmail(email, passwordHash string) error

	// UpdatePassword replaces the stored password hash by user ID
	UpdatePassword(id uint64, passwordHash string) error
}

// GroupRepository defines the interface for group and membership data access
type GroupRepository interface {
	// CreateWithAdmin creates a group and its admin membership atomically
	CreateWithAdmin(group *models.Group, member *models.GroupMember) error

	// FindByID finds a group by ID
	FindByID(id uint64) (*models.Group, error)

	// FindByInviteCode finds a group by its permanent invite code
	FindByInviteCode(code string) (*models.Group, error)

	// AddMember adds a member to a group
	AddMember(member *models.GroupMember) error

	// UpdateMember persists membership state changes
	UpdateMember(member *models.GroupMember) error

	// FindMember finds a membership row regardless of active state
	FindMember(groupID, userID uint64) (*models.GroupMember, error)

	// FindActiveMember finds an active membership row
	FindActiveMember(groupID, userID uint64) (*models.GroupMember, error)

	// ListMembershipsForUser lists active memberships with groups preloaded
	ListMembershipsForUser(userID uint64) ([]models.GroupMember, error)

	// ListActiveMembers lists active members of a group with users preloaded
	ListActiveMembers(groupID uint64) ([]models.GroupMember, error)

	// SearchByName finds the caller's groups whose name matches the query,
	// case-insensitively, capped at limit and ordered by name
	SearchByName(userID uint64, query string, limit int) ([]models.Group, error)
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create creates a new invitation
	Create(invitation *models.Invitation) error

	// FindPendingByToken finds a pending, unexpired invitation by token
	FindPendingByToken(token string, now time.Time) (*models.Invitation, error)

	// Update persists invitation state changes
	Update(invitation *models.Invitation) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	GroupIDs   []uint64
	GroupID    *uint64
	AssignedTo *uint64
	TitleQuery string
	OrderBy    string
	Page       int
	Limit      int
}

// TaskRepository defines the interface for task and comment data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete removes a task together with its comments
	Delete(id uint64) error

	// AddComment creates a comment on a task
	AddComment(comment *models.TaskComment) error

	// ListComments lists a task's comments oldest first, with authors
	ListComments(taskID uint64) ([]models.TaskComment, error)

	// ListPendingInWindow lists pending tasks due within [from, to)
	ListPendingInWindow(from, to time.Time) ([]models.Task, error)

	// ListUnnotifiedExpiring lists expiring-soon tasks that have not yet
	// produced an expiring notification
	ListUnnotifiedExpiring() ([]models.Task, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a new notification
	Create(notification *models.Notification) error

	// ListByUser lists a user's notifications newest first
	ListByUser(userID uint64) ([]models.Notification, error)

	// MarkAllRead flips isRead on every notification of a user
	MarkAllRead(userID uint64) error

	// MarkRead flips isRead on a single caller-owned notification; it
	// reports how many rows matched
	MarkRead(id, userID uint64) (int64, error)

	// DeleteAllByUser removes every notification of a user
	DeleteAllByUser(userID uint64) error
}
