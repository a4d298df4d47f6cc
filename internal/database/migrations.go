package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds the indexes the hot query paths rely on.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task list filters and the expiration sweep
		{"tasks", "idx_tasks_group_id", "group_id"},
		{"tasks", "idx_tasks_assigned_to", "assigned_to"},
		{"tasks", "idx_tasks_status", "status"},
		{"tasks", "idx_tasks_delivery_date", "delivery_date"},

		// Membership lookups
		{"group_members", "idx_group_members_group_id", "group_id"},
		{"group_members", "idx_group_members_user_id", "user_id"},

		// Invitation redemption and per-user notification feeds
		{"invitations", "idx_invitations_email", "email"},
		{"notifications", "idx_notifications_user_created", "user_id, created_at"},

		// Task comments in thread order
		{"task_comments", "idx_task_comments_task_id", "task_id"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}
		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
