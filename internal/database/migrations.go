package database

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by task listing
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   any
		table   string
		name    string
		columns []string
	}{
		// Personal scope: owner + no team, newest first
		{&models.Task{}, "tasks", "idx_tasks_owner_team_created", []string{"owner_id", "team_id", "created_at"}},
		// Team scope, newest first
		{&models.Task{}, "tasks", "idx_tasks_team_created", []string{"team_id", "created_at"}},
		// Status filters
		{&models.Task{}, "tasks", "idx_tasks_status", []string{"completed", "is_date_only", "due_date"}},

		{&models.TeamMember{}, "team_members", "idx_team_members_user_id", []string{"user_id"}},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			slog.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", "index", idx.name, "table", idx.table)
	}

	return nil
}
