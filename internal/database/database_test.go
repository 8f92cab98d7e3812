package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBName: ":memory:", GinMode: "test"}

	db, err := Connect(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&models.Task{}))
	assert.True(t, db.Migrator().HasIndex(&models.Task{}, "idx_tasks_team_created"))

	// Running again is a no-op
	require.NoError(t, Migrate(db))
}

func TestDialector_Unsupported(t *testing.T) {
	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
