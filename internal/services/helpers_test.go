package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/storage"
	"gorm.io/gorm"
)

type emitted struct {
	Room    string
	Event   string
	Payload any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []emitted
}

func (b *recordingBroadcaster) Emit(room, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{Room: room, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) Events() []emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]emitted(nil), b.events...)
}

type testEnv struct {
	db          *gorm.DB
	tasks       repository.TaskRepository
	teams       repository.TeamRepository
	users       repository.UserRepository
	store       *storage.DiskStore
	broadcaster *recordingBroadcaster
	attachments *AttachmentService
	taskService *TaskService
	teamService *TeamService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBName: ":memory:", GinMode: "test"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		db:          db,
		tasks:       repository.NewTaskRepository(db),
		teams:       repository.NewTeamRepository(db),
		users:       repository.NewUserRepository(db),
		store:       store,
		broadcaster: &recordingBroadcaster{},
	}
	events := NewTaskEvents(env.broadcaster)
	env.attachments = NewAttachmentService(env.tasks, env.teams, store, events, nil, 5)
	env.attachments.backoff = 0
	env.taskService = NewTaskService(env.tasks, env.teams, env.attachments, events, nil, nil)
	env.teamService = NewTeamService(env.teams, nil)
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: strings.Split(email, "@")[0], PasswordHash: "x"}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) createTeam(t *testing.T, admin *models.User, members ...*models.User) *models.Team {
	t.Helper()
	ctx := context.Background()
	team, err := e.teamService.CreateTeam(ctx, CreateTeamInput{Name: "Ops", AdminID: admin.ID})
	require.NoError(t, err)
	for _, m := range members {
		_, err := e.teamService.JoinTeamByInvite(ctx, m.ID, team.InviteCode)
		require.NoError(t, err)
	}
	return team
}

func textUpload(name, body string) Upload {
	return Upload{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }
