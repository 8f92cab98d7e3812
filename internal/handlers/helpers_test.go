package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/storage"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	db          *gorm.DB
	router      *gin.Engine
	hub         *realtime.Hub
	store       *storage.DiskStore
	authService *services.AuthService
	teamService *services.TeamService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBName: ":memory:", GinMode: gin.TestMode})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	hub := realtime.NewHub(nil)
	events := services.NewTaskEvents(hub)
	authService := services.NewAuthService(userRepo, tokens)
	teamService := services.NewTeamService(teamRepo, hub)
	attachmentService := services.NewAttachmentService(taskRepo, teamRepo, store, events, nil, constants.DefaultMaxUploadFiles)
	taskService := services.NewTaskService(taskRepo, teamRepo, attachmentService, events, nil, nil)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	Router{
		Auth:      NewAuthHandler(authService),
		Teams:     NewTeamHandler(teamService),
		Tasks:     NewTaskHandler(taskService, attachmentService),
		Realtime:  NewRealtimeHandler(realtime.NewServer(hub, teamService, nil)),
		Verifier:  authService,
		TeamSvc:   teamService,
		TaskSvc:   taskService,
		UploadDir: store.Dir(),
	}.Register(r)

	return &testApp{
		db:          db,
		router:      r,
		hub:         hub,
		store:       store,
		authService: authService,
		teamService: teamService,
	}
}

// signup creates a user and returns it with a bearer token.
func (a *testApp) signup(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	user, err := a.authService.Signup(context.Background(), services.SignupInput{
		Email:    email,
		Name:     "user",
		Password: "password123",
	})
	require.NoError(t, err)
	token, _, err := a.authService.IssueToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func (a *testApp) createTeam(t *testing.T, admin *models.User, members ...*models.User) *models.Team {
	t.Helper()
	ctx := context.Background()
	team, err := a.teamService.CreateTeam(ctx, services.CreateTeamInput{Name: "Ops", AdminID: admin.ID})
	require.NoError(t, err)
	for _, m := range members {
		_, err := a.teamService.JoinTeamByInvite(ctx, m.ID, team.InviteCode)
		require.NoError(t, err)
	}
	return team
}

func (a *testApp) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) doJSON(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.serve(req, token)
}

type formFile struct {
	Name    string
	Content string
}

func (a *testApp) doMultipart(t *testing.T, method, path string, fields map[string]string, files []formFile, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(constants.AttachmentFormField, f.Name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(req, token)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
