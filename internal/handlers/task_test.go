package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	app   *testApp
	user  *models.User
	token string
}

func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.app = newTestApp(suite.T())
	suite.user, suite.token = suite.app.signup(suite.T(), "test@example.com")
}

func (suite *TaskHandlerTestSuite) createTask(body map[string]any, token string) dto.TaskDTO {
	w := suite.app.doJSON(suite.T(), http.MethodPost, "/api/tasks", body, token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskMutationResponse](suite.T(), w).Task
}

func (suite *TaskHandlerTestSuite) listTasks(query string) dto.TaskListResponse {
	w := suite.app.doJSON(suite.T(), http.MethodGet, "/api/tasks"+query, nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return decode[dto.TaskListResponse](suite.T(), w)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_JSON() {
	task := suite.createTask(map[string]any{
		"title":        "Pay rent",
		"due_date":     "2000-01-01",
		"is_date_only": true,
		"priority":     "high",
	}, suite.token)

	assert.Equal(suite.T(), "Pay rent", task.Title)
	assert.Equal(suite.T(), models.PriorityHigh, task.Priority)
	assert.True(suite.T(), task.IsDateOnly)
	assert.Equal(suite.T(), models.StatusPending, task.Status)
	assert.Nil(suite.T(), task.TeamID)
	assert.Empty(suite.T(), task.Attachments)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Validation() {
	w := suite.app.doJSON(suite.T(), http.MethodPost, "/api/tasks", map[string]any{"title": " "}, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), apierrors.ErrCodeInvalidInput, decode[apierrors.APIError](suite.T(), w).Code)

	w = suite.app.doJSON(suite.T(), http.MethodPost, "/api/tasks", map[string]any{"title": "t", "tz": "Nowhere/Zone"}, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_MultipartWithAttachment() {
	w := suite.app.doMultipart(suite.T(), http.MethodPost, "/api/tasks",
		map[string]string{"title": "With file", "priority": "Low"},
		[]formFile{{Name: "notes.txt", Content: "hello"}},
		suite.token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	task := decode[dto.TaskMutationResponse](suite.T(), w).Task
	suite.Require().Len(task.Attachments, 1)
	attachment := task.Attachments[0]
	assert.Equal(suite.T(), "notes.txt", attachment.DisplayName)

	req := httptest.NewRequest(http.MethodGet, attachment.URL, nil)
	served := suite.app.serve(req, "")
	suite.Require().Equal(http.StatusOK, served.Code)
	assert.Equal(suite.T(), "hello", served.Body.String())
}

func (suite *TaskHandlerTestSuite) TestCreateTask_TooManyFiles() {
	files := make([]formFile, 6)
	for i := range files {
		files[i] = formFile{Name: fmt.Sprintf("f%d.txt", i), Content: "x"}
	}
	w := suite.app.doMultipart(suite.T(), http.MethodPost, "/api/tasks",
		map[string]string{"title": "Too many"}, files, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_PaginationAndFilters() {
	for i := 1; i <= 7; i++ {
		priority := "Low"
		if i%2 == 0 {
			priority = "High"
		}
		suite.createTask(map[string]any{"title": fmt.Sprintf("task %d", i), "priority": priority}, suite.token)
	}

	page := suite.listTasks("?page=2&limit=5")
	assert.Equal(suite.T(), int64(7), page.Total)
	assert.Equal(suite.T(), 2, page.PageCount)
	assert.Equal(suite.T(), 2, page.Page)
	suite.Require().Len(page.Tasks, 2)
	assert.Equal(suite.T(), "task 2", page.Tasks[0].Title)
	assert.Equal(suite.T(), "task 1", page.Tasks[1].Title)

	high := suite.listTasks("?priority=High&status=active&limit=50")
	assert.Equal(suite.T(), int64(3), high.Total)

	all := suite.listTasks("?priority=all&status=all&limit=50")
	assert.Equal(suite.T(), int64(7), all.Total)

	w := suite.app.doJSON(suite.T(), http.MethodGet, "/api/tasks?status=late", nil, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_SearchPrefersExactTitle() {
	suite.createTask(map[string]any{"title": "Report"}, suite.token)
	suite.createTask(map[string]any{"title": "Report draft"}, suite.token)

	exact := suite.listTasks("?search=report")
	suite.Require().Len(exact.Tasks, 1)
	assert.Equal(suite.T(), "Report", exact.Tasks[0].Title)

	partial := suite.listTasks("?search=rep")
	assert.Equal(suite.T(), int64(2), partial.Total)
}

func (suite *TaskHandlerTestSuite) TestGetTask_OtherUserGetsNotFound() {
	task := suite.createTask(map[string]any{"title": "private"}, suite.token)
	_, otherToken := suite.app.signup(suite.T(), "other@example.com")

	path := fmt.Sprintf("/api/tasks/%d", task.ID)
	w := suite.app.doJSON(suite.T(), http.MethodGet, path, nil, otherToken)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.app.doJSON(suite.T(), http.MethodGet, path, nil, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), "private", decode[dto.TaskDTO](suite.T(), w).Title)

	w = suite.app.doJSON(suite.T(), http.MethodGet, "/api/tasks/abc", nil, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_Partial() {
	task := suite.createTask(map[string]any{
		"title":       "draft",
		"description": "keep",
		"due_date":    "2030-01-01T09:00",
	}, suite.token)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.app.doJSON(suite.T(), http.MethodPatch, path, map[string]any{"completed": true}, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.TaskMutationResponse](suite.T(), w).Task
	assert.Equal(suite.T(), "draft", updated.Title)
	assert.Equal(suite.T(), "keep", updated.Description)
	assert.Equal(suite.T(), models.StatusCompleted, updated.Status)
	assert.NotNil(suite.T(), updated.DueDate)

	w = suite.app.doJSON(suite.T(), http.MethodPatch, path, map[string]any{"due_date": nil, "completed": false}, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code)
	cleared := decode[dto.TaskMutationResponse](suite.T(), w).Task
	assert.Nil(suite.T(), cleared.DueDate)
	assert.Equal(suite.T(), models.StatusActive, cleared.Status)

	w = suite.app.doJSON(suite.T(), http.MethodPatch, path, map[string]any{"completed": "maybe"}, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.app.doMultipart(suite.T(), http.MethodPatch, path,
		map[string]string{"title": "final"}, []formFile{{Name: "a.txt", Content: "a"}}, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	final := decode[dto.TaskMutationResponse](suite.T(), w).Task
	assert.Equal(suite.T(), "final", final.Title)
	assert.Len(suite.T(), final.Attachments, 1)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task := suite.createTask(map[string]any{"title": "bye"}, suite.token)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.app.doJSON(suite.T(), http.MethodDelete, path, nil, suite.token)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.app.doJSON(suite.T(), http.MethodDelete, path, nil, suite.token)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestClearTasks_TeamScope() {
	member, memberToken := suite.app.signup(suite.T(), "member@example.com")
	team := suite.app.createTeam(suite.T(), suite.user, member)

	suite.createTask(map[string]any{"title": "old high", "priority": "High", "due_date": "2000-01-01", "team_id": team.ID}, suite.token)
	suite.createTask(map[string]any{"title": "future high", "priority": "High", "due_date": "2999-01-01", "team_id": team.ID}, memberToken)
	suite.createTask(map[string]any{"title": "old low", "priority": "Low", "due_date": "2000-01-01", "team_id": team.ID}, suite.token)
	suite.createTask(map[string]any{"title": "personal", "priority": "High", "due_date": "2000-01-01"}, suite.token)

	path := fmt.Sprintf("/api/tasks/clear?team_id=%d&priority=High&status=pending", team.ID)
	w := suite.app.doJSON(suite.T(), http.MethodDelete, path, nil, memberToken)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), 1, decode[dto.ClearTasksResponse](suite.T(), w).Deleted)

	remaining := suite.listTasks(fmt.Sprintf("?team_id=%d&limit=50", team.ID))
	assert.Equal(suite.T(), int64(2), remaining.Total)
	assert.Equal(suite.T(), int64(1), suite.listTasks("").Total)

	_, outsiderToken := suite.app.signup(suite.T(), "outsider@example.com")
	w = suite.app.doJSON(suite.T(), http.MethodDelete, fmt.Sprintf("/api/tasks/clear?team_id=%d", team.ID), nil, outsiderToken)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestAttachments_RenameAndDelete() {
	w := suite.app.doMultipart(suite.T(), http.MethodPost, "/api/tasks",
		map[string]string{"title": "files"}, []formFile{{Name: "report.pdf", Content: "%PDF"}}, suite.token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	task := decode[dto.TaskMutationResponse](suite.T(), w).Task
	original := task.Attachments[0]

	renamePath := fmt.Sprintf("/api/tasks/%d/attachments/rename", task.ID)
	w = suite.app.doJSON(suite.T(), http.MethodPut, renamePath, map[string]string{"path": original.Path, "new_name": "summary"}, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	renamed := decode[dto.TaskDTO](suite.T(), w).Attachments[0]
	assert.Equal(suite.T(), "summary.pdf", renamed.DisplayName)
	assert.NotEqual(suite.T(), original.Path, renamed.Path)

	w = suite.app.doJSON(suite.T(), http.MethodPut, renamePath, map[string]string{"path": renamed.Path, "new_name": ""}, suite.token)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.app.doJSON(suite.T(), http.MethodPut, renamePath, map[string]string{"path": original.Path, "new_name": "x"}, suite.token)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	deletePath := fmt.Sprintf("/api/tasks/%d/attachments", task.ID)
	w = suite.app.doJSON(suite.T(), http.MethodDelete, deletePath, map[string]string{"path": renamed.Path}, suite.token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Empty(suite.T(), decode[dto.TaskDTO](suite.T(), w).Attachments)

	served := suite.app.serve(httptest.NewRequest(http.MethodGet, renamed.URL, nil), "")
	assert.Equal(suite.T(), http.StatusNotFound, served.Code)
}

func (suite *TaskHandlerTestSuite) TestDraftTasks_NotConfigured() {
	w := suite.app.doJSON(suite.T(), http.MethodPost, "/api/tasks/draft", map[string]string{"text": "buy milk"}, suite.token)
	assert.Equal(suite.T(), http.StatusServiceUnavailable, w.Code)
}

func (suite *TaskHandlerTestSuite) TestMutationsReachPersonalRoom() {
	client := suite.app.hub.Register(suite.user.ID)
	suite.app.hub.Join(client, realtime.PersonalRoom(suite.user.ID))
	defer suite.app.hub.Unregister(client)

	suite.createTask(map[string]any{"title": "live"}, suite.token)

	select {
	case frame := <-client.Send():
		assert.Contains(suite.T(), string(frame), `"event":"taskAdded"`)
		assert.Contains(suite.T(), string(frame), `"title":"live"`)
	default:
		suite.Fail("expected a taskAdded frame")
	}
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
