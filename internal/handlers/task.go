package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

type TaskHandler struct {
	taskService       *services.TaskService
	attachmentService *services.AttachmentService
}

func NewTaskHandler(taskService *services.TaskService, attachmentService *services.AttachmentService) *TaskHandler {
	return &TaskHandler{
		taskService:       taskService,
		attachmentService: attachmentService,
	}
}

// ListTasks returns one page of tasks in the caller's personal scope, or in
// team_id when given
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	teamID, err := parseTeamID(c.Query("team_id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid team_id")
		return
	}

	loc, err := services.ParseLocation(c.Query("tz"))
	if err != nil {
		respondError(c, err)
		return
	}
	priorities, err := services.ParsePriorities(c.QueryArray("priority"))
	if err != nil {
		respondError(c, err)
		return
	}
	statuses, err := services.ParseStatuses(c.QueryArray("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	now := time.Now().In(loc)

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		UserID:     userID,
		TeamID:     teamID,
		Priorities: priorities,
		Statuses:   statuses,
		Search:     c.Query("search"),
		Now:        now,
		Page:       params,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total, now))
}

// GetTask returns a single task. Requires RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	loc, err := services.ParseLocation(c.Query("tz"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task, time.Now().In(loc)))
}

// CreateTask creates a task from JSON or from a multipart form carrying files
// under "attachments"
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title" form:"title"`
		Description string  `json:"description" form:"description"`
		DueDate     string  `json:"due_date" form:"due_date"`
		IsDateOnly  bool    `json:"is_date_only" form:"is_date_only"`
		Priority    string  `json:"priority" form:"priority"`
		TeamID      *uint64 `json:"team_id" form:"team_id"`
		TZ          string  `json:"tz" form:"tz"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	uploads, err := requestUploads(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	loc, err := services.ParseLocation(firstNonEmpty(req.TZ, c.Query("tz")))
	if err != nil {
		respondError(c, err)
		return
	}

	task, warnings, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		UserID:      userID,
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		DateOnly:    req.IsDateOnly,
		Priority:    req.Priority,
		Location:    loc,
		Uploads:     uploads,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TaskMutationResponse{
		Task:     dto.ToTaskDTO(*task, time.Now().In(loc)),
		Warnings: warnings,
	})
}

// UpdateTask applies only the fields present in the request. An empty or null
// due_date clears the due date; uploaded files are appended.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	// Parse raw fields to detect which were sent
	rawReq, err := rawFields(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{TaskID: taskID, UserID: userID}
	if err := readUpdateFields(rawReq, &input); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tz, _ := rawReq["tz"].(string)
	loc, err := services.ParseLocation(firstNonEmpty(tz, c.Query("tz")))
	if err != nil {
		respondError(c, err)
		return
	}
	input.Location = loc

	input.Uploads, err = requestUploads(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	task, warnings, err := h.taskService.UpdateTask(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskMutationResponse{
		Task:     dto.ToTaskDTO(*task, time.Now().In(loc)),
		Warnings: warnings,
	})
}

// DeleteTask deletes a task and its attachment files
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// ClearTasks deletes every task in the scope matching the priority and status
// filters
func (h *TaskHandler) ClearTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	teamID, err := parseTeamID(c.Query("team_id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid team_id")
		return
	}
	loc, err := services.ParseLocation(c.Query("tz"))
	if err != nil {
		respondError(c, err)
		return
	}
	priorities, err := services.ParsePriorities(c.QueryArray("priority"))
	if err != nil {
		respondError(c, err)
		return
	}
	statuses, err := services.ParseStatuses(c.QueryArray("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	deleted, err := h.taskService.ClearTasks(c.Request.Context(), services.ClearTasksInput{
		UserID:     userID,
		TeamID:     teamID,
		Priorities: priorities,
		Statuses:   statuses,
		Now:        time.Now().In(loc),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ClearTasksResponse{Deleted: deleted})
}

// RenameAttachment changes an attachment's display name
func (h *TaskHandler) RenameAttachment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type RenameAttachmentRequest struct {
		Path    string `json:"path" binding:"required"`
		NewName string `json:"new_name"`
	}

	var req RenameAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	loc, err := services.ParseLocation(c.Query("tz"))
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.attachmentService.Rename(c.Request.Context(), services.RenameAttachmentInput{
		TaskID:  taskID,
		UserID:  userID,
		Path:    req.Path,
		NewName: req.NewName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, time.Now().In(loc)))
}

// DeleteAttachment removes one attachment from a task
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type DeleteAttachmentRequest struct {
		Path string `json:"path" binding:"required"`
	}

	var req DeleteAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	loc, err := services.ParseLocation(c.Query("tz"))
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.attachmentService.Delete(c.Request.Context(), services.DeleteAttachmentInput{
		TaskID: taskID,
		UserID: userID,
		Path:   req.Path,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, time.Now().In(loc)))
}

// DraftTasks drafts tasks from free text using AI. Nothing is saved.
func (h *TaskHandler) DraftTasks(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type DraftTasksRequest struct {
		Text string `json:"text" binding:"required"`
		TZ   string `json:"tz"`
	}

	var req DraftTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	loc, err := services.ParseLocation(req.TZ)
	if err != nil {
		respondError(c, err)
		return
	}

	drafts, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text:     req.Text,
		Location: loc,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}

func parseTeamID(raw string) (*uint64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEMultipartPOSTForm
}

// requestUploads returns the files sent under the attachments field, if any.
func requestUploads(c *gin.Context) ([]services.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	files := form.File[constants.AttachmentFormField]
	uploads := make([]services.Upload, len(files))
	for i, fh := range files {
		uploads[i] = fileUpload(fh)
	}
	return uploads, nil
}

func fileUpload(fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// rawFields reads a JSON object or the first value of each multipart field.
func rawFields(c *gin.Context) (map[string]any, error) {
	if !isMultipart(c) {
		var raw map[string]any
		if err := c.ShouldBindJSON(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	raw := make(map[string]any, len(form.Value))
	for key, values := range form.Value {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}
	return raw, nil
}

func readUpdateFields(raw map[string]any, input *services.UpdateTaskInput) error {
	var err error
	if input.Title, err = stringField(raw, "title"); err != nil {
		return err
	}
	if input.Description, err = stringField(raw, "description"); err != nil {
		return err
	}
	if input.DueDate, err = stringField(raw, "due_date"); err != nil {
		return err
	}
	if input.Priority, err = stringField(raw, "priority"); err != nil {
		return err
	}
	if input.DateOnly, err = boolField(raw, "is_date_only"); err != nil {
		return err
	}
	if input.Completed, err = boolField(raw, "completed"); err != nil {
		return err
	}
	return nil
}

// stringField treats null as the empty string.
func stringField(raw map[string]any, key string) (*string, error) {
	value, ok := raw[key]
	if !ok {
		return nil, nil
	}
	switch v := value.(type) {
	case nil:
		empty := ""
		return &empty, nil
	case string:
		return &v, nil
	default:
		return nil, fmt.Errorf("%s must be a string", key)
	}
}

func boolField(raw map[string]any, key string) (*bool, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case bool:
		return &v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean", key)
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("%s must be a boolean", key)
	}
}
