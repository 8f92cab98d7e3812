package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/storage"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

const recordUpdateAttempts = 3

// Upload is one file received with a task mutation.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// AttachmentService keeps stored files and task attachment lists consistent.
// Mutations of one task's attachments are serialized.
type AttachmentService struct {
	access   taskAccess
	tasks    repository.TaskRepository
	store    storage.FileStore
	locks    *utils.KeyedMutex
	events   *TaskEvents
	logger   *slog.Logger
	maxFiles int
	now      func() time.Time
	backoff  time.Duration
}

func NewAttachmentService(
	tasks repository.TaskRepository,
	teams repository.TeamRepository,
	store storage.FileStore,
	events *TaskEvents,
	logger *slog.Logger,
	maxFiles int,
) *AttachmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttachmentService{
		access:   taskAccess{tasks: tasks, teams: teams},
		tasks:    tasks,
		store:    store,
		locks:    utils.NewKeyedMutex(),
		events:   events,
		logger:   logger.With("component", "attachments"),
		maxFiles: maxFiles,
		now:      time.Now,
		backoff:  50 * time.Millisecond,
	}
}

// lockTask serializes every mutation touching the task's attachments.
func (s *AttachmentService) lockTask(taskID uint64) func() {
	return s.locks.Lock(strconv.FormatUint(taskID, 10))
}

// lockTasks takes the locks of several tasks at once.
func (s *AttachmentService) lockTasks(taskIDs []uint64) func() {
	keys := make([]string, len(taskIDs))
	for i, id := range taskIDs {
		keys[i] = strconv.FormatUint(id, 10)
	}
	return s.locks.LockAll(keys)
}

// CheckUploadCount rejects requests carrying more files than allowed.
func (s *AttachmentService) CheckUploadCount(n int) error {
	if s.maxFiles > 0 && n > s.maxFiles {
		return ErrTooManyFiles.With(fmt.Errorf("%d files, at most %d allowed", n, s.maxFiles))
	}
	return nil
}

// SaveUploads writes each upload. Files that cannot be written are skipped and
// reported as warnings rather than failing the whole request.
func (s *AttachmentService) SaveUploads(ctx context.Context, uploads []Upload) (models.Attachments, []string) {
	saved := make(models.Attachments, 0, len(uploads))
	var warnings []string

	for _, u := range uploads {
		path, err := s.saveOne(ctx, u)
		if err != nil {
			s.logger.Warn("failed to store attachment", "name", u.Name, "error", err)
			warnings = append(warnings, fmt.Sprintf("attachment %q was not saved", u.Name))
			continue
		}
		saved = append(saved, models.Attachment{Path: path, DisplayName: displayNameFor(u.Name)})
	}

	return saved, warnings
}

func (s *AttachmentService) saveOne(ctx context.Context, u Upload) (string, error) {
	r, err := u.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	return s.store.Save(ctx, u.Name, r)
}

func displayNameFor(name string) string {
	return storage.SanitizeFilename(name)
}

// Discard removes files whose record was never saved.
func (s *AttachmentService) Discard(ctx context.Context, attachments models.Attachments, reason string) {
	if len(attachments) == 0 {
		return
	}
	paths := make([]string, len(attachments))
	for i, a := range attachments {
		paths[i] = a.Path
	}
	s.logger.Error("orphaned attachment files", "paths", paths, "reason", reason)
	s.RemoveFiles(ctx, attachments)
}

// RemoveFiles deletes stored files best effort. Missing files count as removed.
func (s *AttachmentService) RemoveFiles(ctx context.Context, attachments models.Attachments) {
	for _, a := range attachments {
		if err := s.store.Remove(ctx, a.Path); err != nil && !errors.Is(err, storage.ErrNotExist) {
			s.logger.Warn("failed to remove attachment file", "path", a.Path, "error", err)
		}
	}
}

type RenameAttachmentInput struct {
	TaskID  uint64
	UserID  uint64
	Path    string
	NewName string
}

// Rename changes an attachment's display name and moves its file to match.
// The file is renamed first; the record follows with bounded retries.
func (s *AttachmentService) Rename(ctx context.Context, input RenameAttachmentInput) (*models.Task, error) {
	if input.Path == "" {
		return nil, ErrAttachmentPath
	}

	unlock := s.lockTask(input.TaskID)
	defer unlock()

	task, err := s.access.loadTask(ctx, input.TaskID, input.UserID)
	if err != nil {
		return nil, err
	}

	idx := task.FindAttachment(input.Path)
	if idx < 0 {
		return nil, ErrAttachmentNotFound
	}
	current := task.Attachments[idx]

	display, ok := RenameDisplayName(current.DisplayName, input.NewName)
	if !ok {
		return nil, ErrEmptyAttachmentName
	}
	if display == current.DisplayName {
		return task, nil
	}

	newPath := storage.RenamedStoredName(current.Path, display, s.now())
	if newPath != current.Path {
		if err := s.store.Rename(ctx, current.Path, newPath); err != nil {
			s.logger.Error("failed to rename attachment file", "task_id", task.ID, "from", current.Path, "to", newPath, "error", err)
			return nil, ErrAttachmentRename.With(err)
		}
	}

	updated := append(models.Attachments(nil), task.Attachments...)
	updated[idx] = models.Attachment{Path: newPath, DisplayName: display}

	if err := s.saveAttachments(ctx, task.ID, updated); err != nil {
		s.logger.Error("attachment file renamed but task record not updated",
			"task_id", task.ID, "record_path", current.Path, "disk_path", newPath, "error", err)
		return nil, ErrAttachmentRecord.With(err)
	}

	task.Attachments = updated
	s.events.Updated(task)
	return task, nil
}

type DeleteAttachmentInput struct {
	TaskID uint64
	UserID uint64
	Path   string
}

// Delete drops an attachment from the task, then removes its file.
func (s *AttachmentService) Delete(ctx context.Context, input DeleteAttachmentInput) (*models.Task, error) {
	if input.Path == "" {
		return nil, ErrAttachmentPath
	}

	unlock := s.lockTask(input.TaskID)
	defer unlock()

	task, err := s.access.loadTask(ctx, input.TaskID, input.UserID)
	if err != nil {
		return nil, err
	}

	idx := task.FindAttachment(input.Path)
	if idx < 0 {
		return nil, ErrAttachmentNotFound
	}
	removed := task.Attachments[idx]

	updated := make(models.Attachments, 0, len(task.Attachments)-1)
	updated = append(updated, task.Attachments[:idx]...)
	updated = append(updated, task.Attachments[idx+1:]...)

	if err := s.saveAttachments(ctx, task.ID, updated); err != nil {
		return nil, fmt.Errorf("failed to update attachments: %w", err)
	}
	task.Attachments = updated

	s.RemoveFiles(ctx, models.Attachments{removed})

	s.events.Updated(task)
	return task, nil
}

func (s *AttachmentService) saveAttachments(ctx context.Context, taskID uint64, attachments models.Attachments) error {
	var err error
	for attempt := 1; attempt <= recordUpdateAttempts; attempt++ {
		if err = s.tasks.UpdateAttachments(ctx, taskID, attachments); err == nil {
			return nil
		}
		s.logger.Warn("attachment record update failed", "task_id", taskID, "attempt", attempt, "error", err)

		if attempt < recordUpdateAttempts {
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(s.backoff * time.Duration(attempt)):
			}
		}
	}
	return err
}
