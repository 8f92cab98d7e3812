package repository

import (
	"context"

	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
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
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Attachments == nil {
		task.Attachments = models.Attachments{}
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves one page of matching tasks, newest first
func (r *GormTaskRepository) List(ctx context.Context, query TaskQuery, page utils.PaginationParams) ([]models.Task, int64, error) {
	db := r.db.WithContext(ctx)

	pred, err := query.BuildPredicate(existsIn(db))
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := pred.Apply(db.Model(&models.Task{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := []models.Task{}
	if total == 0 {
		return tasks, 0, nil
	}

	err = pred.Apply(db.Model(&models.Task{})).
		Order("tasks.created_at DESC").
		Order("tasks.id DESC").
		Scopes(database.Paginate(page)).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// MatchingIDs returns the ids of every task the query selects
func (r *GormTaskRepository) MatchingIDs(ctx context.Context, query TaskQuery) ([]uint64, error) {
	db := r.db.WithContext(ctx)

	pred, err := query.BuildPredicate(existsIn(db))
	if err != nil {
		return nil, err
	}

	ids := []uint64{}
	if err := pred.Apply(db.Model(&models.Task{})).Order("tasks.id").Pluck("tasks.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteMatching deletes every task the query selects in one transaction
func (r *GormTaskRepository) DeleteMatching(ctx context.Context, query TaskQuery) ([]models.Task, error) {
	var deleted []models.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pred, err := query.BuildPredicate(existsIn(tx))
		if err != nil {
			return err
		}

		var matched []models.Task
		if err := pred.Apply(tx.Model(&models.Task{})).Find(&matched).Error; err != nil {
			return err
		}
		if len(matched) == 0 {
			return nil
		}

		ids := make([]uint64, len(matched))
		for i, t := range matched {
			ids[i] = t.ID
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		deleted = matched
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// Update writes every column of an existing task. A task deleted since it was
// loaded is not re-inserted.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Select("*").
		Omit("id", "created_at").
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateAttachments writes only the attachments column
func (r *GormTaskRepository) UpdateAttachments(ctx context.Context, taskID uint64, attachments models.Attachments) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("attachments", attachments)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func existsIn(db *gorm.DB) ExistsFunc {
	return func(pred Predicate) (bool, error) {
		var ids []uint64
		err := pred.Apply(db.Model(&models.Task{})).Limit(1).Pluck("tasks.id", &ids).Error
		return len(ids) > 0, err
	}
}
