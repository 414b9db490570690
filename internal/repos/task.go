package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type TaskFilter struct {
	UserID    *uuid.UUID
	Status    string
	StartDate *time.Time
	Limit     int
	Offset    int
}

type TaskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error)
	GetByID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.Task, error)
	List(ctx context.Context, tx *gorm.DB, filter TaskFilter) ([]*types.Task, error)
	Update(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error
	// GetNextPending returns the worker's oldest pending task that still has
	// at least one pending subtask, or nil when no such task exists.
	GetNextPending(ctx context.Context, tx *gorm.DB, workerID uuid.UUID) (*types.Task, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	repoLog := baseLog.With("repo", "TaskRepo")
	return &taskRepo{db: db, log: repoLog}
}

func (tr *taskRepo) Create(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if err := transaction.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return tr.GetByID(ctx, tx, task.ID)
}

func (tr *taskRepo) GetByID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.Task
	if err := transaction.WithContext(ctx).
		Preload("User").
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Subtasks.Product").
		Preload("Subtasks.Events").
		Where("id = ?", taskID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *taskRepo) List(ctx context.Context, tx *gorm.DB, filter TaskFilter) ([]*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Task{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var results []*types.Task
	if err := query.
		Preload("User").
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Subtasks.Events").
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *taskRepo) Update(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.Task{}).
		Where("id = ?", taskID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (tr *taskRepo) Delete(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", taskID).
		Delete(&types.Task{}).Error
}

func (tr *taskRepo) GetNextPending(ctx context.Context, tx *gorm.DB, workerID uuid.UUID) (*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.Task
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND status = ?", workerID, types.TaskStatusPending).
		Where("EXISTS (SELECT 1 FROM subtask WHERE subtask.task_id = task.id AND subtask.status = ?)", types.TaskStatusPending).
		Order("created_at ASC").
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
