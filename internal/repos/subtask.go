package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type SubtaskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, subtasks []*types.Subtask) ([]*types.Subtask, error)
	// GetByIDFull loads the subtask together with its events, its owning
	// task, and its product including the product's direct component edges.
	GetByIDFull(ctx context.Context, tx *gorm.DB, subtaskID uuid.UUID) (*types.Subtask, error)
	ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.Subtask, error)
	// ListPendingByTask returns the task's pending subtasks ordered by their
	// sequence position. A limit of 0 means no limit.
	ListPendingByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, limit int) ([]*types.Subtask, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, subtaskID uuid.UUID, status string) error
	UpdateStatusByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, status string) error
	DeleteByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error
}

type subtaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubtaskRepo(db *gorm.DB, baseLog *logger.Logger) SubtaskRepo {
	repoLog := baseLog.With("repo", "SubtaskRepo")
	return &subtaskRepo{db: db, log: repoLog}
}

func (sr *subtaskRepo) Create(ctx context.Context, tx *gorm.DB, subtasks []*types.Subtask) ([]*types.Subtask, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(subtasks) == 0 {
		return []*types.Subtask{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&subtasks).Error; err != nil {
		return nil, err
	}
	return subtasks, nil
}

func (sr *subtaskRepo) GetByIDFull(ctx context.Context, tx *gorm.DB, subtaskID uuid.UUID) (*types.Subtask, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var result types.Subtask
	if err := transaction.WithContext(ctx).
		Preload("Events").
		Preload("Product").
		Preload("Product.Components").
		Where("id = ?", subtaskID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *subtaskRepo) ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.Subtask, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Subtask
	if err := transaction.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *subtaskRepo) ListPendingByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, limit int) ([]*types.Subtask, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	query := transaction.WithContext(ctx).
		Preload("Product").
		Preload("Events").
		Where("task_id = ? AND status = ?", taskID, types.TaskStatusPending).
		Order("sort_order ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.Subtask
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *subtaskRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, subtaskID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Subtask{}).
		Where("id = ?", subtaskID).
		Update("status", status).Error
}

func (sr *subtaskRepo) UpdateStatusByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Subtask{}).
		Where("task_id = ?", taskID).
		Update("status", status).Error
}

func (sr *subtaskRepo) DeleteByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	return transaction.WithContext(ctx).
		Where("task_id = ?", taskID).
		Delete(&types.Subtask{}).Error
}
