package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type SubtaskEventFilter struct {
	UserID    *uuid.UUID
	ProductID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type SubtaskEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.SubtaskEvent) ([]*types.SubtaskEvent, error)
	List(ctx context.Context, tx *gorm.DB, filter SubtaskEventFilter) ([]*types.SubtaskEvent, error)
	Count(ctx context.Context, tx *gorm.DB, filter SubtaskEventFilter) (int64, error)
	DeleteByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error
}

type subtaskEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubtaskEventRepo(db *gorm.DB, baseLog *logger.Logger) SubtaskEventRepo {
	repoLog := baseLog.With("repo", "SubtaskEventRepo")
	return &subtaskEventRepo{db: db, log: repoLog}
}

func (er *subtaskEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.SubtaskEvent) ([]*types.SubtaskEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	if len(events) == 0 {
		return []*types.SubtaskEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (er *subtaskEventRepo) filtered(ctx context.Context, transaction *gorm.DB, filter SubtaskEventFilter) *gorm.DB {
	query := transaction.WithContext(ctx).
		Model(&types.SubtaskEvent{}).
		Joins("JOIN subtask ON subtask.id = subtask_event.subtask_id").
		Joins("JOIN task ON task.id = subtask.task_id")
	if filter.UserID != nil {
		query = query.Where("task.user_id = ?", *filter.UserID)
	}
	if filter.ProductID != nil {
		query = query.Where("subtask.product_id = ?", *filter.ProductID)
	}
	if filter.StartDate != nil {
		query = query.Where("subtask_event.timestamp >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("subtask_event.timestamp <= ?", *filter.EndDate)
	}
	return query
}

func (er *subtaskEventRepo) List(ctx context.Context, tx *gorm.DB, filter SubtaskEventFilter) ([]*types.SubtaskEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	query := er.filtered(ctx, transaction, filter)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var results []*types.SubtaskEvent
	if err := query.
		Preload("Subtask").
		Preload("Subtask.Product").
		Preload("Subtask.Task").
		Preload("Subtask.Task.User").
		Order("subtask_event.timestamp DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *subtaskEventRepo) Count(ctx context.Context, tx *gorm.DB, filter SubtaskEventFilter) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var count int64
	if err := er.filtered(ctx, transaction, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (er *subtaskEventRepo) DeleteByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	return transaction.WithContext(ctx).
		Where("subtask_id IN (?)", transaction.Model(&types.Subtask{}).Select("id").Where("task_id = ?", taskID)).
		Delete(&types.SubtaskEvent{}).Error
}
