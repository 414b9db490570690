package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type ConfigRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.AppConfig, error)
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.AppConfig, error)
	Upsert(ctx context.Context, tx *gorm.DB, entry *types.AppConfig) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type configRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConfigRepo(db *gorm.DB, baseLog *logger.Logger) ConfigRepo {
	repoLog := baseLog.With("repo", "ConfigRepo")
	return &configRepo{db: db, log: repoLog}
}

func (cr *configRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.AppConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.AppConfig
	if err := transaction.WithContext(ctx).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *configRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.AppConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.AppConfig
	if err := transaction.WithContext(ctx).
		Where("key = ?", key).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *configRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *types.AppConfig) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).Save(entry).Error
}

func (cr *configRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AppConfig{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
