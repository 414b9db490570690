package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type CategoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, category *types.Category) (*types.Category, error)
	GetByID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) (*types.Category, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Category, error)
	Update(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, fields map[string]interface{}) (*types.Category, error)
	// Delete removes the category and its membership edges. Products are
	// untouched.
	Delete(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (cr *categoryRepo) Create(ctx context.Context, tx *gorm.DB, category *types.Category) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (cr *categoryRepo) GetByID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Category
	if err := transaction.WithContext(ctx).
		Where("id = ?", categoryID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *categoryRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Category
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *categoryRepo) Update(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, fields map[string]interface{}) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.Category{}).
		Where("id = ?", categoryID).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return cr.GetByID(ctx, tx, categoryID)
}

func (cr *categoryRepo) Delete(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Delete(&types.ProductCategory{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", categoryID).
		Delete(&types.Category{}).Error
}
