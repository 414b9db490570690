package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type ProductFilter struct {
	Search          string
	CategoryID      *uuid.UUID
	IncludeInactive bool
	Limit           int
	Offset          int
}

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, product *types.Product) (*types.Product, error)
	// GetByIDFull loads the product with its category memberships and direct
	// component edges. Only one hop of the component graph is resolved.
	GetByIDFull(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.Product, error)
	List(ctx context.Context, tx *gorm.DB, filter ProductFilter) ([]*types.Product, error)
	Update(ctx context.Context, tx *gorm.DB, productID uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
	ReplaceComponents(ctx context.Context, tx *gorm.DB, productID uuid.UUID, components []*types.ProductComponent) error
	ReplaceCategories(ctx context.Context, tx *gorm.DB, productID uuid.UUID, categories []*types.ProductCategory) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (pr *productRepo) Create(ctx context.Context, tx *gorm.DB, product *types.Product) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return pr.GetByIDFull(ctx, tx, product.ID)
}

func (pr *productRepo) GetByIDFull(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Product
	if err := transaction.WithContext(ctx).
		Preload("Categories").
		Preload("Categories.Category").
		Preload("Components").
		Preload("Components.Child").
		Where("id = ?", productID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *productRepo) List(ctx context.Context, tx *gorm.DB, filter ProductFilter) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Product{})
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.CategoryID != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM product_category WHERE product_category.product_id = product.id AND product_category.category_id = ?)",
			*filter.CategoryID,
		)
	}
	if !filter.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var results []*types.Product
	if err := query.
		Preload("Categories").
		Preload("Categories.Category").
		Preload("Components").
		Preload("Components.Child").
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) Update(ctx context.Context, tx *gorm.DB, productID uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", productID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (pr *productRepo) Delete(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).
		Where("parent_id = ? OR child_id = ?", productID, productID).
		Delete(&types.ProductComponent{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&types.ProductCategory{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", productID).
		Delete(&types.Product{}).Error
}

// ReplaceComponents discards every existing component edge of the product
// and recreates the supplied set. Deliberately non-incremental.
func (pr *productRepo) ReplaceComponents(ctx context.Context, tx *gorm.DB, productID uuid.UUID, components []*types.ProductComponent) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).
		Where("parent_id = ?", productID).
		Delete(&types.ProductComponent{}).Error; err != nil {
		return err
	}
	if len(components) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&components).Error
}

func (pr *productRepo) ReplaceCategories(ctx context.Context, tx *gorm.DB, productID uuid.UUID, categories []*types.ProductCategory) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&types.ProductCategory{}).Error; err != nil {
		return err
	}
	if len(categories) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&categories).Error
}
