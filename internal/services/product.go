package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type ComponentInput struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *float64         `json:"price"`
	Reference   *string          `json:"reference"`
	Active      *bool            `json:"active"`
	Categories  *[]uuid.UUID     `json:"categories"`
	Components  *[]ComponentInput `json:"components"`
}

type ListProductsInput struct {
	Limit           int
	Page            int
	Search          string
	CategoryID      *uuid.UUID
	IncludeInactive bool
}

type ProductPage struct {
	Data     []*ProductView `json:"data"`
	NextPage *int           `json:"nextPage"`
	PrevPage *int           `json:"prevPage"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProductService interface {
	List(ctx context.Context, input ListProductsInput) (*ProductPage, error)
	Get(ctx context.Context, productID uuid.UUID) (*ProductView, error)
	Create(ctx context.Context, input ProductInput) (*ProductView, error)
	// Update replaces the full set of component and category edges when the
	// corresponding lists are supplied (delete-then-recreate, not a diff),
	// and rejects a component list naming the product itself before any
	// write happens.
	Update(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductView, error)
	Delete(ctx context.Context, productID uuid.UUID) error

	ListCategories(ctx context.Context) ([]*types.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*types.Category, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*types.Category, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
}

type productService struct {
	db           *gorm.DB
	log          *logger.Logger
	productRepo  repos.ProductRepo
	categoryRepo repos.CategoryRepo
}

func NewProductService(db *gorm.DB, log *logger.Logger, productRepo repos.ProductRepo, categoryRepo repos.CategoryRepo) ProductService {
	serviceLog := log.With("service", "ProductService")
	return &productService{db: db, log: serviceLog, productRepo: productRepo, categoryRepo: categoryRepo}
}

func (ps *productService) List(ctx context.Context, input ListProductsInput) (*ProductPage, error) {
	limit, page := normalizePage(input.Limit, input.Page, 10)
	products, err := ps.productRepo.List(ctx, nil, repos.ProductFilter{
		Search:          input.Search,
		CategoryID:      input.CategoryID,
		IncludeInactive: input.IncludeInactive,
		Limit:           limit + 1,
		Offset:          (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, apperrors.NotFound("Not found")
	}
	products, nextPage, prevPage := trimPage(products, page, limit)

	views := make([]*ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, newProductView(product))
	}
	return &ProductPage{Data: views, NextPage: nextPage, PrevPage: prevPage}, nil
}

func (ps *productService) Get(ctx context.Context, productID uuid.UUID) (*ProductView, error) {
	product, err := ps.productRepo.GetByIDFull(ctx, nil, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Not found")
	}
	if err != nil {
		return nil, err
	}
	return newProductView(product), nil
}

func (ps *productService) Create(ctx context.Context, input ProductInput) (*ProductView, error) {
	if input.Name == nil || *input.Name == "" {
		return nil, apperrors.Validation("Missing required fields")
	}

	product := &types.Product{
		ID:     uuid.New(),
		Name:   *input.Name,
		Active: true,
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Reference != nil {
		product.Reference = *input.Reference
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	if input.Categories != nil {
		for _, categoryID := range *input.Categories {
			product.Categories = append(product.Categories, types.ProductCategory{
				ID:         uuid.New(),
				ProductID:  product.ID,
				CategoryID: categoryID,
			})
		}
	}
	if input.Components != nil {
		for _, component := range *input.Components {
			product.Components = append(product.Components, types.ProductComponent{
				ID:       uuid.New(),
				ParentID: product.ID,
				ChildID:  component.ProductID,
				Quantity: component.Quantity,
			})
		}
	}

	var created *types.Product
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = ps.productRepo.Create(ctx, tx, product)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return newProductView(created), nil
}

func (ps *productService) Update(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductView, error) {
	if input.Components != nil {
		for _, component := range *input.Components {
			if component.ProductID == productID {
				return nil, apperrors.Validation("Product cannot be a component of itself")
			}
		}
	}

	var updated *types.Product
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ps.productRepo.GetByIDFull(ctx, tx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Not found")
			}
			return err
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			fields["name"] = *input.Name
		}
		if input.Description != nil {
			fields["description"] = *input.Description
		}
		if input.Price != nil {
			fields["price"] = *input.Price
		}
		if input.Reference != nil {
			fields["reference"] = *input.Reference
		}
		if input.Active != nil {
			fields["active"] = *input.Active
		}
		if len(fields) > 0 {
			if err := ps.productRepo.Update(ctx, tx, productID, fields); err != nil {
				return err
			}
		}

		if input.Categories != nil {
			categories := make([]*types.ProductCategory, 0, len(*input.Categories))
			for _, categoryID := range *input.Categories {
				categories = append(categories, &types.ProductCategory{
					ID:         uuid.New(),
					ProductID:  productID,
					CategoryID: categoryID,
				})
			}
			if err := ps.productRepo.ReplaceCategories(ctx, tx, productID, categories); err != nil {
				return err
			}
		}

		if input.Components != nil {
			components := make([]*types.ProductComponent, 0, len(*input.Components))
			for _, component := range *input.Components {
				components = append(components, &types.ProductComponent{
					ID:       uuid.New(),
					ParentID: productID,
					ChildID:  component.ProductID,
					Quantity: component.Quantity,
				})
			}
			if err := ps.productRepo.ReplaceComponents(ctx, tx, productID, components); err != nil {
				return err
			}
		}

		var txErr error
		updated, txErr = ps.productRepo.GetByIDFull(ctx, tx, productID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return newProductView(updated), nil
}

func (ps *productService) Delete(ctx context.Context, productID uuid.UUID) error {
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ps.productRepo.GetByIDFull(ctx, tx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Not found")
			}
			return err
		}
		return ps.productRepo.Delete(ctx, tx, productID)
	})
}

func (ps *productService) ListCategories(ctx context.Context) ([]*types.Category, error) {
	return ps.categoryRepo.List(ctx, nil)
}

func (ps *productService) CreateCategory(ctx context.Context, input CategoryInput) (*types.Category, error) {
	if input.Name == "" {
		return nil, apperrors.Validation("Missing required fields")
	}
	category := &types.Category{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
	}
	return ps.categoryRepo.Create(ctx, nil, category)
}

func (ps *productService) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*types.Category, error) {
	fields := map[string]interface{}{}
	if input.Name != "" {
		fields["name"] = input.Name
	}
	if input.Description != "" {
		fields["description"] = input.Description
	}
	if len(fields) == 0 {
		return nil, apperrors.Validation("No fields to update")
	}
	category, err := ps.categoryRepo.Update(ctx, nil, categoryID, fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Not found")
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (ps *productService) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ps.categoryRepo.GetByID(ctx, tx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Not found")
			}
			return err
		}
		return ps.categoryRepo.Delete(ctx, tx, categoryID)
	})
}
