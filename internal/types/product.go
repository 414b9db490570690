package types

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string             `gorm:"not null;index;column:name" json:"name"`
	Description string             `gorm:"column:description" json:"description"`
	Price       float64            `gorm:"not null;column:price" json:"price"`
	Reference   string             `gorm:"column:reference" json:"reference"`
	Active      bool               `gorm:"not null;column:active" json:"active"`
	Categories  []ProductCategory  `gorm:"foreignKey:ProductID" json:"-"`
	Components  []ProductComponent `gorm:"foreignKey:ParentID" json:"-"`
	CreatedAt   time.Time          `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time          `gorm:"not null" json:"updatedAt"`
}

func (Product) TableName() string {
	return "product"
}

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

func (Category) TableName() string {
	return "category"
}

type ProductCategory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index;column:product_id" json:"productId"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index;column:category_id" json:"categoryId"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (ProductCategory) TableName() string {
	return "product_category"
}

// ProductComponent is one directed, quantity-weighted edge of the
// bill-of-materials graph: producing one unit of the parent consumes
// Quantity units of the child. Only direct self-reference is guarded;
// deeper cycles are not prevented by the store.
type ProductComponent struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ParentID uuid.UUID `gorm:"type:uuid;not null;index;column:parent_id" json:"parentId"`
	ChildID  uuid.UUID `gorm:"type:uuid;not null;index;column:child_id" json:"childId"`
	Quantity int       `gorm:"not null;column:quantity" json:"quantity"`
	Child    *Product  `gorm:"foreignKey:ChildID" json:"child,omitempty"`
}

func (ProductComponent) TableName() string {
	return "product_component"
}
