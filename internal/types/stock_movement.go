package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	MovementReasonSubtaskCompletion = "Subtask completion"
	MovementReasonComponentConsumed = "Used in subtask completion"
)

// StockMovement is one row of the append-only inventory ledger. Quantity is
// a signed delta; the current stock level of a product is the sum of its
// movements. No running balance is stored anywhere.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index;column:product_id" json:"productId"`
	Quantity  int       `gorm:"not null;column:quantity" json:"quantity"`
	Reason    string    `gorm:"not null;column:reason" json:"reason"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (StockMovement) TableName() string {
	return "stock_movement"
}
