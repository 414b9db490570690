package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

// StockLedger is the append-only inventory ledger. There is no read, update
// or delete path: every stock change lands as a discrete signed row, so
// concurrent writers never race on a shared counter.
type StockLedger interface {
	Record(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int, reason string, actorID uuid.UUID) (*types.StockMovement, error)
}

type stockLedger struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStockLedger(db *gorm.DB, baseLog *logger.Logger) StockLedger {
	repoLog := baseLog.With("repo", "StockLedger")
	return &stockLedger{db: db, log: repoLog}
}

func (sl *stockLedger) Record(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int, reason string, actorID uuid.UUID) (*types.StockMovement, error) {
	transaction := tx
	if transaction == nil {
		transaction = sl.db
	}

	movement := &types.StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		Reason:    reason,
		UserID:    actorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}
