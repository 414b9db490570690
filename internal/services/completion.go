package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

// CompletionService records a worker's completion report against a subtask and
// applies every consequence in one transaction: the event itself, the stock
// movements it implies, and any status flips on the subtask and owning task.
type CompletionService interface {
	CompleteSubtask(ctx context.Context, subtaskID uuid.UUID, actorID uuid.UUID, quantityCompleted int) (*types.Subtask, error)
}

type completionService struct {
	db          *gorm.DB
	log         *logger.Logger
	taskRepo    repos.TaskRepo
	subtaskRepo repos.SubtaskRepo
	eventRepo   repos.SubtaskEventRepo
	ledger      repos.StockLedger
}

func NewCompletionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taskRepo repos.TaskRepo,
	subtaskRepo repos.SubtaskRepo,
	eventRepo repos.SubtaskEventRepo,
	ledger repos.StockLedger,
) CompletionService {
	serviceLog := baseLog.With("service", "CompletionService")
	return &completionService{
		db:          db,
		log:         serviceLog,
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
		eventRepo:   eventRepo,
		ledger:      ledger,
	}
}

func (cs *completionService) CompleteSubtask(ctx context.Context, subtaskID uuid.UUID, actorID uuid.UUID, quantityCompleted int) (*types.Subtask, error) {
	var result *types.Subtask

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtask, err := cs.subtaskRepo.GetByIDFull(ctx, tx, subtaskID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Subtask not found.")
		}
		if err != nil {
			return fmt.Errorf("load subtask: %w", err)
		}

		priorCompleted := 0
		for _, event := range subtask.Events {
			priorCompleted += event.QuantityCompleted
		}

		// The reported quantity is recorded verbatim, even when it is zero,
		// negative, or pushes the total past the target. The ledger mirrors
		// whatever was reported; correcting entries reverse mistakes.
		event := &types.SubtaskEvent{
			ID:                uuid.New(),
			SubtaskID:         subtask.ID,
			QuantityCompleted: quantityCompleted,
			Timestamp:         time.Now().UTC(),
		}
		if _, err := cs.eventRepo.Create(ctx, tx, []*types.SubtaskEvent{event}); err != nil {
			return fmt.Errorf("record completion event: %w", err)
		}

		if _, err := cs.ledger.Record(ctx, tx, subtask.ProductID, quantityCompleted, types.MovementReasonSubtaskCompletion, actorID); err != nil {
			return fmt.Errorf("record produced stock: %w", err)
		}
		for _, component := range subtask.Product.Components {
			consumed := -component.Quantity * quantityCompleted
			if _, err := cs.ledger.Record(ctx, tx, component.ChildID, consumed, types.MovementReasonComponentConsumed, actorID); err != nil {
				return fmt.Errorf("record consumed stock: %w", err)
			}
		}

		if priorCompleted+quantityCompleted >= subtask.Quantity {
			if err := cs.subtaskRepo.UpdateStatus(ctx, tx, subtask.ID, types.TaskStatusCompleted); err != nil {
				return fmt.Errorf("complete subtask: %w", err)
			}
			if err := cs.maybeCompleteTask(ctx, tx, subtask.TaskID); err != nil {
				return err
			}
		}

		result, err = cs.subtaskRepo.GetByIDFull(ctx, tx, subtask.ID)
		if err != nil {
			return fmt.Errorf("reload subtask: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cs.log.Info("Recorded subtask completion",
		"subtask_id", subtaskID,
		"quantity_completed", quantityCompleted,
		"status", result.Status,
	)
	return result, nil
}

// maybeCompleteTask flips the owning task to completed once every one of its
// subtasks is completed. The check re-reads all siblings inside the same
// transaction, so a concurrent report on another subtask cannot be missed.
func (cs *completionService) maybeCompleteTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) error {
	siblings, err := cs.subtaskRepo.ListByTask(ctx, tx, taskID)
	if err != nil {
		return fmt.Errorf("load sibling subtasks: %w", err)
	}
	for _, sibling := range siblings {
		if sibling.Status != types.TaskStatusCompleted {
			return nil
		}
	}
	if err := cs.taskRepo.Update(ctx, tx, taskID, map[string]interface{}{"status": types.TaskStatusCompleted}); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}
