package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/repos/testutil"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

func newCompletionHarness(t *testing.T) (CompletionService, repos.TaskRepo, *gorm.DB) {
	t.Helper()

	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	taskRepo := repos.NewTaskRepo(tx, log)
	subtaskRepo := repos.NewSubtaskRepo(tx, log)
	eventRepo := repos.NewSubtaskEventRepo(tx, log)
	ledger := repos.NewStockLedger(tx, log)
	service := NewCompletionService(tx, log, taskRepo, subtaskRepo, eventRepo, ledger)
	return service, taskRepo, tx
}

// The ledger has no read path, so assertions go straight to the rows.
func ledgerRows(t *testing.T, tx *gorm.DB, productID uuid.UUID) []*types.StockMovement {
	t.Helper()

	var rows []*types.StockMovement
	if err := tx.Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	return rows
}

func TestCompleteSubtask_WritesDiscreteLedgerRows(t *testing.T) {
	service, _, tx := newCompletionHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	chair := testutil.SeedProduct(t, tx, "Chair")
	leg := testutil.SeedProduct(t, tx, "Leg")
	seat := testutil.SeedProduct(t, tx, "Seat")
	testutil.SeedComponent(t, tx, chair, leg, 4)
	testutil.SeedComponent(t, tx, chair, seat, 1)
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	subtask := testutil.SeedSubtask(t, tx, task, chair, 0, 10, types.TaskStatusPending)

	if _, err := service.CompleteSubtask(context.Background(), subtask.ID, worker.ID, 3); err != nil {
		t.Fatalf("complete subtask: %v", err)
	}

	chairMoves := ledgerRows(t, tx, chair.ID)
	if len(chairMoves) != 1 || chairMoves[0].Quantity != 3 {
		t.Fatalf("expected one +3 movement for product, got %+v", chairMoves)
	}
	if chairMoves[0].Reason != types.MovementReasonSubtaskCompletion {
		t.Fatalf("unexpected reason %q", chairMoves[0].Reason)
	}

	legMoves := ledgerRows(t, tx, leg.ID)
	if len(legMoves) != 1 || legMoves[0].Quantity != -12 {
		t.Fatalf("expected one -12 movement for 4x component, got %+v", legMoves)
	}
	if legMoves[0].Reason != types.MovementReasonComponentConsumed {
		t.Fatalf("unexpected reason %q", legMoves[0].Reason)
	}

	seatMoves := ledgerRows(t, tx, seat.ID)
	if len(seatMoves) != 1 || seatMoves[0].Quantity != -3 {
		t.Fatalf("expected one -3 movement for 1x component, got %+v", seatMoves)
	}
}

func TestCompleteSubtask_PartialReportsAreAdditive(t *testing.T) {
	service, _, tx := newCompletionHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Table")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	subtask := testutil.SeedSubtask(t, tx, task, product, 0, 10, types.TaskStatusPending)

	for _, quantity := range []int{2, 3, 1} {
		updated, err := service.CompleteSubtask(context.Background(), subtask.ID, worker.ID, quantity)
		if err != nil {
			t.Fatalf("complete subtask with %d: %v", quantity, err)
		}
		if updated.Status != types.TaskStatusPending {
			t.Fatalf("subtask completed early at quantity %d", quantity)
		}
	}

	final, err := service.CompleteSubtask(context.Background(), subtask.ID, worker.ID, 4)
	if err != nil {
		t.Fatalf("final report: %v", err)
	}
	if final.Status != types.TaskStatusCompleted {
		t.Fatalf("expected completed after total 10, got %q", final.Status)
	}

	total := 0
	for _, event := range final.Events {
		total += event.QuantityCompleted
	}
	if total != 10 {
		t.Fatalf("expected event sum 10, got %d", total)
	}
	if len(final.Events) != 4 {
		t.Fatalf("expected 4 discrete events, got %d", len(final.Events))
	}
}

func TestCompleteSubtask_TaskCompletesOnlyWhenAllSubtasksDo(t *testing.T) {
	service, taskRepo, tx := newCompletionHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Shelf")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	first := testutil.SeedSubtask(t, tx, task, product, 0, 5, types.TaskStatusPending)
	second := testutil.SeedSubtask(t, tx, task, product, 1, 5, types.TaskStatusPending)

	if _, err := service.CompleteSubtask(context.Background(), first.ID, worker.ID, 5); err != nil {
		t.Fatalf("complete first subtask: %v", err)
	}
	reloaded, err := taskRepo.GetByID(context.Background(), nil, task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.Status != types.TaskStatusPending {
		t.Fatalf("task completed with a pending subtask remaining")
	}

	if _, err := service.CompleteSubtask(context.Background(), second.ID, worker.ID, 5); err != nil {
		t.Fatalf("complete second subtask: %v", err)
	}
	reloaded, err = taskRepo.GetByID(context.Background(), nil, task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.Status != types.TaskStatusCompleted {
		t.Fatalf("expected task completed after last subtask, got %q", reloaded.Status)
	}
}

func TestCompleteSubtask_OverReportStillCompletes(t *testing.T) {
	service, _, tx := newCompletionHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Lamp")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	subtask := testutil.SeedSubtask(t, tx, task, product, 0, 3, types.TaskStatusPending)

	updated, err := service.CompleteSubtask(context.Background(), subtask.ID, worker.ID, 7)
	if err != nil {
		t.Fatalf("over-report: %v", err)
	}
	if updated.Status != types.TaskStatusCompleted {
		t.Fatalf("expected completed on over-report, got %q", updated.Status)
	}
	if len(updated.Events) != 1 || updated.Events[0].QuantityCompleted != 7 {
		t.Fatalf("expected the reported quantity recorded verbatim, got %+v", updated.Events)
	}
}

func TestCompleteSubtask_ZeroReportNeverCompletes(t *testing.T) {
	service, _, tx := newCompletionHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Stool")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	subtask := testutil.SeedSubtask(t, tx, task, product, 0, 2, types.TaskStatusPending)

	updated, err := service.CompleteSubtask(context.Background(), subtask.ID, worker.ID, 0)
	if err != nil {
		t.Fatalf("zero report: %v", err)
	}
	if updated.Status != types.TaskStatusPending {
		t.Fatalf("zero report must not complete, got %q", updated.Status)
	}

	moves := ledgerRows(t, tx, product.ID)
	if len(moves) != 1 || moves[0].Quantity != 0 {
		t.Fatalf("expected a zero-magnitude movement, got %+v", moves)
	}
}

func TestCompleteSubtask_UnknownSubtaskIsNotFound(t *testing.T) {
	service, _, tx := newCompletionHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	_, err := service.CompleteSubtask(context.Background(), uuid.New(), worker.ID, 1)
	if err == nil {
		t.Fatalf("expected not found error")
	}
	if apperrors.Status(err) != 404 {
		t.Fatalf("expected 404, got %d (%v)", apperrors.Status(err), err)
	}
}
