package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/repos/testutil"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

func newDispatchHarness(t *testing.T) (DispatchService, *gorm.DB) {
	t.Helper()

	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	taskRepo := repos.NewTaskRepo(tx, log)
	subtaskRepo := repos.NewSubtaskRepo(tx, log)
	configRepo := repos.NewConfigRepo(tx, log)
	configService := NewConfigService(tx, log, configRepo)
	service := NewDispatchService(tx, log, taskRepo, subtaskRepo, configService)
	return service, tx
}

func TestNextAssignment_SingleSubtaskPolicy(t *testing.T) {
	service, tx := newDispatchHarness(t)
	testutil.SeedConfig(t, tx, types.ConfigKeyWorkerGetNextSubtask, "true", types.ConfigTypeBoolean)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Bench")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, task, product, 0, 5, types.TaskStatusCompleted)
	second := testutil.SeedSubtask(t, tx, task, product, 1, 5, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, task, product, 2, 5, types.TaskStatusPending)

	assignment, err := service.NextAssignment(context.Background(), worker.ID)
	if err != nil {
		t.Fatalf("next assignment: %v", err)
	}
	if assignment == nil {
		t.Fatalf("expected an assignment")
	}
	if len(assignment.Subtasks) != 1 {
		t.Fatalf("expected exactly one subtask, got %d", len(assignment.Subtasks))
	}
	if assignment.Subtasks[0].ID != second.ID {
		t.Fatalf("expected the lowest-order pending subtask, got order %d", assignment.Subtasks[0].Order)
	}
}

func TestNextAssignment_AllPendingSubtasksPolicy(t *testing.T) {
	service, tx := newDispatchHarness(t)
	testutil.SeedConfig(t, tx, types.ConfigKeyWorkerGetNextSubtask, "false", types.ConfigTypeBoolean)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Bench")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, task, product, 0, 5, types.TaskStatusCompleted)
	testutil.SeedSubtask(t, tx, task, product, 1, 5, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, task, product, 2, 5, types.TaskStatusPending)

	assignment, err := service.NextAssignment(context.Background(), worker.ID)
	if err != nil {
		t.Fatalf("next assignment: %v", err)
	}
	if assignment == nil {
		t.Fatalf("expected an assignment")
	}
	if len(assignment.Subtasks) != 2 {
		t.Fatalf("expected both pending subtasks, got %d", len(assignment.Subtasks))
	}
	if assignment.Subtasks[0].Order != 1 || assignment.Subtasks[1].Order != 2 {
		t.Fatalf("expected subtasks ordered ascending, got %d,%d", assignment.Subtasks[0].Order, assignment.Subtasks[1].Order)
	}
}

func TestNextAssignment_OldestTaskWins(t *testing.T) {
	service, tx := newDispatchHarness(t)
	testutil.SeedConfig(t, tx, types.ConfigKeyWorkerGetNextSubtask, "false", types.ConfigTypeBoolean)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Desk")

	older := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	older.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	if err := tx.Save(older).Error; err != nil {
		t.Fatalf("backdate task: %v", err)
	}
	testutil.SeedSubtask(t, tx, older, product, 0, 5, types.TaskStatusPending)

	newer := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, newer, product, 0, 5, types.TaskStatusPending)

	assignment, err := service.NextAssignment(context.Background(), worker.ID)
	if err != nil {
		t.Fatalf("next assignment: %v", err)
	}
	if assignment == nil || assignment.ID != older.ID {
		t.Fatalf("expected the oldest pending task")
	}
}

func TestNextAssignment_SkipsTasksWithoutPendingSubtasks(t *testing.T) {
	service, tx := newDispatchHarness(t)
	testutil.SeedConfig(t, tx, types.ConfigKeyWorkerGetNextSubtask, "false", types.ConfigTypeBoolean)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Rack")

	exhausted := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	exhausted.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	if err := tx.Save(exhausted).Error; err != nil {
		t.Fatalf("backdate task: %v", err)
	}
	testutil.SeedSubtask(t, tx, exhausted, product, 0, 5, types.TaskStatusCompleted)

	open := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, open, product, 0, 5, types.TaskStatusPending)

	assignment, err := service.NextAssignment(context.Background(), worker.ID)
	if err != nil {
		t.Fatalf("next assignment: %v", err)
	}
	if assignment == nil || assignment.ID != open.ID {
		t.Fatalf("expected the task that still has pending work")
	}
}

func TestNextAssignment_NoPendingWorkReturnsNil(t *testing.T) {
	service, tx := newDispatchHarness(t)
	testutil.SeedConfig(t, tx, types.ConfigKeyWorkerGetNextSubtask, "true", types.ConfigTypeBoolean)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)

	assignment, err := service.NextAssignment(context.Background(), worker.ID)
	if err != nil {
		t.Fatalf("next assignment: %v", err)
	}
	if assignment != nil {
		t.Fatalf("expected nil assignment, got %+v", assignment)
	}
}

func TestNextAssignment_MissingPolicyKeyFails(t *testing.T) {
	service, tx := newDispatchHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)

	_, err := service.NextAssignment(context.Background(), worker.ID)
	if err == nil {
		t.Fatalf("expected error when policy key is absent")
	}
}
