package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/repos/testutil"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

func newTaskHarness(t *testing.T) (TaskService, *gorm.DB) {
	t.Helper()

	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	taskRepo := repos.NewTaskRepo(tx, log)
	subtaskRepo := repos.NewSubtaskRepo(tx, log)
	eventRepo := repos.NewSubtaskEventRepo(tx, log)
	service := NewTaskService(tx, log, taskRepo, subtaskRepo, eventRepo)
	return service, tx
}

func TestTaskGet_PercentageCompleted(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Cabinet")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)

	targets := []int{8, 3, 3, 10, 3}
	var first *types.Subtask
	for i, target := range targets {
		subtask := testutil.SeedSubtask(t, tx, task, product, i, target, types.TaskStatusPending)
		if i == 0 {
			first = subtask
		}
	}
	testutil.SeedEvent(t, tx, first, 4, time.Now().UTC())

	view, err := service.Get(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if view.PercentageCompleted != 14.81 {
		t.Fatalf("expected 14.81, got %v", view.PercentageCompleted)
	}
}

func TestTaskGet_ZeroTargetPercentageIsZero(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)

	view, err := service.Get(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if view.PercentageCompleted != 0 {
		t.Fatalf("expected 0 for a task with no subtasks, got %v", view.PercentageCompleted)
	}
}

func TestTaskCreate_AssignsOrderFromArrayPosition(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Drawer")

	notes := "batch one"
	view, err := service.Create(context.Background(), TaskInput{
		Notes:  &notes,
		UserID: &worker.ID,
		Subtasks: &[]SubtaskInput{
			{ProductID: product.ID, Quantity: 5},
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if len(view.Subtasks) != 3 {
		t.Fatalf("expected 3 subtasks, got %d", len(view.Subtasks))
	}
	for i, subtask := range view.Subtasks {
		if subtask.Order != i {
			t.Fatalf("expected order %d at position %d, got %d", i, i, subtask.Order)
		}
		if subtask.Status != types.TaskStatusPending {
			t.Fatalf("expected pending subtask, got %q", subtask.Status)
		}
	}
}

func TestTaskCreate_RequiresUserAndSubtasks(t *testing.T) {
	service, _ := newTaskHarness(t)

	_, err := service.Create(context.Background(), TaskInput{})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if apperrors.Status(err) != 400 {
		t.Fatalf("expected 400, got %d", apperrors.Status(err))
	}
}

func TestTaskUpdate_ReplacesSubtasksAndDropsEvents(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Frame")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	old := testutil.SeedSubtask(t, tx, task, product, 0, 5, types.TaskStatusPending)
	testutil.SeedEvent(t, tx, old, 2, time.Now().UTC())

	view, err := service.Update(context.Background(), task.ID, TaskInput{
		Subtasks: &[]SubtaskInput{
			{ProductID: product.ID, Quantity: 7},
		},
	})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if len(view.Subtasks) != 1 {
		t.Fatalf("expected replacement set of 1, got %d", len(view.Subtasks))
	}
	if view.Subtasks[0].ID == old.ID {
		t.Fatalf("expected the old subtask to be recreated, not kept")
	}
	if view.Subtasks[0].Quantity != 7 {
		t.Fatalf("expected new target 7, got %d", view.Subtasks[0].Quantity)
	}
	if len(view.Subtasks[0].Events) != 0 {
		t.Fatalf("expected old events discarded, got %d", len(view.Subtasks[0].Events))
	}

	var orphaned int64
	if err := tx.Model(&types.SubtaskEvent{}).Where("subtask_id = ?", old.ID).Count(&orphaned).Error; err != nil {
		t.Fatalf("count old events: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("expected old events deleted with their subtask")
	}
}

func TestTaskUpdate_StatusFansOutToSubtasks(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Panel")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, task, product, 0, 5, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, task, product, 1, 5, types.TaskStatusPending)

	status := types.TaskStatusCancelled
	view, err := service.Update(context.Background(), task.ID, TaskInput{Status: &status})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if view.Status != types.TaskStatusCancelled {
		t.Fatalf("expected cancelled task, got %q", view.Status)
	}
	for _, subtask := range view.Subtasks {
		if subtask.Status != types.TaskStatusCancelled {
			t.Fatalf("expected status fan-out, subtask has %q", subtask.Status)
		}
	}
}

func TestTaskList_Pagination(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Box")
	for i := 0; i < 2; i++ {
		task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
		testutil.SeedSubtask(t, tx, task, product, 0, 1, types.TaskStatusPending)
	}

	page, err := service.List(context.Background(), ListTasksInput{
		UserID: &worker.ID,
		Limit:  1,
		Page:   2,
	})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected one task on page 2, got %d", len(page.Data))
	}
	if page.NextPage != nil {
		t.Fatalf("expected no next page, got %d", *page.NextPage)
	}
	if page.PrevPage == nil || *page.PrevPage != 1 {
		t.Fatalf("expected prevPage=1")
	}
}

func TestTaskList_EmptyPageIsNotFound(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)

	_, err := service.List(context.Background(), ListTasksInput{UserID: &worker.ID})
	if err == nil {
		t.Fatalf("expected not found for an empty page")
	}
	if apperrors.Status(err) != 404 {
		t.Fatalf("expected 404, got %d", apperrors.Status(err))
	}
}

func TestTaskDelete_RemovesSubtasksAndEvents(t *testing.T) {
	service, tx := newTaskHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Crate")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	subtask := testutil.SeedSubtask(t, tx, task, product, 0, 5, types.TaskStatusPending)
	testutil.SeedEvent(t, tx, subtask, 1, time.Now().UTC())

	if err := service.Delete(context.Background(), task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	var remaining int64
	if err := tx.Model(&types.Subtask{}).Where("task_id = ?", task.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("count subtasks: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected subtasks removed")
	}
	if _, err := service.Get(context.Background(), task.ID); apperrors.Status(err) != 404 {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
}
