package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type SubtaskInput struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
}

type TaskInput struct {
	Notes    *string         `json:"notes"`
	UserID   *uuid.UUID      `json:"userId"`
	Status   *string         `json:"status"`
	Subtasks *[]SubtaskInput `json:"subtasks"`
}

type ListTasksInput struct {
	Limit     int
	Page      int
	UserID    *uuid.UUID
	Status    string
	StartDate *time.Time
}

type TaskPage struct {
	Data     []*TaskView `json:"data"`
	NextPage *int        `json:"nextPage"`
	PrevPage *int        `json:"prevPage"`
}

type TaskService interface {
	List(ctx context.Context, input ListTasksInput) (*TaskPage, error)
	Get(ctx context.Context, taskID uuid.UUID) (*TaskView, error)
	Create(ctx context.Context, input TaskInput) (*TaskView, error)
	// Update applies replace-subtasks-on-update semantics: a supplied
	// subtasks array discards every existing subtask (events cascade with
	// their parent) and recreates the set with order taken from array
	// position; a supplied status without subtasks is fan-applied to every
	// subtask of the task instead.
	Update(ctx context.Context, taskID uuid.UUID, input TaskInput) (*TaskView, error)
	Delete(ctx context.Context, taskID uuid.UUID) error
}

type taskService struct {
	db          *gorm.DB
	log         *logger.Logger
	taskRepo    repos.TaskRepo
	subtaskRepo repos.SubtaskRepo
	eventRepo   repos.SubtaskEventRepo
}

func NewTaskService(db *gorm.DB, log *logger.Logger, taskRepo repos.TaskRepo, subtaskRepo repos.SubtaskRepo, eventRepo repos.SubtaskEventRepo) TaskService {
	serviceLog := log.With("service", "TaskService")
	return &taskService{
		db:          db,
		log:         serviceLog,
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
		eventRepo:   eventRepo,
	}
}

func (ts *taskService) List(ctx context.Context, input ListTasksInput) (*TaskPage, error) {
	limit, page := normalizePage(input.Limit, input.Page, 10)
	tasks, err := ts.taskRepo.List(ctx, nil, repos.TaskFilter{
		UserID:    input.UserID,
		Status:    input.Status,
		StartDate: input.StartDate,
		Limit:     limit + 1,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, apperrors.NotFound("Not found")
	}
	tasks, nextPage, prevPage := trimPage(tasks, page, limit)

	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, newTaskView(task))
	}
	return &TaskPage{Data: views, NextPage: nextPage, PrevPage: prevPage}, nil
}

func (ts *taskService) Get(ctx context.Context, taskID uuid.UUID) (*TaskView, error) {
	task, err := ts.taskRepo.GetByID(ctx, nil, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Not found")
	}
	if err != nil {
		return nil, err
	}
	return newTaskView(task), nil
}

func (ts *taskService) Create(ctx context.Context, input TaskInput) (*TaskView, error) {
	if input.UserID == nil || input.Subtasks == nil {
		return nil, apperrors.Validation("Missing required fields")
	}

	status := types.TaskStatusPending
	if input.Status != nil {
		status = *input.Status
	}

	task := &types.Task{
		ID:     uuid.New(),
		Status: status,
		UserID: *input.UserID,
	}
	if input.Notes != nil {
		task.Notes = *input.Notes
	}

	var created *types.Task
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ts.taskRepo.Create(ctx, tx, task); err != nil {
			return err
		}
		subtasks := buildSubtasks(task.ID, *input.Subtasks, status)
		if _, err := ts.subtaskRepo.Create(ctx, tx, subtasks); err != nil {
			return err
		}
		var txErr error
		created, txErr = ts.taskRepo.GetByID(ctx, tx, task.ID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return newTaskView(created), nil
}

func (ts *taskService) Update(ctx context.Context, taskID uuid.UUID, input TaskInput) (*TaskView, error) {
	var updated *types.Task
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ts.taskRepo.GetByID(ctx, tx, taskID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Not found")
			}
			return err
		}

		if input.Status != nil && input.Subtasks == nil {
			if err := ts.subtaskRepo.UpdateStatusByTask(ctx, tx, taskID, *input.Status); err != nil {
				return err
			}
		}

		if input.Subtasks != nil {
			if err := ts.eventRepo.DeleteByTask(ctx, tx, taskID); err != nil {
				return err
			}
			if err := ts.subtaskRepo.DeleteByTask(ctx, tx, taskID); err != nil {
				return err
			}
			status := types.TaskStatusPending
			if input.Status != nil {
				status = *input.Status
			}
			subtasks := buildSubtasks(taskID, *input.Subtasks, status)
			if _, err := ts.subtaskRepo.Create(ctx, tx, subtasks); err != nil {
				return err
			}
		}

		fields := map[string]interface{}{}
		if input.Notes != nil {
			fields["notes"] = *input.Notes
		}
		if input.Status != nil {
			fields["status"] = *input.Status
		}
		if input.UserID != nil {
			fields["user_id"] = *input.UserID
		}
		if len(fields) > 0 {
			if err := ts.taskRepo.Update(ctx, tx, taskID, fields); err != nil {
				return err
			}
		}

		var txErr error
		updated, txErr = ts.taskRepo.GetByID(ctx, tx, taskID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return newTaskView(updated), nil
}

func (ts *taskService) Delete(ctx context.Context, taskID uuid.UUID) error {
	return ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ts.taskRepo.GetByID(ctx, tx, taskID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Not found")
			}
			return err
		}
		if err := ts.eventRepo.DeleteByTask(ctx, tx, taskID); err != nil {
			return err
		}
		if err := ts.subtaskRepo.DeleteByTask(ctx, tx, taskID); err != nil {
			return err
		}
		return ts.taskRepo.Delete(ctx, tx, taskID)
	})
}

// buildSubtasks assigns each subtask an order equal to its index in the
// supplied array. Orders are dense and never renumbered later.
func buildSubtasks(taskID uuid.UUID, inputs []SubtaskInput, status string) []*types.Subtask {
	subtasks := make([]*types.Subtask, 0, len(inputs))
	for i, input := range inputs {
		subtaskStatus := input.Status
		if subtaskStatus == "" {
			subtaskStatus = status
		}
		subtasks = append(subtasks, &types.Subtask{
			ID:        uuid.New(),
			TaskID:    taskID,
			Order:     i,
			Quantity:  input.Quantity,
			Status:    subtaskStatus,
			Notes:     input.Notes,
			ProductID: input.ProductID,
		})
	}
	return subtasks
}
