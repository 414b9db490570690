package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

// DispatchService decides what a worker should do next. The shape of the
// answer depends on the workerGetNextSubtask policy flag: when it is on, the
// worker is handed the single next pending subtask of their oldest open task;
// when it is off, they see every pending subtask of that task at once.
type DispatchService interface {
	NextAssignment(ctx context.Context, workerID uuid.UUID) (*types.Task, error)
}

type dispatchService struct {
	db          *gorm.DB
	log         *logger.Logger
	taskRepo    repos.TaskRepo
	subtaskRepo repos.SubtaskRepo
	config      ConfigService
}

func NewDispatchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taskRepo repos.TaskRepo,
	subtaskRepo repos.SubtaskRepo,
	config ConfigService,
) DispatchService {
	serviceLog := baseLog.With("service", "DispatchService")
	return &dispatchService{
		db:          db,
		log:         serviceLog,
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
		config:      config,
	}
}

func (ds *dispatchService) NextAssignment(ctx context.Context, workerID uuid.UUID) (*types.Task, error) {
	singleSubtask, err := ds.config.GetBool(ctx, types.ConfigKeyWorkerGetNextSubtask)
	if err != nil {
		return nil, err
	}

	task, err := ds.taskRepo.GetNextPending(ctx, nil, workerID)
	if err != nil {
		return nil, fmt.Errorf("find next pending task: %w", err)
	}
	if task == nil {
		return nil, nil
	}

	limit := 0
	if singleSubtask {
		limit = 1
	}
	subtasks, err := ds.subtaskRepo.ListPendingByTask(ctx, nil, task.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("load pending subtasks: %w", err)
	}
	task.Subtasks = make([]types.Subtask, 0, len(subtasks))
	for _, subtask := range subtasks {
		task.Subtasks = append(task.Subtasks, *subtask)
	}
	return task, nil
}
