package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/services"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (th *TaskHandler) List(c *gin.Context) {
	userID, err := uuidQuery(c, "userId")
	if err != nil {
		RespondError(c, err)
		return
	}
	startDate, err := timeQuery(c, "startDate")
	if err != nil {
		RespondError(c, err)
		return
	}

	page, err := th.taskService.List(c.Request.Context(), services.ListTasksInput{
		Limit:     intQuery(c, "limit", 0),
		Page:      intQuery(c, "page", 1),
		UserID:    userID,
		Status:    c.Query("status"),
		StartDate: startDate,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, page)
}

func (th *TaskHandler) Get(c *gin.Context) {
	taskID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	task, err := th.taskService.Get(c.Request.Context(), taskID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, task)
}

func (th *TaskHandler) Create(c *gin.Context) {
	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	task, err := th.taskService.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, task)
}

func (th *TaskHandler) Update(c *gin.Context) {
	taskID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	task, err := th.taskService.Update(c.Request.Context(), taskID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, task)
}

func (th *TaskHandler) Delete(c *gin.Context) {
	taskID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := th.taskService.Delete(c.Request.Context(), taskID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
