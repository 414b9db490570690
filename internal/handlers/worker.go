package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/middleware"
	"github.com/prodmanhq/prodman-backend/internal/services"
)

type WorkerHandler struct {
	dispatchService   services.DispatchService
	completionService services.CompletionService
	userService       services.UserService
}

func NewWorkerHandler(
	dispatchService services.DispatchService,
	completionService services.CompletionService,
	userService services.UserService,
) *WorkerHandler {
	return &WorkerHandler{
		dispatchService:   dispatchService,
		completionService: completionService,
		userService:       userService,
	}
}

// NextTask hands the calling worker their oldest open task, with its subtask
// list shaped by the dispatch policy. An empty answer is a valid one: no
// pending work responds 200 with a null body.
func (wh *WorkerHandler) NextTask(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session == nil {
		RespondError(c, apperrors.Unauthorized("Not authenticated"))
		return
	}
	task, err := wh.dispatchService.NextAssignment(c.Request.Context(), session.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, task)
}

func (wh *WorkerHandler) ActiveWorkers(c *gin.Context) {
	workers, err := wh.userService.ActiveWorkers(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, workers)
}

func (wh *WorkerHandler) CompleteSubtask(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session == nil {
		RespondError(c, apperrors.Unauthorized("Not authenticated"))
		return
	}
	subtaskID, err := uuidParam(c, "subtaskId")
	if err != nil {
		RespondError(c, err)
		return
	}
	var body struct {
		QuantityCompleted int `json:"quantityCompleted"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, errInvalidBody)
		return
	}

	if _, err := wh.completionService.CompleteSubtask(c.Request.Context(), subtaskID, session.UserID, body.QuantityCompleted); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
