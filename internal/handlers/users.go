package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) List(c *gin.Context) {
	page, err := uh.userService.List(c.Request.Context(), services.ListUsersInput{
		Limit:  intQuery(c, "limit", 0),
		Page:   intQuery(c, "page", 1),
		Search: c.Query("search"),
		Role:   c.Query("role"),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, page)
}

func (uh *UserHandler) Get(c *gin.Context) {
	userID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	user, err := uh.userService.Get(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) Create(c *gin.Context) {
	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	user, err := uh.userService.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, user)
}

func (uh *UserHandler) Update(c *gin.Context) {
	userID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var input services.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	user, err := uh.userService.Update(c.Request.Context(), userID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UpdateCredentials(c *gin.Context) {
	userID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var input services.CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	user, err := uh.userService.UpdateCredentials(c.Request.Context(), userID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, user)
}
