package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/services"
)

type ConfigHandler struct {
	configService services.ConfigService
}

func NewConfigHandler(configService services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

func (ch *ConfigHandler) Get(c *gin.Context) {
	values, err := ch.configService.GetAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, values)
}

// Update accepts a partial map; only the supplied keys change.
func (ch *ConfigHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	values, err := ch.configService.UpdateMany(c.Request.Context(), updates)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, values)
}
