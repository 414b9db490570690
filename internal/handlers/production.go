package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/services"
)

type ProductionHandler struct {
	productionService services.ProductionService
}

func NewProductionHandler(productionService services.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

func (ph *ProductionHandler) ListEvents(c *gin.Context) {
	userID, err := uuidQuery(c, "userId")
	if err != nil {
		RespondError(c, err)
		return
	}
	productID, err := uuidQuery(c, "productId")
	if err != nil {
		RespondError(c, err)
		return
	}
	startDate, err := timeQuery(c, "startDate")
	if err != nil {
		RespondError(c, err)
		return
	}
	endDate, err := timeQuery(c, "endDate")
	if err != nil {
		RespondError(c, err)
		return
	}

	page, err := ph.productionService.ListEvents(c.Request.Context(), services.ListEventsInput{
		UserID:    userID,
		ProductID: productID,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     intQuery(c, "limit", 0),
		Page:      intQuery(c, "page", 1),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, page)
}

func (ph *ProductionHandler) Report(c *gin.Context) {
	userID, err := uuidQuery(c, "userId")
	if err != nil {
		RespondError(c, err)
		return
	}
	productID, err := uuidQuery(c, "productId")
	if err != nil {
		RespondError(c, err)
		return
	}
	startDate, err := timeQuery(c, "startDate")
	if err != nil {
		RespondError(c, err)
		return
	}
	endDate, err := timeQuery(c, "endDate")
	if err != nil {
		RespondError(c, err)
		return
	}

	report, err := ph.productionService.Report(c.Request.Context(), services.ReportInput{
		UserID:    userID,
		ProductID: productID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, report)
}
