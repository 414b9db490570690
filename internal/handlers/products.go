package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/services"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (ph *ProductHandler) List(c *gin.Context) {
	categoryID, err := uuidQuery(c, "category")
	if err != nil {
		RespondError(c, err)
		return
	}

	page, err := ph.productService.List(c.Request.Context(), services.ListProductsInput{
		Limit:           intQuery(c, "limit", 0),
		Page:            intQuery(c, "page", 1),
		Search:          c.Query("search"),
		CategoryID:      categoryID,
		IncludeInactive: c.Query("inactive") == "true",
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, page)
}

func (ph *ProductHandler) Get(c *gin.Context) {
	productID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	product, err := ph.productService.Get(c.Request.Context(), productID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, product)
}

func (ph *ProductHandler) Create(c *gin.Context) {
	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	product, err := ph.productService.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, product)
}

func (ph *ProductHandler) Update(c *gin.Context) {
	productID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	product, err := ph.productService.Update(c.Request.Context(), productID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, product)
}

func (ph *ProductHandler) Delete(c *gin.Context) {
	productID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ph.productService.Delete(c.Request.Context(), productID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ph *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := ph.productService.ListCategories(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, categories)
}

func (ph *ProductHandler) CreateCategory(c *gin.Context) {
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	category, err := ph.productService.CreateCategory(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, category)
}

func (ph *ProductHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}
	category, err := ph.productService.UpdateCategory(c.Request.Context(), categoryID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, category)
}

func (ph *ProductHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := uuidParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ph.productService.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
