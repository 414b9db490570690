package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// DocsHandler serves the checked-in OpenAPI document, converted to JSON once
// at startup.
type DocsHandler struct {
	document map[string]interface{}
}

func NewDocsHandler(path string) (*DocsHandler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}
	var document map[string]interface{}
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	return &DocsHandler{document: document}, nil
}

func (dh *DocsHandler) OpenAPI(c *gin.Context) {
	c.JSON(http.StatusOK, dh.document)
}
