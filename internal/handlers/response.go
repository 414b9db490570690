package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
)

var errInvalidBody = apperrors.Validation("Invalid request body")

// RespondError is the single place business errors become HTTP responses.
// Typed errors carry their own status; database constraint violations
// (duplicate key, broken reference) surface as plain 400s rather than
// leaking driver detail.
func RespondError(c *gin.Context, err error) {
	status := apperrors.Status(err)
	message := apperrors.Message(err)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			status = http.StatusBadRequest
			message = "Duplicate value for a unique field."
		case "23503":
			status = http.StatusBadRequest
			message = "Referenced record does not exist."
		}
	}

	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
