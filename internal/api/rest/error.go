package rest

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nftzone/registry-indexer/internal/logger"
)

// ErrorCode identifies error categories for API consumers
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func respondWithError(c *gin.Context, status int, code ErrorCode, message, details string) {
	c.JSON(status, errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func respondBadRequest(c *gin.Context, message string) {
	respondWithError(c, 400, ErrCodeBadRequest, message, "")
}

func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, 404, ErrCodeNotFound, message, "")
}

func respondValidationError(c *gin.Context, message, details string) {
	respondWithError(c, 400, ErrCodeValidation, message, details)
}

func respondConflict(c *gin.Context, message, details string) {
	respondWithError(c, 409, ErrCodeConflict, message, details)
}

func respondInternalError(c *gin.Context, message string, err error) {
	logger.Error(err, zap.String("path", c.FullPath()))
	respondWithError(c, 500, ErrCodeInternalError, message, "")
}
