package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondWithError writes the status mapped from err. Ledger errors carry their structured
// details so clients can point at the offending charge. Server errors only expose fallbackMsg.
func respondWithError(c *gin.Context, logger *slog.Logger, err error, fallbackMsg string) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": fallbackMsg})
		return
	}

	logger.Warn(fallbackMsg, slog.String("error", err.Error()), slog.Int("status", status))
	body := gin.H{"error": err.Error()}
	var ledgerErr *apperrors.LedgerError
	if errors.As(err, &ledgerErr) {
		body["details"] = ledgerErr
	}
	c.JSON(status, body)
}

// operatorID returns the authenticated operator or answers 401.
func operatorID(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Operator ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}
