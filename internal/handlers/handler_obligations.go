package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type obligationHandler struct {
	obligationService portssvc.ObligationSvc
}

func registerObligationRoutes(rg *gin.RouterGroup, obligationService portssvc.ObligationSvc) {
	h := &obligationHandler{obligationService: obligationService}
	rg.POST("/obligations/generate", h.generateObligations)
}

// generateObligations godoc
// @Summary Generate student charges
// @Description Creates the missing charges for every active student in scope. Safe to re-run.
// @Tags obligations
// @Accept  json
// @Produce  json
// @Param   scope body dto.GenerateObligationsRequest true "Generation scope"
// @Success 200 {object} domain.GenerationResult
// @Failure 400 {object} map[string]string "Invalid scope"
// @Failure 404 {object} map[string]string "Academic year not found"
// @Security BearerAuth
// @Router /obligations/generate [post]
func (h *obligationHandler) generateObligations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.GenerateObligationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for GenerateObligations", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := operatorID(c, logger)
	if !ok {
		return
	}

	scope := domain.GenerationScope{AcademicYearID: req.AcademicYearID, ClassID: req.ClassID, StudentID: req.StudentID}
	result, err := h.obligationService.GenerateObligations(c.Request.Context(), scope, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to generate obligations")
		return
	}
	c.JSON(http.StatusOK, result)
}
