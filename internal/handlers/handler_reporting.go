package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type reportingHandler struct {
	reportingService portssvc.ReportingSvc
}

func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvc) {
	h := &reportingHandler{reportingService: reportingService}
	rg.GET("/reports/summary", h.getFinancialSummary)
}

// getFinancialSummary godoc
// @Summary Get the financial summary
// @Description Totals of fees, collections, pending, waivers and expenses. Computed on every call.
// @Tags reports
// @Produce  json
// @Param   academicYearID query string false "Academic year"
// @Param   studentID query string false "Student"
// @Success 200 {object} domain.FinancialSummary
// @Failure 404 {object} map[string]any "Academic year or student not found"
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *reportingHandler) getFinancialSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.SummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for summary", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	summary, err := h.reportingService.GetFinancialSummary(c.Request.Context(), params.Scope())
	if err != nil {
		respondWithError(c, logger, err, "Failed to compute financial summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
