package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/middleware"
	"github.com/SscSPs/school_fee_ledger/internal/utils"
	"github.com/gin-gonic/gin"
)

// studentHandler serves the per-student ledger views and charge waivers.
type studentHandler struct {
	collectionService portssvc.CollectionSvcFacade
	statementService  portssvc.StatementSvc
}

func registerStudentRoutes(rg *gin.RouterGroup, collectionService portssvc.CollectionSvcFacade, statementService portssvc.StatementSvc) {
	h := &studentHandler{collectionService: collectionService, statementService: statementService}

	students := rg.Group("/students/:id")
	{
		students.GET("/fees", h.listStudentFees)
		students.GET("/statement", h.getStatement)
	}
	rg.POST("/student-fees/:id/waive", h.waiveStudentFee)
}

// listStudentFees godoc
// @Summary List a student's charges
// @Description Status is evaluated as of now, so unpaid charges past due read OVERDUE
// @Tags students
// @Produce  json
// @Param   id path string true "Student ID"
// @Param   status query string false "PENDING, PARTIAL, PAID, OVERDUE or WAIVED"
// @Success 200 {array} dto.StudentFeeResponse
// @Failure 404 {object} map[string]any "Student not found"
// @Security BearerAuth
// @Router /students/{id}/fees [get]
func (h *studentHandler) listStudentFees(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("student_id", c.Param("id")))

	var status *domain.StudentFeeStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := domain.StudentFeeStatus(strings.ToUpper(raw))
		status = &s
	}

	fees, err := h.collectionService.GetStudentFees(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list student fees")
		return
	}
	c.JSON(http.StatusOK, dto.ToStudentFeeResponses(fees))
}

// getStatement godoc
// @Summary Get a student's statement
// @Description Charges and completed payments newest first with a running balance
// @Tags students
// @Produce  json
// @Param   id path string true "Student ID"
// @Success 200 {object} domain.Statement
// @Failure 404 {object} map[string]any "Student not found"
// @Security BearerAuth
// @Router /students/{id}/statement [get]
func (h *studentHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("student_id", c.Param("id")))
	statement, err := h.statementService.GetStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to build statement")
		return
	}
	c.JSON(http.StatusOK, statement)
}

// waiveStudentFee godoc
// @Summary Waive a charge
// @Description Writes off the remaining balance. Money already paid stays paid.
// @Tags students
// @Accept  json
// @Produce  json
// @Param   id path string true "Student fee ID"
// @Param   waiver body dto.WaiveStudentFeeRequest true "Reason"
// @Success 200 {object} dto.StudentFeeResponse
// @Failure 404 {object} map[string]any "Charge not found"
// @Failure 409 {object} map[string]any "Charge already settled"
// @Security BearerAuth
// @Router /student-fees/{id}/waive [post]
func (h *studentHandler) waiveStudentFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("student_fee_id", c.Param("id")))
	var req dto.WaiveStudentFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for WaiveStudentFee", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := operatorID(c, logger)
	if !ok {
		return
	}

	fee, err := h.collectionService.WaiveStudentFee(c.Request.Context(), c.Param("id"), req.Reason, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to waive student fee")
		return
	}
	logger.Info("Student fee waived", slog.String("waived_amount", utils.FormatAmount(fee.WaivedAmount)))
	c.JSON(http.StatusOK, dto.ToStudentFeeResponse(fee))
}
