package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/middleware"
	"github.com/SscSPs/school_fee_ledger/internal/utils"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry a collection safely without repeating the key in the body.
const IdempotencyKeyHeader = "Idempotency-Key"

// paymentHandler handles HTTP requests for payments and their receipts.
type paymentHandler struct {
	collectionService portssvc.CollectionSvcFacade
	receiptService    portssvc.ReceiptSvc
}

func newPaymentHandler(cs portssvc.CollectionSvcFacade, rs portssvc.ReceiptSvc) *paymentHandler {
	return &paymentHandler{collectionService: cs, receiptService: rs}
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, collectionService portssvc.CollectionSvcFacade, receiptService portssvc.ReceiptSvc) {
	h := newPaymentHandler(collectionService, receiptService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.collectPayment)
		payments.GET("", h.listPayments)
		payments.GET("/:id", h.getPayment)
		payments.POST("/:id/reverse", h.reversePayment)
		payments.GET("/:id/receipt", h.getReceipt)
		payments.GET("/:id/receipt/print", h.printReceipt)
	}
}

// collectPayment godoc
// @Summary Collect a payment
// @Description Records a payment and allocates it across the student's charges in one atomic step.
// @Description The allocation amounts must add up to the payment amount.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   payment body dto.CollectPaymentRequest true "Payment"
// @Success 201 {object} dto.PaymentResponse "The new payment, or the original one when the key was seen before"
// @Failure 400 {object} map[string]any "Validation error"
// @Failure 404 {object} map[string]any "Student or charge not found"
// @Failure 409 {object} map[string]any "Charge settled, overpayment or concurrent update"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) collectPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CollectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CollectPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := operatorID(c, logger)
	if !ok {
		return
	}

	headerKey := c.GetHeader(IdempotencyKeyHeader)
	if len(strings.TrimSpace(headerKey)) > dto.MaxIdempotencyKeyLength {
		logger.Warn("Idempotency key header too long", slog.Int("length", len(headerKey)))
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s header must be at most %d characters", IdempotencyKeyHeader, dto.MaxIdempotencyKeyLength)})
		return
	}

	cmd := req.ToCommand(headerKey)
	logger = logger.With(slog.String("student_id", cmd.StudentID))
	logger.Info("Received request to collect payment", slog.String("amount", utils.FormatAmount(cmd.Amount)), slog.Int("allocations", len(cmd.Allocations)))

	payment, err := h.collectionService.CollectPayment(c.Request.Context(), cmd, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to collect payment")
		return
	}

	logger.Info("Payment collected", slog.String("payment_id", payment.PaymentID), slog.String("receipt_number", payment.ReceiptNumber))
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

// listPayments godoc
// @Summary List payments
// @Description Lists payments newest first with token based pagination
// @Tags payments
// @Produce  json
// @Param   studentID query string false "Student"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListPaymentsResponse
// @Security BearerAuth
// @Router /payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListPayments", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.collectionService.ListPayments(c.Request.Context(), params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]any "Payment not found"
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("payment_id", c.Param("id")))
	payment, err := h.collectionService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// reversePayment godoc
// @Summary Reverse a payment
// @Description Marks the payment reversed and restores the balance of every charge it paid
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   reversal body dto.ReversePaymentRequest true "Reason"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]any "Payment not found"
// @Failure 409 {object} map[string]any "Already reversed"
// @Security BearerAuth
// @Router /payments/{id}/reverse [post]
func (h *paymentHandler) reversePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("payment_id", c.Param("id")))
	var req dto.ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReversePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := operatorID(c, logger)
	if !ok {
		return
	}

	payment, err := h.collectionService.ReversePayment(c.Request.Context(), c.Param("id"), req.Reason, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to reverse payment")
		return
	}
	logger.Info("Payment reversed", slog.String("receipt_number", payment.ReceiptNumber))
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// getReceipt godoc
// @Summary Get the receipt of a payment
// @Tags receipts
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} domain.Receipt
// @Failure 404 {object} map[string]any "Payment not found"
// @Security BearerAuth
// @Router /payments/{id}/receipt [get]
func (h *paymentHandler) getReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("payment_id", c.Param("id")))
	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to build receipt")
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// printReceipt godoc
// @Summary Render the printable receipt
// @Tags receipts
// @Produce  plain
// @Param   id path string true "Payment ID"
// @Success 200 {string} string "Receipt text"
// @Failure 404 {object} map[string]any "Payment not found"
// @Security BearerAuth
// @Router /payments/{id}/receipt/print [get]
func (h *paymentHandler) printReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("payment_id", c.Param("id")))
	body, err := h.receiptService.RenderReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to render receipt")
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}
