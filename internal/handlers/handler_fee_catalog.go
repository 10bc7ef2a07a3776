package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// feeCatalogHandler handles HTTP requests for fee categories and structures.
type feeCatalogHandler struct {
	catalogService portssvc.FeeCatalogSvcFacade
}

func newFeeCatalogHandler(cs portssvc.FeeCatalogSvcFacade) *feeCatalogHandler {
	return &feeCatalogHandler{catalogService: cs}
}

// registerFeeCatalogRoutes registers routes related to the fee catalog.
func registerFeeCatalogRoutes(rg *gin.RouterGroup, catalogService portssvc.FeeCatalogSvcFacade) {
	h := newFeeCatalogHandler(catalogService)

	categories := rg.Group("/fee-categories")
	{
		categories.POST("", h.createFeeCategory)
		categories.GET("", h.listFeeCategories)
	}

	structures := rg.Group("/fee-structures")
	{
		structures.POST("", h.createFeeStructure)
		structures.GET("", h.listFeeStructures)
		structures.POST("/:id/deactivate", h.deactivateFeeStructure)
	}
}

// createFeeCategory godoc
// @Summary Create a fee category
// @Tags fee-catalog
// @Accept  json
// @Produce  json
// @Param   category body dto.CreateFeeCategoryRequest true "Fee category"
// @Success 201 {object} dto.FeeCategoryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Duplicate code"
// @Security BearerAuth
// @Router /fee-categories [post]
func (h *feeCatalogHandler) createFeeCategory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFeeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateFeeCategory", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := operatorID(c, logger)
	if !ok {
		return
	}

	category, err := h.catalogService.CreateFeeCategory(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create fee category")
		return
	}

	logger.Info("Fee category created", slog.String("fee_category_id", category.FeeCategoryID), slog.String("code", category.Code))
	c.JSON(http.StatusCreated, dto.ToFeeCategoryResponse(category))
}

// listFeeCategories godoc
// @Summary List fee categories
// @Tags fee-catalog
// @Produce  json
// @Param   activeOnly query bool false "Only active categories"
// @Success 200 {array} dto.FeeCategoryResponse
// @Security BearerAuth
// @Router /fee-categories [get]
func (h *feeCatalogHandler) listFeeCategories(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("activeOnly", "false"))

	categories, err := h.catalogService.ListFeeCategories(c.Request.Context(), activeOnly)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list fee categories")
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeCategoryResponses(categories))
}

// createFeeStructure godoc
// @Summary Create a fee structure
// @Description Defines how much a class owes for a category and how often
// @Tags fee-catalog
// @Accept  json
// @Produce  json
// @Param   structure body dto.CreateFeeStructureRequest true "Fee structure"
// @Success 201 {object} dto.FeeStructureResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Academic year or category not found"
// @Security BearerAuth
// @Router /fee-structures [post]
func (h *feeCatalogHandler) createFeeStructure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateFeeStructure", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := operatorID(c, logger)
	if !ok {
		return
	}

	structure, err := h.catalogService.CreateFeeStructure(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create fee structure")
		return
	}

	logger.Info("Fee structure created", slog.String("fee_structure_id", structure.FeeStructureID))
	c.JSON(http.StatusCreated, dto.ToFeeStructureResponse(structure))
}

// listFeeStructures godoc
// @Summary List fee structures of an academic year
// @Tags fee-catalog
// @Produce  json
// @Param   academicYearID query string true "Academic year"
// @Param   classID query string false "Class"
// @Success 200 {array} dto.FeeStructureResponse
// @Security BearerAuth
// @Router /fee-structures [get]
func (h *feeCatalogHandler) listFeeStructures(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	academicYearID := c.Query("academicYearID")
	if academicYearID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "academicYearID is required"})
		return
	}

	structures, err := h.catalogService.ListFeeStructures(c.Request.Context(), academicYearID, c.Query("classID"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to list fee structures")
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeStructureResponses(structures))
}

// deactivateFeeStructure godoc
// @Summary Deactivate a fee structure
// @Description Stops future generation. Existing charges are untouched.
// @Tags fee-catalog
// @Param   id path string true "Fee structure ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /fee-structures/{id}/deactivate [post]
func (h *feeCatalogHandler) deactivateFeeStructure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("fee_structure_id", c.Param("id")))
	userID, ok := operatorID(c, logger)
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateFeeStructure(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to deactivate fee structure")
		return
	}
	logger.Info("Fee structure deactivated")
	c.Status(http.StatusNoContent)
}
