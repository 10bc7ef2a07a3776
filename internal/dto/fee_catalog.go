package dto

import (
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateFeeCategoryRequest defines the payload for creating a fee category.
type CreateFeeCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Code        string `json:"code" binding:"required,max=30"`
	IsMandatory bool   `json:"isMandatory"`
}

// CreateFeeStructureRequest defines the payload for creating a fee structure.
type CreateFeeStructureRequest struct {
	AcademicYearID string          `json:"academicYearID" binding:"required"`
	ClassID        string          `json:"classID" binding:"required"`
	FeeCategoryID  string          `json:"feeCategoryID" binding:"required"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"1500.00"`
	Frequency      string          `json:"frequency" binding:"required,fee_frequency" example:"MONTHLY"`
	DueDay         int             `json:"dueDay" binding:"required,min=1,max=31"`
}

// FeeCategoryResponse defines the data returned for a fee category.
type FeeCategoryResponse struct {
	FeeCategoryID string    `json:"feeCategoryID"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	IsMandatory   bool      `json:"isMandatory"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FeeStructureResponse defines the data returned for a fee structure.
type FeeStructureResponse struct {
	FeeStructureID string          `json:"feeStructureID"`
	AcademicYearID string          `json:"academicYearID"`
	ClassID        string          `json:"classID"`
	FeeCategoryID  string          `json:"feeCategoryID"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string"`
	Frequency      string          `json:"frequency"`
	DueDay         int             `json:"dueDay"`
	IsActive       bool            `json:"isActive"`
}

// ToFeeCategoryResponse converts a domain.FeeCategory to its response DTO.
func ToFeeCategoryResponse(c *domain.FeeCategory) FeeCategoryResponse {
	return FeeCategoryResponse{
		FeeCategoryID: c.FeeCategoryID,
		Name:          c.Name,
		Code:          c.Code,
		IsMandatory:   c.IsMandatory,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
	}
}

// ToFeeCategoryResponses converts a slice of categories.
func ToFeeCategoryResponses(categories []domain.FeeCategory) []FeeCategoryResponse {
	responses := make([]FeeCategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToFeeCategoryResponse(&categories[i])
	}
	return responses
}

// ToFeeStructureResponse converts a domain.FeeStructure to its response DTO.
func ToFeeStructureResponse(s *domain.FeeStructure) FeeStructureResponse {
	return FeeStructureResponse{
		FeeStructureID: s.FeeStructureID,
		AcademicYearID: s.AcademicYearID,
		ClassID:        s.ClassID,
		FeeCategoryID:  s.FeeCategoryID,
		Amount:         s.Amount,
		Frequency:      string(s.Frequency),
		DueDay:         s.DueDay,
		IsActive:       s.IsActive,
	}
}

// ToFeeStructureResponses converts a slice of structures.
func ToFeeStructureResponses(structures []domain.FeeStructure) []FeeStructureResponse {
	responses := make([]FeeStructureResponse, len(structures))
	for i := range structures {
		responses[i] = ToFeeStructureResponse(&structures[i])
	}
	return responses
}
