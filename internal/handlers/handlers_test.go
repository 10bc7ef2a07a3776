package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/core/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/events"
	"github.com/SscSPs/school_fee_ledger/internal/handlers"
	"github.com/SscSPs/school_fee_ledger/internal/middleware"
	"github.com/SscSPs/school_fee_ledger/internal/platform/config"
	"github.com/SscSPs/school_fee_ledger/internal/repositories/memory"
)

type LedgerHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	store     *memory.Store
	jwtSecret string
}

func TestLedgerHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}

// generateTestToken creates a signed JWT for the operator.
func (suite *LedgerHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	suite.Require().NoError(err)
	return signed
}

func (suite *LedgerHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	suite.store = memory.NewStore()
	suite.store.AddAcademicYear(domain.AcademicYear{AcademicYearID: "ay-1", Name: "current", StartDate: start, EndDate: start.AddDate(1, 0, -1)})
	suite.store.AddStudent(domain.Student{StudentID: "s1", AdmissionNumber: "ADM-001", Name: "Asha", ClassID: "grade-4", AcademicYearID: "ay-1", IsActive: true})

	cfg := &config.Config{
		JWTSecret:          suite.jwtSecret,
		IsProduction:       true,
		ReceiptPrefix:      "RC",
		LedgerMaxTxRetries: 3,
		LedgerTxTimeout:    5 * time.Second,
	}
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider(suite.store), events.NewLogPublisher(nil))

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	handlers.RegisterRoutes(suite.router, cfg, container, nil)
}

func (suite *LedgerHandlerTestSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken("bursar-1"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// seedCharge creates a category and an annual structure, runs generation and returns the charge id.
func (suite *LedgerHandlerTestSuite) seedCharge() string {
	w := suite.do(http.MethodPost, "/api/v1/fee-categories", dto.CreateFeeCategoryRequest{Name: "Tuition", Code: "tui", IsMandatory: true}, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var category dto.FeeCategoryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &category))
	suite.Equal("TUI", category.Code)

	w = suite.do(http.MethodPost, "/api/v1/fee-structures", map[string]any{
		"academicYearID": "ay-1",
		"classID":        "grade-4",
		"feeCategoryID":  category.FeeCategoryID,
		"amount":         "1000.00",
		"frequency":      "ANNUAL",
		"dueDay":         10,
	}, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/obligations/generate", dto.GenerateObligationsRequest{AcademicYearID: "ay-1"}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var result domain.GenerationResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	suite.Equal(1, result.Created)

	w = suite.do(http.MethodGet, "/api/v1/students/s1/fees", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var fees []dto.StudentFeeResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &fees))
	suite.Require().Len(fees, 1)
	return fees[0].StudentFeeID
}

func (suite *LedgerHandlerTestSuite) TestHealthAndAuth() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestCollectReceiptReverseFlow() {
	feeID := suite.seedCharge()
	collect := map[string]any{
		"studentID":     "s1",
		"amount":        "400.00",
		"paymentMethod": "CASH",
		"allocations":   []map[string]any{{"studentFeeID": feeID, "amount": "400.00"}},
	}

	w := suite.do(http.MethodPost, "/api/v1/payments", collect, map[string]string{handlers.IdempotencyKeyHeader: "counter-7-0001"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var payment dto.PaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &payment))
	suite.True(strings.HasPrefix(payment.ReceiptNumber, "RC-"))
	suite.True(payment.Amount.Equal(decimal.NewFromInt(400)))

	// same key, same receipt
	w = suite.do(http.MethodPost, "/api/v1/payments", collect, map[string]string{handlers.IdempotencyKeyHeader: "counter-7-0001"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var replay dto.PaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &replay))
	suite.Equal(payment.PaymentID, replay.PaymentID)
	suite.Equal(payment.ReceiptNumber, replay.ReceiptNumber)

	w = suite.do(http.MethodGet, "/api/v1/payments/"+payment.PaymentID+"/receipt/print", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Header().Get("Content-Type"), "text/plain")
	suite.Contains(w.Body.String(), payment.ReceiptNumber)

	w = suite.do(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/reverse", dto.ReversePaymentRequest{Reason: "cheque bounced"}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/reverse", dto.ReversePaymentRequest{Reason: "again"}, nil)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/students/s1/statement", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var statement domain.Statement
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &statement))
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(1000)), "reversed payments do not count")

	w = suite.do(http.MethodGet, "/api/v1/reports/summary?academicYearID=ay-1", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var summary domain.FinancialSummary
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &summary))
	suite.True(summary.TotalCollected.IsZero())
	suite.True(summary.TotalPending.Equal(decimal.NewFromInt(1000)))
}

func (suite *LedgerHandlerTestSuite) TestOverpaymentReturnsDetails() {
	feeID := suite.seedCharge()
	w := suite.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"studentID":     "s1",
		"amount":        "1200.00",
		"paymentMethod": "CASH",
		"allocations":   []map[string]any{{"studentFeeID": feeID, "amount": "1200.00"}},
	}, nil)
	suite.Require().Equal(http.StatusConflict, w.Code, w.Body.String())

	var body struct {
		Error   string `json:"error"`
		Details struct {
			Constraint   string `json:"constraint"`
			StudentFeeID string `json:"studentFeeID"`
			Expected     string `json:"expected"`
			Actual       string `json:"actual"`
		} `json:"details"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("allocation_exceeds_balance", body.Details.Constraint)
	suite.Equal(feeID, body.Details.StudentFeeID)
	suite.Equal("1000.00", body.Details.Expected)
	suite.Equal("1200.00", body.Details.Actual)
}

func (suite *LedgerHandlerTestSuite) TestRequestValidation() {
	w := suite.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"studentID":     "s1",
		"amount":        "10.00",
		"paymentMethod": "BITCOIN",
		"allocations":   []map[string]any{{"studentFeeID": "f1", "amount": "10.00"}},
	}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/students/nobody/fees", nil, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/students/s1/fees?status=LATE", nil, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/payments?nextToken=not-a-token", nil, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/student-fees/missing/waive", dto.WaiveStudentFeeRequest{Reason: "hardship"}, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestIdempotencyKeyHeaderLength() {
	feeID := suite.seedCharge()
	collect := map[string]any{
		"studentID":     "s1",
		"amount":        "100.00",
		"paymentMethod": "CASH",
		"allocations":   []map[string]any{{"studentFeeID": feeID, "amount": "100.00"}},
	}

	w := suite.do(http.MethodPost, "/api/v1/payments", collect, map[string]string{handlers.IdempotencyKeyHeader: strings.Repeat("k", dto.MaxIdempotencyKeyLength+1)})
	suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), handlers.IdempotencyKeyHeader)

	fee, err := suite.store.FindStudentFeeByID(context.Background(), feeID)
	suite.Require().NoError(err)
	suite.True(fee.PaidAmount.IsZero(), "a rejected header must not reach the ledger")

	w = suite.do(http.MethodPost, "/api/v1/payments", collect, map[string]string{handlers.IdempotencyKeyHeader: strings.Repeat("k", dto.MaxIdempotencyKeyLength)})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
}
