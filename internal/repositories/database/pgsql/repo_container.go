package pgsql

import (
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	reportingRepo := newReportingRepository(dbPool)
	unitOfWork := newPgxUnitOfWork(dbPool)

	return portsrepo.RepositoryProvider{
		FeeCatalogRepo:   newPgxFeeCatalogRepository(dbPool),
		EnrolmentRepo:    newPgxEnrolmentRepository(dbPool),
		StudentFeeRepo:   newPgxStudentFeeRepository(dbPool),
		PaymentRepo:      newPgxPaymentRepository(dbPool),
		ReportingRepo:    reportingRepo,
		ExpenseRepo:      reportingRepo,
		ReceiptSequencer: unitOfWork,
		UnitOfWork:       unitOfWork,
	}
}
