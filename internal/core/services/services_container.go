package services

import (
	"github.com/SscSPs/school_fee_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher events.Publisher) *portssvc.ServiceContainer {
	options := []ServiceOption{WithEventPublisher(publisher)}

	container := &portssvc.ServiceContainer{}
	container.FeeCatalog = NewFeeCatalogService(repos.FeeCatalogRepo, repos.EnrolmentRepo, options...)
	container.Obligation = NewObligationService(repos.FeeCatalogRepo, repos.EnrolmentRepo, repos.StudentFeeRepo, options...)
	container.Collection = NewCollectionService(repos, CollectionConfig{
		ReceiptPrefix: cfg.ReceiptPrefix,
		MaxAttempts:   cfg.LedgerMaxTxRetries,
		TxTimeout:     cfg.LedgerTxTimeout,
	}, options...)
	container.Receipt = NewReceiptService(repos, options...)
	container.Reporting = NewReportingService(repos.ReportingRepo, repos.ExpenseRepo, repos.EnrolmentRepo, options...)
	container.Statement = NewStatementService(repos, options...)

	return container
}
