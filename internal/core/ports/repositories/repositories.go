package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	FeeCatalogRepo   FeeCatalogRepositoryFacade
	EnrolmentRepo    EnrolmentRepositoryFacade
	StudentFeeRepo   StudentFeeRepositoryFacade
	PaymentRepo      PaymentReader
	ReportingRepo    ReportingRepository
	ExpenseRepo      ExpenseReader
	ReceiptSequencer ReceiptSequencer
	UnitOfWork       UnitOfWork
}
