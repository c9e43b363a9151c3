package interfaces

// Store bundles the repositories of one backing database.
type Store struct {
	Users          UserRepository
	Requests       ServiceRequestRepository
	Jobs           JobRepository
	Invoices       InvoiceRepository
	PaymentMethods PaymentMethodRepository
	Locations      LocationRepository
	Tx             Transactor
}
