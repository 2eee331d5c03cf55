package store

// Stores bundles every store the engine and the HTTP surface need.
type Stores struct {
	Companies CompanyStore
	Users     UserStore
	Devices   DeviceStore
	ChangeLog ChangeLogStore
	Health    HealthStore

	// Tx is optional. When nil, callers issue their writes one by one.
	Tx Transactor
}
