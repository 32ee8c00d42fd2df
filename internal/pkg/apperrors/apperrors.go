package apperrors

// Error codes surfaced by the service layer
const (
	NotFound           int64 = 1 // Referenced id does not resolve to the expected label
	Validation         int64 = 2 // Missing or malformed input
	StoreUnavailable   int64 = 3 // Connection or transaction failure
	TransactionAborted int64 = 4 // Conflict with a concurrent write, safe to retry
)
