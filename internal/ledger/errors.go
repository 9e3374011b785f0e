package ledger

import "errors"

// Sentinel errors for every failure the ledger can produce. Callers
// discriminate with errors.Is or KindOf; wrapped messages carry detail.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrPriceUnavailable     = errors.New("price unavailable")
	ErrStorageConflict      = errors.New("storage conflict")
	ErrStorageFailure       = errors.New("storage failure")
)

// Kind is a machine-readable classification of a ledger error, stable enough
// for clients to branch on.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindDuplicateUsername    Kind = "duplicate_username"
	KindInvalidOrder         Kind = "invalid_order"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindInsufficientPosition Kind = "insufficient_position"
	KindPriceUnavailable     Kind = "price_unavailable"
	KindStorageConflict      Kind = "storage_conflict"
	KindStorageFailure       Kind = "storage_failure"
)

// KindOf maps an error to its Kind. Unknown errors classify as storage
// failures, the only kind that is fatal for the request.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateUsername):
		return KindDuplicateUsername
	case errors.Is(err, ErrInvalidOrder):
		return KindInvalidOrder
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrInsufficientPosition):
		return KindInsufficientPosition
	case errors.Is(err, ErrPriceUnavailable):
		return KindPriceUnavailable
	case errors.Is(err, ErrStorageConflict):
		return KindStorageConflict
	default:
		return KindStorageFailure
	}
}

// Expected reports whether an error is a business-rule rejection rather
// than an operational problem. Expected failures are returned to the caller
// and never logged as errors.
func Expected(err error) bool {
	switch KindOf(err) {
	case KindStorageConflict, KindStorageFailure:
		return false
	default:
		return true
	}
}
