package shared

import "errors"

var (
	// ErrNotFound indicates the operation targets a missing entity id.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a blocked deletion or a stale-version update.
	ErrConflict = errors.New("conflict")
	// ErrTransactionFailed indicates the atomic write could not complete and nothing was applied.
	ErrTransactionFailed = errors.New("transaction failed")
)

// IsDomainError reports whether err already carries one of the classified sentinels.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTransactionFailed)
}
