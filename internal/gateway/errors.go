package gateway

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Error taxonomy for completion calls. Callers branch on these with
// errors.Is / errors.As.
var (
	// ErrInvalidRequest marks a caller error; it is never retried.
	ErrInvalidRequest = eris.New("gateway: invalid request")

	// ErrQuotaExceeded means every configured provider is rate-limited.
	ErrQuotaExceeded = eris.New("gateway: all providers rate-limited")

	// ErrUnavailable means no healthy provider is configured.
	ErrUnavailable = eris.New("gateway: no healthy provider")
)

// ProviderError wraps the final failure after all retry attempts.
type ProviderError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gateway: provider %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
