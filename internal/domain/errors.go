package domain

import (
	"fmt"
	"strconv"
)

// Error types for consistent error handling across the BFA.

// ErrUnauthenticated indicates the ledger rejected the bearer token (401).
// Token refresh is not attempted; the caller decides what to do.
type ErrUnauthenticated struct{}

func (e *ErrUnauthenticated) Error() string {
	return "unauthenticated"
}

// ErrHTTP indicates a non-2xx ledger response other than 401.
type ErrHTTP struct {
	Status  int
	Message string
}

func (e *ErrHTTP) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Error " + strconv.Itoa(e.Status)
}

// ErrNetwork indicates the request never produced an HTTP response.
type ErrNetwork struct {
	Err error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a malformed request body.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInvalidAmount indicates the typed amount is not a finite positive number.
type ErrInvalidAmount struct {
	Input string
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount: %q", e.Input)
}

// ErrInsufficientBalance indicates the amount exceeds the known balance.
type ErrInsufficientBalance struct {
	Available float64
	Required  float64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: available=%.2f required=%.2f", e.Available, e.Required)
}

// ErrStaleBalance indicates the balance could not be re-fetched after a
// transfer made it stale.
type ErrStaleBalance struct{}

func (e *ErrStaleBalance) Error() string {
	return "balance is stale"
}

// ErrInvalidRecipient indicates the transfer has no receiver.
type ErrInvalidRecipient struct{}

func (e *ErrInvalidRecipient) Error() string {
	return "invalid recipient"
}

// ErrSubmissionInFlight indicates the same form already has a transfer on the wire.
type ErrSubmissionInFlight struct {
	Key string
}

func (e *ErrSubmissionInFlight) Error() string {
	return fmt.Sprintf("transfer already in flight: %s", e.Key)
}
