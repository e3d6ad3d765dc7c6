// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the wallet
// service from the CRM client and the guard stores.
package port

import (
	"context"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// LedgerClient talks to the remote RBC ledger. The token is the caller's
// opaque CRM credential and is passed through on every call.
type LedgerClient interface {
	GetBalance(ctx context.Context, token string) (*domain.Balance, error)
	GetHistory(ctx context.Context, token string, q domain.HistoryQuery) (*domain.HistoryPage, error)
	Transfer(ctx context.Context, token string, req *domain.TransferRequest) (*domain.LedgerEntry, error)
}

// HealthReporter is implemented by clients that can tell whether their
// remote side is reachable without calling it.
type HealthReporter interface {
	Health() string
}

// SubmissionGuard is the in-flight flag of a transfer form. TryAcquire
// returns ok=false when the key is already held; release must be called
// once the submission finishes.
type SubmissionGuard interface {
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Cache is the TTL store behind the in-process submission guard.
type Cache[T any] interface {
	SetIfAbsent(key string, value T) bool
	DeleteIf(key string, match func(T) bool) bool
}
