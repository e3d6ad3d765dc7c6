// Package guard implements the transfer form's in-flight flag. A key is
// held from the moment a submission passes validation until the ledger
// answers, so a second tap on the same form cannot reach the network.
package guard

import (
	"context"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/port"

	"github.com/google/uuid"
)

// Memory keeps held keys in a process-local TTL store. The TTL bounds how
// long a crashed submission can block its form.
type Memory struct {
	store port.Cache[string]
}

// NewMemory creates a guard over the given store.
func NewMemory(store port.Cache[string]) *Memory {
	return &Memory{store: store}
}

// TryAcquire holds key if nobody else does.
func (g *Memory) TryAcquire(_ context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	if !g.store.SetIfAbsent(key, token) {
		return nil, false, nil
	}
	return func() {
		g.store.DeleteIf(key, func(held string) bool { return held == token })
	}, true, nil
}
