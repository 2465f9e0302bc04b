// Package register defines the persistence contract of the register state.
package register

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/tienda-register-ledger/internal/engine"
)

// Repository loads the full register state and persists transition changes
type Repository interface {
	Load(ctx context.Context) (engine.State, error)
	// Apply writes everything a transition produced; callers run it inside a transaction
	Apply(ctx context.Context, changes engine.Changes) error
	WithTx(tx pgx.Tx) Repository
}
