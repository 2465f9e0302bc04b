package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

type AdjustmentCommand struct {
	Target decimal.Decimal `json:"target"`
	Reason string          `json:"reason"`
}

// AdjustInvestment sets the investment pool to Target through a single
// MANUAL_ADJUSTMENT entry carrying the difference. An unchanged target still
// leaves a zero-amount entry in the log.
func (e *Engine) AdjustInvestment(s State, cmd AdjustmentCommand) (Transition, error) {
	if cmd.Target.IsNegative() {
		return Transition{}, shared.Reject(shared.ErrInvalidAmount, "target %s", cmd.Target)
	}
	now := e.clock()
	delta := cmd.Target.Sub(s.Balances.Investment)
	desc := fmt.Sprintf("Investment set from %s to %s", s.Balances.Investment, cmd.Target)
	if reason := strings.TrimSpace(cmd.Reason); reason != "" {
		desc += ": " + reason
	}

	next := s.fork()
	log := ledger.Open(s.Ledger, s.Balances)
	if _, err := log.Append(now, ledger.KindManualAdjustment, delta, desc, ledger.Links{}); err != nil {
		return Transition{}, fmt.Errorf("append %s: %w", ledger.KindManualAdjustment, err)
	}
	next.Ledger = log.Entries()
	next.Balances = log.Balances()
	return Transition{State: next, Changes: Changes{Entries: log.Appended(), Balances: next.Balances}}, nil
}
