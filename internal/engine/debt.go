package engine

import (
	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

type DebtPaymentCommand struct {
	DebtID int64           `json:"debt_id"`
	Amount decimal.Decimal `json:"amount"`
}

// RecordDebtPayment settles part or all of an open debt. The sale already
// credited both pools in full, so a repayment writes no ledger entry.
func (e *Engine) RecordDebtPayment(s State, cmd DebtPaymentCommand) (Transition, error) {
	if !cmd.Amount.IsPositive() {
		return Transition{}, shared.Reject(shared.ErrInvalidAmount, "payment %s", cmd.Amount)
	}
	debt, ok := s.Debts[cmd.DebtID]
	if !ok {
		return Transition{}, shared.Reject(shared.ErrDebtNotFound, "debt %d", cmd.DebtID)
	}
	if !debt.Status.Open() {
		return Transition{}, shared.Reject(shared.ErrDebtClosed, "debt %d is %s", debt.ID, debt.Status)
	}
	if cmd.Amount.GreaterThan(debt.Amount) {
		return Transition{}, shared.Reject(shared.ErrOverpayment, "payment %s exceeds remaining %s", cmd.Amount, debt.Amount)
	}

	now := e.clock()
	next := s.fork()
	debt = debt.Pay(cmd.Amount, now)
	next.Debts[debt.ID] = debt
	changes := Changes{Balances: s.Balances, Debts: []catalog.Debt{debt}}

	if debtor, ok := next.Debtors[debt.DebtorID]; ok {
		debtor.TotalDebt = decimal.Max(decimal.Zero, debtor.TotalDebt.Sub(cmd.Amount))
		next.Debtors[debtor.ID] = debtor
		changes.Debtors = []catalog.Debtor{debtor}
	}
	return Transition{State: next, Changes: changes}, nil
}
