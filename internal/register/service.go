// Package register runs register commands against the engine and persists
// accepted transitions together with their outbox events.
package register

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tienda-register-ledger/internal/domain/audit"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/outbox"
	"github.com/tienda-register-ledger/internal/domain/payroll"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/register"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/domain/shared"
	"github.com/tienda-register-ledger/internal/engine"
	"github.com/tienda-register-ledger/internal/platform/metrics"
	"github.com/tienda-register-ledger/internal/platform/persistence"
)

// ErrNotLoaded is returned by commands issued before Load succeeded
var ErrNotLoaded = errors.New("register state not loaded")

// Service serialises commands over the in-memory register state. A command
// is installed only after its changes and outbox events committed together.
type Service struct {
	engine     *engine.Engine
	db         persistence.TxRunner
	repo       register.Repository
	outboxRepo outbox.Repository
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.RWMutex
	state  engine.State
	loaded bool
}

func NewService(
	eng *engine.Engine,
	db persistence.TxRunner,
	repo register.Repository,
	outboxRepo outbox.Repository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		engine:     eng,
		db:         db,
		repo:       repo,
		outboxRepo: outboxRepo,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Load reads the persisted state and refuses to serve a ledger that does not replay
func (s *Service) Load(ctx context.Context) error {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load register state: %w", err)
	}
	if err := ledger.Verify(state.Ledger, state.Balances); err != nil {
		s.logger.Error("Persisted ledger failed verification", "error", err)
		return fmt.Errorf("persisted ledger is inconsistent: %w", err)
	}

	s.mu.Lock()
	s.state = state
	s.loaded = true
	s.mu.Unlock()

	s.metrics.SetBalances(state.Balances)
	s.logger.Info("Register state loaded",
		"entries", len(state.Ledger),
		"investment", state.Balances.Investment.String(),
		"payout", state.Balances.Payout.String(),
	)
	return nil
}

// apply runs one reducer under the write lock and commits its outcome
func (s *Service) apply(ctx context.Context, op string, reduce func(engine.State) (engine.Transition, error)) (engine.Transition, error) {
	start := time.Now()
	logger := s.logger.With("operation", op)
	if id := shared.CorrelationID(ctx); id != "" {
		logger = logger.With("correlation_id", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return engine.Transition{}, ErrNotLoaded
	}

	t, err := reduce(s.state)
	if err != nil {
		var rejection shared.RejectionError
		if errors.As(err, &rejection) {
			logger.Info("Command rejected", "class", rejection.Class, "reason", rejection.Reason, "detail", rejection.Detail)
			s.metrics.ObserveCommand(op, metrics.ResultRejected, time.Since(start).Seconds())
			return engine.Transition{}, err
		}
		logger.Error("Command failed", "error", err)
		s.metrics.ObserveCommand(op, metrics.ResultError, time.Since(start).Seconds())
		return engine.Transition{}, err
	}

	if err := s.commit(ctx, t.Changes); err != nil {
		logger.Error("Failed to persist command", "error", err)
		s.metrics.ObserveCommand(op, metrics.ResultError, time.Since(start).Seconds())
		return engine.Transition{}, err
	}

	s.state = t.State
	s.metrics.ObserveCommand(op, metrics.ResultOK, time.Since(start).Seconds())
	if len(t.Changes.Entries) > 0 {
		s.metrics.ObserveEntries(t.Changes.Entries, t.State.Balances)
	}

	logger.Info("Command applied",
		"entries", len(t.Changes.Entries),
		"investment", t.State.Balances.Investment.String(),
		"payout", t.State.Balances.Payout.String(),
	)
	return t, nil
}

// commit writes the changes and one outbox message per new entry in a single transaction
func (s *Service) commit(ctx context.Context, changes engine.Changes) error {
	correlationID := shared.CorrelationID(ctx)
	committedAt := s.now().UTC()

	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.WithTx(tx).Apply(ctx, changes); err != nil {
			return err
		}

		outboxTx := s.outboxRepo.WithTx(tx)
		for _, entry := range changes.Entries {
			event := ledger.NewEvent(entry, correlationID, committedAt)
			msg, err := outbox.NewMessage(&event)
			if err != nil {
				return fmt.Errorf("failed to build outbox message for entry %d: %w", entry.ID, err)
			}
			if err := outboxTx.Create(ctx, msg); err != nil {
				return fmt.Errorf("failed to create outbox message for entry %d: %w", entry.ID, err)
			}
		}
		return nil
	})
}

// SettleSale records a sale and splits its profit into both pools
func (s *Service) SettleSale(ctx context.Context, cmd engine.SaleCommand) (sale.Sale, []ledger.Entry, error) {
	t, err := s.apply(ctx, "settle_sale", func(st engine.State) (engine.Transition, error) {
		return s.engine.SettleSale(st, cmd)
	})
	if err != nil {
		return sale.Sale{}, nil, err
	}
	return *t.Changes.Sale, t.Changes.Entries, nil
}

// SettlePurchase restocks inventory paid from the investment pool
func (s *Service) SettlePurchase(ctx context.Context, cmd engine.PurchaseCommand) (purchase.Purchase, []ledger.Entry, error) {
	t, err := s.apply(ctx, "settle_purchase", func(st engine.State) (engine.Transition, error) {
		return s.engine.SettlePurchase(st, cmd)
	})
	if err != nil {
		return purchase.Purchase{}, nil, err
	}
	return *t.Changes.Purchase, t.Changes.Entries, nil
}

// CloseRegister reconciles the counted drawer against today's expected totals
func (s *Service) CloseRegister(ctx context.Context, cmd engine.CloseCommand) (audit.Report, error) {
	t, err := s.apply(ctx, "close_register", func(st engine.State) (engine.Transition, error) {
		return s.engine.CloseRegister(st, cmd)
	})
	if err != nil {
		return audit.Report{}, err
	}
	return *t.Changes.Audit, nil
}

// RunPayroll distributes and resets the payout pool
func (s *Service) RunPayroll(ctx context.Context, cmd engine.PayrollCommand) (payroll.Report, error) {
	t, err := s.apply(ctx, "run_payroll", func(st engine.State) (engine.Transition, error) {
		return s.engine.RunPayroll(st, cmd)
	})
	if err != nil {
		return payroll.Report{}, err
	}
	return *t.Changes.Payroll, nil
}

// AdjustInvestment sets the investment pool to an absolute target
func (s *Service) AdjustInvestment(ctx context.Context, cmd engine.AdjustmentCommand) (ledger.Entry, error) {
	t, err := s.apply(ctx, "adjust_investment", func(st engine.State) (engine.Transition, error) {
		return s.engine.AdjustInvestment(st, cmd)
	})
	if err != nil {
		return ledger.Entry{}, err
	}
	return t.Changes.Entries[0], nil
}

// RecordDebtPayment applies a repayment to an open credit sale debt
func (s *Service) RecordDebtPayment(ctx context.Context, cmd engine.DebtPaymentCommand) (catalog.Debt, error) {
	t, err := s.apply(ctx, "record_debt_payment", func(st engine.State) (engine.Transition, error) {
		return s.engine.RecordDebtPayment(st, cmd)
	})
	if err != nil {
		return catalog.Debt{}, err
	}
	return t.Changes.Debts[0], nil
}

// SaveCategory creates or renames a product category
func (s *Service) SaveCategory(ctx context.Context, cmd engine.CategoryCommand) (catalog.Category, error) {
	t, err := s.apply(ctx, "save_category", func(st engine.State) (engine.Transition, error) {
		return s.engine.RegisterCategory(st, cmd)
	})
	if err != nil {
		return catalog.Category{}, err
	}
	return t.Changes.Categories[0], nil
}

// SaveWorker creates or updates a worker
func (s *Service) SaveWorker(ctx context.Context, cmd engine.WorkerCommand) (catalog.Worker, error) {
	t, err := s.apply(ctx, "save_worker", func(st engine.State) (engine.Transition, error) {
		return s.engine.RegisterWorker(st, cmd)
	})
	if err != nil {
		return catalog.Worker{}, err
	}
	return t.Changes.Workers[0], nil
}

// SaveDebtor creates or renames a debtor
func (s *Service) SaveDebtor(ctx context.Context, cmd engine.DebtorCommand) (catalog.Debtor, error) {
	t, err := s.apply(ctx, "save_debtor", func(st engine.State) (engine.Transition, error) {
		return s.engine.RegisterDebtor(st, cmd)
	})
	if err != nil {
		return catalog.Debtor{}, err
	}
	return t.Changes.Debtors[0], nil
}
