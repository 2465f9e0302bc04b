// Package postgres provides PostgreSQL implementations of the domain repositories.
// The register state is small enough to be loaded whole at start-up; after that
// every accepted command is written through Apply inside one transaction.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tienda-register-ledger/internal/domain/audit"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/payroll"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/register"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/engine"
	"github.com/tienda-register-ledger/internal/platform/persistence"
)

// RegisterRepository implements the register.Repository interface for PostgreSQL
type RegisterRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewRegisterRepository creates a new PostgreSQL register repository
func NewRegisterRepository(logger *slog.Logger, db *persistence.PostgresDB) register.Repository {
	return &RegisterRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *RegisterRepository) WithTx(tx pgx.Tx) register.Repository {
	return &RegisterRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Load reads balances, the ledger, every record stream and the catalog
func (r *RegisterRepository) Load(ctx context.Context) (engine.State, error) {
	s := engine.NewState()
	var err error

	if s.Balances, err = r.loadBalances(ctx); err != nil {
		return s, err
	}
	if s.Ledger, err = r.loadLedger(ctx); err != nil {
		return s, err
	}
	if s.Sales, err = loadDocuments[sale.Sale](ctx, r.querier, "sales"); err != nil {
		return s, err
	}
	if s.Purchases, err = loadDocuments[purchase.Purchase](ctx, r.querier, "purchases"); err != nil {
		return s, err
	}
	if s.Audits, err = loadDocuments[audit.Report](ctx, r.querier, "audit_reports"); err != nil {
		return s, err
	}
	if s.Payrolls, err = loadDocuments[payroll.Report](ctx, r.querier, "payroll_reports"); err != nil {
		return s, err
	}
	if err = r.loadCatalog(ctx, &s); err != nil {
		return s, err
	}

	r.logger.Info("Register state loaded",
		"ledger_entries", len(s.Ledger),
		"sales", len(s.Sales),
		"products", len(s.Products),
		"workers", len(s.Workers),
	)
	return s, nil
}

func (r *RegisterRepository) loadBalances(ctx context.Context) (ledger.Balances, error) {
	var b ledger.Balances
	err := r.querier.QueryRow(ctx, `SELECT investment, payout FROM register_balances WHERE id = 1`).
		Scan(&b.Investment, &b.Payout)
	if err != nil {
		r.logger.Error("Failed to load balances", "error", err)
		return b, fmt.Errorf("failed to load balances: %w", err)
	}
	return b, nil
}

func (r *RegisterRepository) loadLedger(ctx context.Context) ([]ledger.Entry, error) {
	query := `
		SELECT id, ts, kind, description, amount, sale_id, purchase_id, worker_id, investment_after, payout_after
		FROM ledger_entries
		ORDER BY id ASC
	`
	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to load ledger", "error", err)
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &e.Description, &e.Amount,
			&e.SaleID, &e.PurchaseID, &e.WorkerID, &e.InvestmentAfter, &e.PayoutAfter); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}
	return entries, nil
}

func (r *RegisterRepository) loadCatalog(ctx context.Context, s *engine.State) error {
	err := scanEach(ctx, r.querier, `SELECT id, name, prefix FROM categories`, func(rows pgx.Rows) error {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Prefix); err != nil {
			return err
		}
		s.Categories[c.ID] = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	err = scanEach(ctx, r.querier, `SELECT id, sku, name, category_id, stock, sold, cost_price, sale_price FROM products`, func(rows pgx.Rows) error {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.Stock, &p.Sold, &p.CostPrice, &p.SalePrice); err != nil {
			return err
		}
		s.Products[p.ID] = p
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	err = scanEach(ctx, r.querier, `SELECT id, name, role FROM workers`, func(rows pgx.Rows) error {
		var w catalog.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Role); err != nil {
			return err
		}
		s.Workers[w.ID] = w
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	err = scanEach(ctx, r.querier, `SELECT id, name, total_debt FROM debtors`, func(rows pgx.Rows) error {
		var d catalog.Debtor
		if err := rows.Scan(&d.ID, &d.Name, &d.TotalDebt); err != nil {
			return err
		}
		s.Debtors[d.ID] = d
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load debtors: %w", err)
	}

	err = scanEach(ctx, r.querier, `SELECT id, debtor_id, sale_id, amount, original_amount, status, created_at, updated_at FROM debts`, func(rows pgx.Rows) error {
		var d catalog.Debt
		if err := rows.Scan(&d.ID, &d.DebtorID, &d.SaleID, &d.Amount, &d.OriginalAmount, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return err
		}
		s.Debts[d.ID] = d
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load debts: %w", err)
	}
	return nil
}

// Apply writes a transition's changes. Records and ledger entries are inserted;
// catalog rows are upserted.
func (r *RegisterRepository) Apply(ctx context.Context, changes engine.Changes) error {
	for _, e := range changes.Entries {
		if err := r.insertEntry(ctx, e); err != nil {
			return err
		}
	}
	if len(changes.Entries) > 0 {
		_, err := r.querier.Exec(ctx,
			`UPDATE register_balances SET investment = $1, payout = $2, updated_at = NOW() WHERE id = 1`,
			changes.Balances.Investment, changes.Balances.Payout)
		if err != nil {
			r.logger.Error("Failed to update balances", "error", err)
			return fmt.Errorf("failed to update balances: %w", err)
		}
	}

	// categories first: new products reference them
	for _, c := range changes.Categories {
		if err := r.exec(ctx, "upsert category", `
			INSERT INTO categories (id, name, prefix) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, prefix = EXCLUDED.prefix`,
			c.ID, c.Name, c.Prefix); err != nil {
			return err
		}
	}
	for _, p := range changes.Products {
		if err := r.exec(ctx, "upsert product", `
			INSERT INTO products (id, sku, name, category_id, stock, sold, cost_price, sale_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET stock = EXCLUDED.stock, sold = EXCLUDED.sold,
				cost_price = EXCLUDED.cost_price, sale_price = EXCLUDED.sale_price`,
			p.ID, p.SKU, p.Name, p.CategoryID, p.Stock, p.Sold, p.CostPrice, p.SalePrice); err != nil {
			return err
		}
	}
	for _, w := range changes.Workers {
		if err := r.exec(ctx, "upsert worker", `
			INSERT INTO workers (id, name, role) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role`,
			w.ID, w.Name, w.Role); err != nil {
			return err
		}
	}
	for _, d := range changes.Debtors {
		if err := r.exec(ctx, "upsert debtor", `
			INSERT INTO debtors (id, name, total_debt) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, total_debt = EXCLUDED.total_debt`,
			d.ID, d.Name, d.TotalDebt); err != nil {
			return err
		}
	}

	if changes.Sale != nil {
		if err := r.insertDocument(ctx, "sales", changes.Sale.ID, changes.Sale.Timestamp, changes.Sale); err != nil {
			return err
		}
	}
	if changes.Purchase != nil {
		if err := r.insertDocument(ctx, "purchases", changes.Purchase.ID, changes.Purchase.Timestamp, changes.Purchase); err != nil {
			return err
		}
	}
	if changes.Audit != nil {
		if err := r.insertDocument(ctx, "audit_reports", changes.Audit.ID, changes.Audit.Timestamp, changes.Audit); err != nil {
			return err
		}
	}
	if changes.Payroll != nil {
		if err := r.insertDocument(ctx, "payroll_reports", changes.Payroll.ID, changes.Payroll.Timestamp, changes.Payroll); err != nil {
			return err
		}
	}

	// debts reference the sale row written above
	for _, d := range changes.Debts {
		if err := r.exec(ctx, "upsert debt", `
			INSERT INTO debts (id, debtor_id, sale_id, amount, original_amount, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
			d.ID, d.DebtorID, d.SaleID, d.Amount, d.OriginalAmount, d.Status, d.CreatedAt, d.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *RegisterRepository) insertEntry(ctx context.Context, e ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (id, ts, kind, description, amount, sale_id, purchase_id, worker_id, investment_after, payout_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.querier.Exec(ctx, query,
		e.ID, e.Timestamp, e.Kind, e.Description, e.Amount,
		e.SaleID, e.PurchaseID, e.WorkerID, e.InvestmentAfter, e.PayoutAfter,
	)
	if err != nil {
		r.logger.Error("Failed to insert ledger entry", "entry_id", e.ID, "kind", string(e.Kind), "error", err)
		return fmt.Errorf("failed to insert ledger entry %d: %w", e.ID, err)
	}
	return nil
}

func (r *RegisterRepository) insertDocument(ctx context.Context, table string, id int64, ts time.Time, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s %d: %w", table, id, err)
	}
	return r.exec(ctx, "insert into "+table,
		fmt.Sprintf(`INSERT INTO %s (id, ts, body) VALUES ($1, $2, $3)`, table),
		id, ts, body)
}

func (r *RegisterRepository) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := r.querier.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

// loadDocuments reads one JSONB record stream ordered by id
func loadDocuments[T any](ctx context.Context, q persistence.Querier, table string) ([]T, error) {
	var out []T
	err := scanEach(ctx, q, fmt.Sprintf(`SELECT body FROM %s ORDER BY id ASC`, table), func(rows pgx.Rows) error {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return err
		}
		var doc T
		if err := json.Unmarshal(body, &doc); err != nil {
			return err
		}
		out = append(out, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	return out, nil
}

func scanEach(ctx context.Context, q persistence.Querier, query string, fn func(pgx.Rows) error) error {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
