package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/engine"
)

func TestRegisterRepository_WithTx(t *testing.T) {
	repo := &RegisterRepository{logger: newTestLogger()}
	txRepo, ok := repo.WithTx(pgx.Tx(nil)).(*RegisterRepository)
	require.True(t, ok)
	assert.Nil(t, txRepo.querier)
}

func TestRegisterRepository_Apply(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	saleID, workerID := int64(3), int64(2)
	entry := ledger.Entry{
		ID: 11, Timestamp: now, Kind: ledger.KindReimbursement, Description: "Cost recovery for sale #3",
		Amount: decimal.NewFromInt(10), SaleID: &saleID, WorkerID: &workerID,
		InvestmentAfter: decimal.NewFromInt(110), PayoutAfter: decimal.Zero,
	}
	product := catalog.Product{ID: 1, SKU: "BEB0001", Name: "Cola", CategoryID: 1, Stock: 4, Sold: 1,
		CostPrice: decimal.NewFromInt(10), SalePrice: decimal.NewFromInt(20)}
	rec := &sale.Sale{ID: saleID, Timestamp: now, WorkerID: workerID, Total: decimal.NewFromInt(20)}
	changes := engine.Changes{
		Entries:  []ledger.Entry{entry},
		Balances: ledger.Balances{Investment: decimal.NewFromInt(110), Payout: decimal.Zero},
		Sale:     rec,
		Products: []catalog.Product{product},
	}

	t.Run("success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &RegisterRepository{querier: mock, logger: newTestLogger()}

		mock.ExpectExec(`INSERT INTO ledger_entries`).
			WithArgs(entry.ID, entry.Timestamp, entry.Kind, entry.Description, entry.Amount,
				entry.SaleID, entry.PurchaseID, entry.WorkerID, entry.InvestmentAfter, entry.PayoutAfter).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`UPDATE register_balances SET investment = \$1, payout = \$2`).
			WithArgs(changes.Balances.Investment, changes.Balances.Payout).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`INSERT INTO products (.+) ON CONFLICT \(id\) DO UPDATE`).
			WithArgs(product.ID, product.SKU, product.Name, product.CategoryID, product.Stock, product.Sold, product.CostPrice, product.SalePrice).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO sales \(id, ts, body\)`).
			WithArgs(rec.ID, rec.Timestamp, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Apply(ctx, changes))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("entry failure stops the write", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &RegisterRepository{querier: mock, logger: newTestLogger()}

		dbErr := errors.New("duplicate key")
		mock.ExpectExec(`INSERT INTO ledger_entries`).WillReturnError(dbErr)

		err = repo.Apply(ctx, changes)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to insert ledger entry 11")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("directory change only", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &RegisterRepository{querier: mock, logger: newTestLogger()}

		w := catalog.Worker{ID: 4, Name: "Rosa", Role: catalog.RoleSeller}
		mock.ExpectExec(`INSERT INTO workers`).
			WithArgs(w.ID, w.Name, w.Role).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Apply(ctx, engine.Changes{Workers: []catalog.Worker{w}}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegisterRepository_loadLedger(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &RegisterRepository{querier: mock, logger: newTestLogger()}

	now := time.Now()
	worker := int64(2)
	columns := []string{"id", "ts", "kind", "description", "amount", "sale_id", "purchase_id", "worker_id", "investment_after", "payout_after"}
	mock.ExpectQuery(`SELECT (.+) FROM ledger_entries ORDER BY id ASC`).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), now, ledger.KindManualAdjustment, "opening", "100", (*int64)(nil), (*int64)(nil), (*int64)(nil), "100", "0").
			AddRow(int64(2), now, ledger.KindCashShortage, "short", "-8", (*int64)(nil), (*int64)(nil), &worker, "100", "0"))

	entries, err := repo.loadLedger(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, decimal.NewFromInt(-8).Equal(entries[1].Amount))
	assert.Equal(t, worker, *entries[1].WorkerID)
	assert.Nil(t, entries[0].WorkerID)
	assert.NoError(t, ledger.Verify(entries, ledger.Balances{Investment: decimal.NewFromInt(100), Payout: decimal.Zero}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRepository_loadBalances(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &RegisterRepository{querier: mock, logger: newTestLogger()}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT investment, payout FROM register_balances`).
			WillReturnRows(pgxmock.NewRows([]string{"investment", "payout"}).AddRow("116.5", "4"))
		b, err := repo.loadBalances(ctx)
		require.NoError(t, err)
		assert.Equal(t, "116.5", b.Investment.String())
		assert.Equal(t, "4", b.Payout.String())
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectQuery(`SELECT investment, payout FROM register_balances`).WillReturnError(pgx.ErrNoRows)
		_, err := repo.loadBalances(ctx)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadDocuments(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT body FROM sales ORDER BY id ASC`).
		WillReturnRows(pgxmock.NewRows([]string{"body"}).
			AddRow([]byte(`{"id":1,"worker_id":2,"total":"20","item_count":1}`)).
			AddRow([]byte(`{"id":2,"worker_id":3,"total":"7.5","item_count":3}`)))

	sales, err := loadDocuments[sale.Sale](ctx, mock, "sales")
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, int64(3), sales[1].WorkerID)
	assert.Equal(t, "7.5", sales[1].Total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
