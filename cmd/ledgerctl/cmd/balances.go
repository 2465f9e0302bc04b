package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tienda-register-ledger/internal/domain/catalog"
)

// balancesCmd prints the stored pools and the credit still owed.
var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print the investment and payout pools",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		state, err := loadState(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("failed to load register state: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Investment: %s CUP\n", state.Balances.Investment.StringFixed(2))
		fmt.Fprintf(out, "Payout:     %s CUP\n", state.Balances.Payout.StringFixed(2))
		count, owed := openDebts(state.DebtList())
		fmt.Fprintf(out, "Open debts: %d (%s CUP)\n", count, owed.StringFixed(2))
		return nil
	},
}

func openDebts(debts []catalog.Debt) (int, decimal.Decimal) {
	count, owed := 0, decimal.Zero
	for _, d := range debts {
		if d.Status.Open() {
			count++
			owed = owed.Add(d.Amount)
		}
	}
	return count, owed
}
