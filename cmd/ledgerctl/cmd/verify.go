package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tienda-register-ledger/internal/data/mongo"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/platform/persistence"
)

var checkArchive bool

// verifyCmd replays the ledger and optionally compares the archive head.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay the ledger against the stored balances",
	Long: `Replay every ledger entry from zero, check each entry's balance
snapshot, and compare the result with the stored investment and payout pools.

With --archive the MongoDB archive is also checked: its head must match the
ledger head and no entry may be stored unverified.

Exits non-zero when any check fails.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&checkArchive, "archive", false, "also compare the MongoDB archive with the ledger")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := loadState(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to load register state: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := reportLedger(out, state.Ledger, state.Balances); err != nil {
		return err
	}
	if !checkArchive {
		return nil
	}

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return err
	}
	defer mongoDB.Close(ctx)

	archive := mongo.NewArchiveRepository(log, mongoDB.Database())
	latest, err := archive.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to read archive head: %w", err)
	}
	unverified, err := archive.CountUnverified(ctx)
	if err != nil {
		return fmt.Errorf("failed to count unverified entries: %w", err)
	}
	return reportArchive(out, ledgerHead(state.Ledger), latest, unverified)
}

func ledgerHead(entries []ledger.Entry) int64 {
	if len(entries) == 0 {
		return 0
	}
	return entries[len(entries)-1].ID
}

// reportLedger prints the replay result and returns the verification error
func reportLedger(out io.Writer, entries []ledger.Entry, live ledger.Balances) error {
	fmt.Fprintf(out, "Entries:    %d\n", len(entries))
	fmt.Fprintf(out, "Investment: %s CUP\n", live.Investment.StringFixed(2))
	fmt.Fprintf(out, "Payout:     %s CUP\n", live.Payout.StringFixed(2))

	if err := ledger.Verify(entries, live); err != nil {
		fmt.Fprintf(out, "Ledger:     INCONSISTENT (%v)\n", err)
		return err
	}
	fmt.Fprintln(out, "Ledger:     consistent")
	return nil
}

// reportArchive compares the archive head with the ledger head. An archive
// behind the ledger is reported but not an error; the projector may lag.
func reportArchive(out io.Writer, head int64, latest *ledger.Entry, unverified int64) error {
	var archived int64
	if latest != nil {
		archived = latest.ID
	}
	fmt.Fprintf(out, "Archive:    head %d of %d, %d unverified\n", archived, head, unverified)

	switch {
	case archived > head:
		return fmt.Errorf("archive head %d is ahead of ledger head %d", archived, head)
	case unverified > 0:
		return fmt.Errorf("%d archived entries failed the chain check", unverified)
	}
	return nil
}
