package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"CashbookRecon/internal/config"
	"CashbookRecon/internal/reportstore"
)

type rootOptions struct {
	envFile   string
	storeKind string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Cashbook and payments reconciliation",
		Long: `reconcile ingests cashbook (sales) and payments spreadsheets, derives the
remittance columns and manages the reports saved by the recon gateway.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load(opts.envFile)
			if opts.storeKind == "" {
				opts.storeKind = os.Getenv("REPORT_STORE")
			}
			if opts.storeKind == "" {
				opts.storeKind = config.DefaultStoreKind
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file with DB_* settings")
	cmd.PersistentFlags().StringVar(&opts.storeKind, "store", "", "report store: pgx, postgres, sqlite or memory (default $REPORT_STORE or pgx)")

	cmd.AddCommand(ingestCmd(opts))
	cmd.AddCommand(reportsCmd(opts))
	cmd.AddCommand(banksCmd())
	return cmd
}

func (o *rootOptions) openStore(ctx context.Context) (reportstore.Store, func(), error) {
	return reportstore.Open(ctx, o.storeKind, reportstore.DBConfigFromEnv())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func banksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List the banks a cashbook can be tagged with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, b := range config.Banks {
				fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}
