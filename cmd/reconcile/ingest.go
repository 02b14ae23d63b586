package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"CashbookRecon/internal/ledger"
	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/spreadsheet"
)

type ingestOptions struct {
	bank     string
	source   string
	currency string
	search   string
	save     bool
	name     string
	posID    string
	date     string
}

func ingestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Normalize a spreadsheet and print its table data",
		Long: `Read a .xlsx, .xls or .csv export, tag every row with --bank and print
the serialized table as JSON. With --save the table is stored as a report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := opts.run(args[0])
			if err != nil {
				return err
			}
			if opts.save {
				return opts.saveReport(cmd, root, records)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}

	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank every row is tagged with (required)")
	cmd.Flags().StringVar(&opts.source, "source", ledger.SourceSales, "sales (cashbook) or payments")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "display currency: USD or ZWG")
	cmd.Flags().StringVar(&opts.search, "search", "", "keep only rows matching this term")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the table as a report")
	cmd.Flags().StringVar(&opts.name, "name", "", "report name, required with --save")
	cmd.Flags().StringVar(&opts.posID, "pos-id", "", "point of sale id")
	cmd.Flags().StringVar(&opts.date, "date", "", "report date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("bank")
	return cmd
}

func (o *ingestOptions) run(path string) ([]ledger.Record, error) {
	profile, err := ledger.ProfileFor(o.source)
	if err != nil {
		return nil, err
	}
	o.currency = strings.ToUpper(strings.TrimSpace(o.currency))
	if !ledger.SupportedCurrency(o.currency) {
		return nil, fmt.Errorf("unsupported currency %q", o.currency)
	}
	if !spreadsheet.Supported(path) {
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	rows, err := spreadsheet.Read(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	table, err := ledger.Load(profile, rows, o.bank)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(o.search) == "" {
		return ledger.Serialize(table, o.currency), nil
	}
	view, err := ledger.Search(table, o.search)
	if err != nil {
		return nil, err
	}
	return ledger.Serialize(view, o.currency), nil
}

func (o *ingestOptions) saveReport(cmd *cobra.Command, root *rootOptions, records []ledger.Record) error {
	profile, _ := ledger.ProfileFor(o.source)
	date := o.date
	if date == "" {
		date = reportstore.Today()
	}
	nr := reportstore.NewReport{
		Name:      strings.TrimSpace(o.name),
		PosID:     strings.TrimSpace(o.posID),
		Date:      date,
		Source:    profile.Source,
		Currency:  o.currency,
		TableData: records,
	}
	if err := nr.Validate(); err != nil {
		return err
	}

	store, closeStore, err := root.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	id, err := store.Save(cmd.Context(), nr)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved report %d (%d rows)\n", id, len(records))
	return nil
}
