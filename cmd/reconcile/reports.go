package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func reportsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage saved reports",
	}

	cmd.AddCommand(reportsListCmd(root))
	cmd.AddCommand(reportsGetCmd(root))
	cmd.AddCommand(reportsDeleteCmd(root))
	return cmd
}

func parseReportID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid report id %q", arg)
	}
	return id, nil
}

func reportsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := root.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPOS\tDATE\tSOURCE\tBANK\tROWS")
			for _, s := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n", s.ID, s.Name, s.PosID, s.Date, s.Source, s.Bank, s.RowCount)
			}
			return w.Flush()
		},
	}
}

func reportsGetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a saved report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReportID(args[0])
			if err != nil {
				return err
			}
			store, closeStore, err := root.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			rep, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
}

func reportsDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReportID(args[0])
			if err != nil {
				return err
			}
			store, closeStore, err := root.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted report %d\n", id)
			return nil
		},
	}
}
