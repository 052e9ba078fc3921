package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewHistoryCommand lists archived scans
func NewHistoryCommand(opts *GlobalOptions, open Opener) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently completed scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner, closeApp, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeApp()

			summaries, err := scanner.ListScans(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list scans: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.JSON {
				return printJSON(out, summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No scans recorded")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCAN ID\tCATEGORY\tSUBCATEGORIES\tSTATUS\tFOUND\tBEST PROFIT\tCOMPLETED")
			fmt.Fprintln(w, "-------\t--------\t-------------\t------\t-----\t-----------\t---------")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%s\n",
					s.ScanID,
					s.Category,
					strings.Join(s.Subcategories, ", "),
					s.Status,
					s.TotalFound,
					s.BestProfit,
					s.CompletedAt.Format("2006-01-02 15:04:05"),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of scans to show")
	return cmd
}
