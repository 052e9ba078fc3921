package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fliphawk/backend/internal/domain"
)

// NewScanCommand runs a scan in the foreground
func NewScanCommand(opts *GlobalOptions, open Opener) *cobra.Command {
	var (
		request domain.ScanRequest
		sortBy  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan subcategories for arbitrage opportunities",
		Long: `Search every configured marketplace for the given subcategories, match
listings that describe the same item and print the profitable pairs.

Press Ctrl-C to cancel; partial progress is discarded.

Examples:
  fliphawk scan --category Tech --sub Headphones
  fliphawk scan --category Tech --sub Headphones --sub Keyboards --sort confidence --min-confidence 70
  fliphawk scan --category Antiques --sub Cameras --min-profit 20 --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := domain.ParseSortKey(sortBy)
			if !ok {
				return fmt.Errorf("unknown sort key %q (profitPercentage, profit, confidence)", sortBy)
			}
			request.SortBy = key

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			scanner, closeApp, err := open(ctx, opts)
			if err != nil {
				return err
			}
			defer closeApp()

			progressOut := cmd.ErrOrStderr()
			result, err := scanner.RunScan(ctx, request, func(p domain.ScanProgress) {
				if opts.JSON {
					return
				}
				if p.Subcategory != "" {
					fmt.Fprintf(progressOut, "[%3d%%] %s %s\n", p.Progress, p.Status, p.Subcategory)
				} else {
					fmt.Fprintf(progressOut, "[%3d%%] %s\n", p.Progress, p.Status)
				}
			})
			if result == nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.JSON {
				if perr := printJSON(out, result); perr != nil {
					return perr
				}
			} else {
				printResult(out, result)
			}

			if errors.Is(err, domain.ErrScanCancelled) {
				return fmt.Errorf("scan %s cancelled", result.Meta.ScanID)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&request.Category, "category", "", "Category name, e.g. Tech")
	cmd.Flags().StringSliceVar(&request.Subcategories, "sub", nil, "Subcategory to search (repeatable, up to 5)")
	cmd.Flags().IntVar(&request.MaxResults, "max-results", 0, "Listings per marketplace search (0 uses the configured default)")
	cmd.Flags().StringVar(&sortBy, "sort", "profitPercentage", "Sort by profitPercentage, profit or confidence")
	cmd.Flags().Float64Var(&request.MinProfit, "min-profit", 0, "Minimum net profit")
	cmd.Flags().IntVar(&request.MinConfidence, "min-confidence", 0, "Minimum confidence (0-100)")
	cmd.Flags().IntVar(&request.Limit, "limit", 0, "Maximum opportunities to print (0 for all)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Cancel the scan after this long")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}

func printResult(out io.Writer, result *domain.ScanResult) {
	meta := result.Meta
	fmt.Fprintf(out, "Scan %s: %s\n", meta.ScanID, meta.Status)
	if meta.Cached {
		fmt.Fprintln(out, "(served from cache)")
	}
	if len(meta.FailedSubcategories) > 0 {
		fmt.Fprintf(out, "Failed subcategories: %v\n", meta.FailedSubcategories)
	}
	if meta.Reason != "" {
		fmt.Fprintf(out, "Reason: %s\n", meta.Reason)
	}
	if meta.DroppedRecords > 0 {
		fmt.Fprintf(out, "Dropped %d unparseable listings\n", meta.DroppedRecords)
	}

	if len(result.Opportunities) == 0 {
		fmt.Fprintln(out, "No opportunities found")
		return
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tBUY\tBUY PRICE\tSELL\tSELL PRICE\tNET\tROI\tCONF")
	fmt.Fprintln(w, "-\t---\t---------\t----\t----------\t---\t---\t----")
	for i, opp := range result.Opportunities {
		fmt.Fprintf(w, "%d\t%s (%s)\t%s\t%s (%s)\t%s\t%s\t%.2f%%\t%d\n",
			i+1,
			truncate(opp.Buy.Title, 40), opp.Buy.Marketplace,
			opp.Buy.Price.StringFixed(2),
			truncate(opp.Sell.Title, 40), opp.Sell.Marketplace,
			opp.Sell.Price.StringFixed(2),
			opp.NetProfit.StringFixed(2),
			opp.ProfitPercentage,
			opp.Confidence,
		)
	}
	w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
