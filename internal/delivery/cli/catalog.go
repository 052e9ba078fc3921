package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fliphawk/backend/internal/usecase"
)

// NewCategoriesCommand lists the category catalog
func NewCategoriesCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and their subcategories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.JSON {
				return printJSON(out, usecase.Catalog)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tSUBCATEGORIES")
			fmt.Fprintln(w, "--------\t-------------")
			for _, c := range usecase.Catalog {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, strings.Join(c.Subcategories, ", "))
			}
			return w.Flush()
		},
	}
}

// NewKeywordsCommand previews the searches a subcategory expands into
func NewKeywordsCommand(opts *GlobalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "keywords <subcategory>",
		Short: "Show the search keywords a subcategory expands into",
		Long: `Show the search keywords a subcategory expands into: the subcategory
itself, curated search terms and common misspellings.

Examples:
  fliphawk keywords Headphones
  fliphawk keywords "Graphics Cards" --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keywords := usecase.NewKeywordExpander().Expand(args[0], limit)

			out := cmd.OutOrStdout()
			if opts.JSON {
				return printJSON(out, map[string]interface{}{
					"subcategory": args[0],
					"keywords":    keywords,
				})
			}

			for i, kw := range keywords {
				fmt.Fprintf(out, "%2d. %s\n", i+1, kw)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of keywords (1-20)")
	return cmd
}
