package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/claimstack/pricing-service/internal/category"
	"github.com/claimstack/pricing-service/internal/types"
)

var categoriesOutput string

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the depreciation categories",
	Long: `List the depreciation categories and their annual rates. The table comes
from the configured JSON file when one is set, otherwise from the compiled-in
defaults.`,
	Example: `  pricing categories
  pricing categories --output json`,
	Args: cobra.NoArgs,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)

	categoriesCmd.Flags().StringVar(&categoriesOutput, "output", "table", "Output format: table or json")
}

func runCategories(cmd *cobra.Command, args []string) error {
	tablePath := ""
	if cfg != nil {
		tablePath = cfg.Category.TablePath
	}
	table := category.LoadTable(tablePath, *logger)

	if categoriesOutput == "json" {
		entries := make([]category.Entry, 0, len(table.Names()))
		for _, name := range table.Names() {
			entries = append(entries, category.Entry{Name: name, Rate: table.Rate(name)})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tANNUAL RATE")
	for _, name := range table.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, types.FormatDepPercent(table.Rate(name)))
	}
	return w.Flush()
}
