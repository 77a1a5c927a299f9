package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/category"
	"github.com/claimstack/pricing-service/internal/enhance"
	"github.com/claimstack/pricing-service/internal/estimate"
	"github.com/claimstack/pricing-service/internal/export"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/parsers"
	"github.com/claimstack/pricing-service/internal/parsers/csv"
	"github.com/claimstack/pricing-service/internal/parsers/xlsx"
	"github.com/claimstack/pricing-service/internal/pipeline"
	"github.com/claimstack/pricing-service/internal/query"
	"github.com/claimstack/pricing-service/internal/rank"
	"github.com/claimstack/pricing-service/internal/resolve"
	"github.com/claimstack/pricing-service/internal/scheduler"
	"github.com/claimstack/pricing-service/internal/search"
	"github.com/claimstack/pricing-service/internal/trust"
	"github.com/claimstack/pricing-service/internal/types"
)

var (
	priceOut        string
	priceTolerance  float64
	priceNoFallback bool
)

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price <file>",
	Short: "Price a claim inventory file",
	Long: `Read an inventory file (XLSX or CSV), price every row and write the
results. Output format follows the --out extension: .xlsx, .csv or .json;
without --out the results are written to stdout as JSON.

Interrupting the run keeps the rows priced so far.`,
	Example: `  pricing price claim.xlsx
  pricing price claim.csv --out priced.xlsx
  pricing price claim.xlsx --tolerance 30 --no-fallback`,
	Args: cobra.ExactArgs(1),
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringVar(&priceOut, "out", "", "Output path (.xlsx, .csv or .json; default stdout JSON)")
	priceCmd.Flags().Float64Var(&priceTolerance, "tolerance", 0, "Price tolerance percentage override")
	priceCmd.Flags().BoolVar(&priceNoFallback, "no-fallback", false, "Fail instead of emitting fallback rows when the search provider is down")
}

func runPrice(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	parseRes, err := parseFile(content, path)
	if err != nil {
		return err
	}
	for _, pe := range parseRes.Errors {
		logger.Warn().Int("row", pe.Row).Str("problem", pe.Message).Msg("row skipped")
	}
	if len(parseRes.Rows) == 0 {
		return fmt.Errorf("no usable rows in %s", path)
	}
	logger.Info().Int("rows", len(parseRes.Rows)).Str("file", path).Msg("inventory parsed")

	if priceTolerance > 0 {
		cfg.Pipeline.TolerancePct = priceTolerance
	}

	sched := buildScheduler()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var collected []types.PricingResult
	stats, runErr := sched.Run(ctx, parseRes.Rows, func(res types.PricingResult) {
		collected = append(collected, res)
	}, func(p scheduler.Progress) {
		if p.Processed%25 == 0 || p.Processed == p.Total {
			logger.Info().Int("processed", p.Processed).Int("total", p.Total).
				Dur("elapsed", p.Elapsed).Msg("progress")
		}
	})

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].RowIndex < collected[j].RowIndex
	})

	if err := writeResults(collected); err != nil {
		return err
	}
	displayStats(stats)

	if runErr != nil {
		return runErr
	}
	if priceNoFallback && stats.Processed > 0 && serpCount(collected) == 0 {
		return fmt.Errorf("%w: every row fell back, no search offer was priced", errProviderDown)
	}
	return nil
}

// buildScheduler wires providers, policies and caches into a scheduler.
func buildScheduler() *scheduler.Scheduler {
	log := *logger
	llmCache := cache.New(cfg.Cache.TTL, cfg.Cache.Capacity)
	searchCache := cache.New(cfg.Cache.TTL, cfg.Cache.Capacity)

	policy := trust.NewPolicy(trust.Config{
		TrustedDomains:        cfg.Trust.TrustedDomains,
		UntrustedPatterns:     cfg.Trust.UntrustedPatterns,
		BlockedURLPatterns:    cfg.Trust.BlockedPatterns,
		DirectProductPatterns: cfg.Trust.DirectPatterns,
		FriendlyNames:         cfg.Trust.FriendlyNames,
	})

	completer := llm.NewClient(cfg.LLM, log)
	provider := search.NewCachedProvider(search.NewSERPProvider(cfg.Search, log), searchCache)
	table := category.LoadTable(cfg.Category.TablePath, log)

	pl := pipeline.New(
		cfg.Pipeline,
		provider,
		resolve.New(policy, nil, cfg.Resolver, log),
		enhance.New(completer, llmCache, log),
		estimate.New(completer, llmCache, cfg.Estimator, log),
		policy,
		query.NewBuilder(query.Config{}),
		rank.New(policy, rank.DefaultWeights()),
		category.New(table, completer, llmCache, log),
		log,
	)
	return scheduler.New(pl, log)
}

func parseFile(content []byte, path string) (*parsers.Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsx.NewParser(xlsx.Options{}).Parse(content)
	case ".csv", ".tsv", ".txt":
		return csv.NewParser().Parse(content)
	default:
		return nil, fmt.Errorf("unsupported file type %s, expected .xlsx or .csv", filepath.Ext(path))
	}
}

func writeResults(rows []types.PricingResult) error {
	if priceOut == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	f, err := os.Create(priceOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", priceOut, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(priceOut)) {
	case ".xlsx":
		err = export.WriteXLSX(f, rows)
	case ".csv":
		err = export.WriteCSV(f, rows)
	default:
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(rows)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", priceOut, err)
	}
	logger.Info().Str("file", priceOut).Int("rows", len(rows)).Msg("results written")
	return nil
}

func serpCount(rows []types.PricingResult) int {
	n := 0
	for _, r := range rows {
		if r.PricingTier == types.TierSERP {
			n++
		}
	}
	return n
}

func displayStats(stats scheduler.Stats) {
	w := tabwriter.NewWriter(os.Stderr, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PROCESSED\tFOUND\tESTIMATED\tFALLBACKS\tELAPSED")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n",
		stats.Processed, stats.Found, stats.Estimated, stats.Fallbacks, stats.Elapsed.Round(time.Millisecond))
	w.Flush()
}
