package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/claimstack/pricing-service/config"
	"github.com/claimstack/pricing-service/internal/scheduler"
)

// Exit codes. The host inspects these to distinguish retryable
// conditions from operator errors.
const (
	exitOK           = 0
	exitConfig       = 2
	exitNoCreds      = 3
	exitCancelled    = 4
	exitProviderDown = 5
)

var (
	errProviderDown = errors.New("search provider unavailable")
	errBadConfig    = errors.New("invalid configuration")
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pricing",
	Short: "ClaimStack pricing CLI - replacement-cost pricing for claim inventories",
	Long: `A CLI tool for pricing insurance-claim inventories. Reads an inventory
file (XLSX or CSV), searches retail offers for each item, and emits one
replacement-cost record per row with depreciation classification.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config is optional for some commands, don't fail here
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	if cmd.Name() == "price" {
		if cfg == nil {
			return fmt.Errorf("%w: config required for %s command but not loaded", errBadConfig, cmd.Name())
		}
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
	}

	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Always use console format for CLI
	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stdout
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrNoCredentials):
		return exitNoCreds
	case errors.Is(err, scheduler.ErrCancelled):
		return exitCancelled
	case errors.Is(err, errProviderDown):
		return exitProviderDown
	case errors.Is(err, errBadConfig):
		return exitConfig
	default:
		return 1
	}
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
