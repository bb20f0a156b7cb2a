package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronoline/chronoline/cmd/chronoline/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chronoline",
	Short: "Score temporal annotations against references",
	Long: `chronoline - evaluation toolkit for temporal annotations.

Scores hypothesis annotations (speaker diarization, sound event
detection, face tracking, ...) against reference annotations and
reports duration-weighted error rates with confidence intervals.

Supported metrics:
  detection        missed and hallucinated activity, labels ignored
  identification   label-aware miss / false alarm / confusion
  diarization      identification after the optimal cluster assignment
  purity           cluster homogeneity (greater is better)
  coverage         cluster completeness (greater is better)

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/chronoline/
  Linux:   ~/.config/chronoline/
  Windows: %AppData%/chronoline/

Examples:
  # Score one document pair
  chronoline eval --metric diarization --reference ref.mdtm --hypothesis hyp.mdtm

  # Score a whole corpus within its evaluation regions
  chronoline eval --metric detection --manifest corpus.yaml

  # Accumulate across invocations and inspect later
  chronoline eval --manifest corpus.yaml --run new
  chronoline runs show <id>

  # Convert between annotation formats
  chronoline convert --from mdtm --to json -i ref.mdtm`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// configLoadErr stores the error from config.Load() for deferred
// reporting, so commands that never touch the config still run.
var configLoadErr error

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}
