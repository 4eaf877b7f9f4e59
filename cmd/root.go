package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/birdsql/birdsql/internal/config"
	"github.com/birdsql/birdsql/internal/logging"
)

var (
	flagAPIKey   string
	flagEngine   string
	flagBaseURL  string
	flagLogLevel string
	flagLogDir   string
)

var rootCmd = &cobra.Command{
	Use:   "birdsql",
	Short: "Text-to-SQL prompting over SQLite benchmark databases",
	Long: `birdsql turns natural-language questions into SQL by serializing a SQLite
database schema (tables, columns, foreign keys, sample values, optional column
descriptions) into a prompt and sending it to an LLM completion endpoint.

Two modes are available:
- predict: batch prediction over a full evaluation set
- interactive: a bounded execute-compare-refine loop for a single question`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	ctx := context.Background()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key for the completion endpoint (overrides OPENAI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "", "Model identifier (default gpt-4o-mini)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Completion endpoint base URL")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Directory for audit and session logs")
}

// loadConfig resolves configuration from environment variables and the
// persistent flags, then installs the global diagnostic logger.
func loadConfig() (*config.Config, error) {
	overrides := map[string]interface{}{
		"api-key":   flagAPIKey,
		"engine":    flagEngine,
		"base-url":  flagBaseURL,
		"log-level": flagLogLevel,
		"log-dir":   flagLogDir,
	}

	cfg, err := config.LoadConfigWithOverrides(overrides)
	if err != nil {
		return nil, err
	}

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		return nil, err
	}

	return cfg, nil
}
