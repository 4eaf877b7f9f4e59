package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/birdsql/birdsql/internal/dataset"
	"github.com/birdsql/birdsql/internal/llm"
	"github.com/birdsql/birdsql/internal/logging"
	"github.com/birdsql/birdsql/internal/runner"
)

var (
	predictEvalPath     string
	predictDBRoot       string
	predictMode         string
	predictUseKnowledge bool
	predictOutputPath   string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run batch SQL prediction over an evaluation set",
	Long: `Predict SQL for every question in an evaluation JSON file. Each question's
database schema is serialized into a prompt, sent to the completion endpoint,
and the response is normalized into a SELECT statement tagged with its
database id. A failed item yields an error placeholder instead of aborting
the run.

Examples:
  birdsql predict --eval-path data/dev.json --db-root-path data/dev_databases
  birdsql predict --eval-path data/dev.json --db-root-path data/dev_databases --use-knowledge --mode dev`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictEvalPath, "eval-path", "", "Path to the evaluation JSON file")
	predictCmd.Flags().StringVar(&predictDBRoot, "db-root-path", "", "Root directory containing one subdirectory per database")
	predictCmd.Flags().StringVar(&predictMode, "mode", "dev", "Dataset split name, used in the output filename")
	predictCmd.Flags().BoolVar(&predictUseKnowledge, "use-knowledge", false, "Include each item's evidence text in the prompt")
	predictCmd.Flags().StringVar(&predictOutputPath, "data-output-path", "", "Output directory for the predictions file (defaults to the configured output dir)")

	_ = predictCmd.MarkFlagRequired("eval-path")
	_ = predictCmd.MarkFlagRequired("db-root-path")

	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	logger := logging.GetLogger()

	evalItems, err := dataset.LoadEvalItems(predictEvalPath)
	if err != nil {
		return err
	}

	items := make([]runner.Item, 0, len(evalItems))

	for i, ev := range evalItems {
		item := runner.Item{
			Index:    i,
			DBPath:   dataset.DBPath(predictDBRoot, ev.DBID),
			DBID:     ev.DBID,
			Question: ev.Question,
		}
		if predictUseKnowledge {
			item.Knowledge = ev.Evidence
		}

		items = append(items, item)
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:      cfg.API.APIKey,
		BaseURL:     cfg.API.BaseURL,
		Model:       cfg.API.Engine,
		MaxTokens:   cfg.API.MaxTokens,
		Temperature: cfg.API.Temperature,
		Timeout:     cfg.APITimeout(),
	})
	if err != nil {
		return err
	}

	retry := llm.RetryPolicy{
		MaxAttempts: cfg.API.RetryAttempts,
		Interval:    cfg.RetryInterval(),
		GiveUp:      llm.IsQuotaExhaustion,
	}

	audit, err := runner.OpenAuditLog(cfg.Run.LogDir, "prompt_log.txt")
	if err != nil {
		return err
	}
	defer audit.Close()

	r := runner.NewRunner(client, retry, cfg.Run.SampleLimit, audit, logger)

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	r.Progress = func(index, total int, item runner.Item) {
		spin.Suffix = fmt.Sprintf(" predicting %d/%d (%s)", index+1, total, item.DBID)
	}

	spin.Start()
	predictions := r.Run(ctx, items)
	spin.Stop()

	outDir := predictOutputPath
	if outDir == "" {
		outDir = cfg.Run.OutputDir
	}

	outputPath := filepath.Join(outDir, fmt.Sprintf("predict_%s.json", predictMode))

	if err := runner.WriteResults(outputPath, predictions); err != nil {
		return err
	}

	fmt.Printf("Predictions for %d questions saved to %s\n", len(predictions), outputPath)
	fmt.Printf("Prompt log saved to: %s\n", audit.Path())

	return nil
}
