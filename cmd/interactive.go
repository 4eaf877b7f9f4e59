package cmd

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/birdsql/birdsql/internal/dataset"
	"github.com/birdsql/birdsql/internal/errors"
	"github.com/birdsql/birdsql/internal/interactive"
	"github.com/birdsql/birdsql/internal/llm"
	"github.com/birdsql/birdsql/internal/logging"
)

var (
	interactiveEvalPath   string
	interactiveGoldPath   string
	interactiveDBRoot     string
	interactiveIndex      int
	interactiveMaxIter    int
	interactiveOutputPath string
	interactiveAuto       bool
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Refine SQL for one question in an execute-compare loop",
	Long: `Run a bounded refinement loop for a single evaluation question. Each step
asks the model for SQL, executes both the prediction and the gold SQL against
the real database, and compares their result sets. On mismatch you can type
feedback yourself or let a rule-based diagnosis feed the next round.

Examples:
  birdsql interactive --eval-path data/dev.json --gold-path data/dev_gold.sql --db-root-path data/dev_databases --index 42
  birdsql interactive --eval-path data/dev.json --gold-path data/dev_gold.sql --db-root-path data/dev_databases --index 42 --auto-feedback --max-iter 5`,
	RunE: runInteractive,
}

func init() {
	interactiveCmd.Flags().StringVar(&interactiveEvalPath, "eval-path", "", "Path to the evaluation JSON file")
	interactiveCmd.Flags().StringVar(&interactiveGoldPath, "gold-path", "", "Path to the tab-delimited gold SQL file")
	interactiveCmd.Flags().StringVar(&interactiveDBRoot, "db-root-path", "", "Root directory containing one subdirectory per database")
	interactiveCmd.Flags().IntVar(&interactiveIndex, "index", -1, "Question index to refine (prompted when omitted)")
	interactiveCmd.Flags().IntVar(&interactiveMaxIter, "max-iter", 0, "Maximum refinement steps (defaults to the configured value)")
	interactiveCmd.Flags().StringVar(&interactiveOutputPath, "output-path", "", "Path for the session result JSON (defaults to <output-dir>/interactive_results.json)")
	interactiveCmd.Flags().BoolVar(&interactiveAuto, "auto-feedback", false, "Always use rule-based feedback without prompting")

	_ = interactiveCmd.MarkFlagRequired("eval-path")
	_ = interactiveCmd.MarkFlagRequired("gold-path")
	_ = interactiveCmd.MarkFlagRequired("db-root-path")

	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	if interactiveMaxIter > 0 {
		cfg.Run.MaxIter = interactiveMaxIter
	}

	logger := logging.GetLogger()

	evalItems, err := dataset.LoadEvalItems(interactiveEvalPath)
	if err != nil {
		return err
	}

	golds, err := dataset.LoadGoldEntries(interactiveGoldPath)
	if err != nil {
		return err
	}

	if len(golds) != len(evalItems) {
		return errors.Newf(errors.ErrTypeValidation,
			"gold file has %d entries but eval file has %d items", len(golds), len(evalItems))
	}

	idx := interactiveIndex
	if idx < 0 {
		idx, err = promptForIndex(cmd, len(evalItems))
		if err != nil {
			return err
		}
	}

	if idx < 0 || idx >= len(evalItems) {
		return errors.Newf(errors.ErrTypeValidation,
			"question index %d out of range (0 ~ %d)", idx, len(evalItems)-1)
	}

	item := evalItems[idx]
	goldSQL := golds[idx].SQL
	dbPath := dataset.DBPath(interactiveDBRoot, item.DBID)

	fmt.Printf("\nSelected Question #%d: %s\n", idx, item.Question)
	fmt.Printf("Gold SQL: %s\n", goldSQL)

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

	sessionLog, err := interactive.OpenSessionLog(filepath.Join(cfg.Run.LogDir, "interactive_log.txt"))
	if err != nil {
		return err
	}
	defer sessionLog.Close()

	var feedback interactive.FeedbackProvider = interactive.AutoFeedback{}
	if !interactiveAuto {
		feedback = interactive.NewConsoleFeedback(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	session := interactive.NewSession(client, feedback, cfg.Run.SampleLimit, cfg.Run.MaxIter, sessionLog, logger)
	session.OnStep = func(step int, prediction, message string) {
		fmt.Printf("\n[Step %d] Predicted SQL:\n%s\n", step, prediction)
		fmt.Printf("Execution Check: %s\n", message)
	}

	result, err := session.Run(ctx, item.Question, goldSQL, dbPath)
	if err != nil {
		return err
	}

	if result.State == interactive.StateMatched {
		fmt.Println("\nCorrect SQL found (execution results match)!")
	} else {
		fmt.Printf("\nNo match within %d steps.\n", cfg.Run.MaxIter)
	}

	outputPath := interactiveOutputPath
	if outputPath == "" {
		outputPath = filepath.Join(cfg.Run.OutputDir, "interactive_results.json")
	}

	if err := interactive.WriteResult(outputPath, result); err != nil {
		return err
	}

	fmt.Printf("\nInteractive session finished. Result saved to %s\n", outputPath)

	return nil
}

func promptForIndex(cmd *cobra.Command, total int) (int, error) {
	fmt.Printf("Enter question index (0 ~ %d): ", total-1)

	reader := bufio.NewReader(cmd.InOrStdin())

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 0, errors.Wrap(err, errors.ErrTypeValidation, "failed to read question index")
	}

	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrTypeValidation, "invalid question index %q", strings.TrimSpace(line))
	}

	return idx, nil
}
