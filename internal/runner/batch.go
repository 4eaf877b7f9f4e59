package runner

import (
	"context"
	"database/sql"
	"strings"

	"github.com/birdsql/birdsql/internal/llm"
	"github.com/birdsql/birdsql/internal/logging"
	"github.com/birdsql/birdsql/internal/prompt"
	"github.com/birdsql/birdsql/internal/schema"
	"github.com/birdsql/birdsql/internal/storage"
)

// The provenance tag appended to every prediction, tab-delimited so
// downstream evaluation can split the SQL from its database id.
const dbTagSeparator = "\t----- bird -----\t"

// Item is one question to predict SQL for
type Item struct {
	Index     int
	DBPath    string
	DBID      string
	Question  string
	Knowledge string
}

// Completer is the single model call the runner depends on
type Completer interface {
	Complete(ctx context.Context, promptText string) (string, error)
	Model() string
}

// Runner drives the batch prediction loop: introspect, compose, complete,
// normalize, tag. A failed item never aborts the run; it yields an error
// placeholder in the same output slot so indices stay aligned with the
// input questions.
type Runner struct {
	client      Completer
	retry       llm.RetryPolicy
	sampleLimit int
	audit       *AuditLog
	logger      *logging.Logger

	// Progress, when set, is called before each item is processed
	Progress func(index, total int, item Item)
}

// NewRunner creates a batch runner. The audit log may be nil, in which case
// prompt/response recording is skipped.
func NewRunner(client Completer, retry llm.RetryPolicy, sampleLimit int, audit *AuditLog, logger *logging.Logger) *Runner {
	return &Runner{
		client:      client,
		retry:       retry,
		sampleLimit: sampleLimit,
		audit:       audit,
		logger:      logger,
	}
}

// Run predicts SQL for every item in order and returns one tagged prediction
// per item. Results are positional: result[i] corresponds to items[i].
func (r *Runner) Run(ctx context.Context, items []Item) []string {
	results := make([]string, 0, len(items))

	for i, item := range items {
		if r.Progress != nil {
			r.Progress(i, len(items), item)
		}

		promptText, raw, err := r.predict(ctx, item)

		var line string

		if err != nil {
			r.logger.WithField("index", item.Index).WithField("db_id", item.DBID).
				ErrorWithErr("prediction failed", err)

			// Error placeholders are passed through untouched so evaluation
			// can spot them; only real completions are normalized.
			line = "error:" + err.Error()
			raw = line
		} else {
			line = Normalize(raw)
		}

		r.record(item, promptText, raw)

		results = append(results, Tag(line, item.DBID))

		if ctx.Err() != nil && i < len(items)-1 {
			r.logger.Warn("run cancelled, padding remaining items with placeholders")

			for _, rest := range items[i+1:] {
				placeholder := "error:" + ctx.Err().Error()
				r.record(rest, "", placeholder)
				results = append(results, Tag(placeholder, rest.DBID))
			}

			break
		}
	}

	return results
}

// predict builds the prompt for one item and performs the completion call.
// The composed prompt is returned even on failure so it can be audited.
func (r *Runner) predict(ctx context.Context, item Item) (string, string, error) {
	var schemaText string

	err := storage.With(item.DBPath, func(db *sql.DB) error {
		doc, err := schema.Introspect(db, item.DBPath, r.sampleLimit)
		if err != nil {
			return err
		}

		schemaText = doc.Render()

		return nil
	})
	if err != nil {
		return "", "", err
	}

	promptText := prompt.Compose(schemaText, item.Question, item.Knowledge)

	raw, err := r.retry.Do(ctx, func() (string, error) {
		return r.client.Complete(ctx, promptText)
	})

	return promptText, raw, err
}

func (r *Runner) record(item Item, promptText, response string) {
	if r.audit == nil {
		return
	}

	entry := AuditEntry{
		Index:    item.Index,
		DBID:     item.DBID,
		Question: item.Question,
		Engine:   r.client.Model(),
		Prompt:   promptText,
		Response: response,
	}

	if err := r.audit.Record(entry); err != nil {
		r.logger.WithField("index", item.Index).ErrorWithErr("failed to write audit entry", err)
	}
}

// Normalize trims a raw completion and ensures it reads as a full SELECT
// statement. Completion-style responses continue the prompt's SELECT primer
// and so arrive without the keyword; chat-style responses usually include it.
// The check is case-insensitive.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToUpper(s), "SELECT") {
		s = "SELECT " + s
	}

	return s
}

// Tag appends the database id provenance marker to a normalized prediction
func Tag(sqlText, dbID string) string {
	return sqlText + dbTagSeparator + dbID
}
