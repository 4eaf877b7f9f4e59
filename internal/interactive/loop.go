package interactive

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/birdsql/birdsql/internal/logging"
	"github.com/birdsql/birdsql/internal/prompt"
	"github.com/birdsql/birdsql/internal/schema"
	"github.com/birdsql/birdsql/internal/storage"
)

// State names a position in the refinement state machine
type State string

const (
	StateDrafting           State = "drafting"
	StateExecuting          State = "executing"
	StateCollectingFeedback State = "collecting-feedback"
	StateMatched            State = "matched"
	StateExhausted          State = "exhausted"
)

var codeFence = regexp.MustCompile("(?i)```sql|```")

// StripCodeFences removes markdown fence markup from a model response,
// leaving the bare SQL text.
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
}

// Chatter is the single chat-style model call the loop depends on
type Chatter interface {
	Chat(ctx context.Context, userPrompt string) (string, error)
}

// Result is the record an interactive session produces
type Result struct {
	Question        string   `json:"question"`
	PredSQL         string   `json:"pred_sql"`
	GoldSQL         string   `json:"gold_sql"`
	ExecutionResult string   `json:"execution_result"`
	FeedbackHistory []string `json:"feedback_history"`

	State State `json:"-"`
}

// Session drives one bounded execute-compare-refine loop for a single
// question. Endpoint errors are not guarded here: a failed chat call ends
// the whole session.
type Session struct {
	client      Chatter
	feedback    FeedbackProvider
	sampleLimit int
	maxIter     int
	log         *SessionLog
	logger      *logging.Logger

	// OnStep, when set, is called after each step's comparison
	OnStep func(step int, prediction, message string)
}

// NewSession creates a refinement session. The session log may be nil, in
// which case step recording is skipped.
func NewSession(client Chatter, feedback FeedbackProvider, sampleLimit, maxIter int, log *SessionLog, logger *logging.Logger) *Session {
	if maxIter <= 0 {
		maxIter = 1
	}

	return &Session{
		client:      client,
		feedback:    feedback,
		sampleLimit: sampleLimit,
		maxIter:     maxIter,
		log:         log,
		logger:      logger,
	}
}

// Run executes the refinement loop: draft, execute, compare, collect
// feedback, redraft. It stops on the first execution match or after maxIter
// drafts. Feedback is only collected when another draft will follow, so an
// exhausted session carries maxIter-1 history entries.
func (s *Session) Run(ctx context.Context, question, goldSQL, dbPath string) (*Result, error) {
	var schemaText string

	err := storage.With(dbPath, func(db *sql.DB) error {
		doc, err := schema.Introspect(db, dbPath, s.sampleLimit)
		if err != nil {
			return err
		}

		schemaText = doc.Render()

		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Question:        question,
		GoldSQL:         goldSQL,
		FeedbackHistory: []string{},
	}

	for step := 1; step <= s.maxIter; step++ {
		result.State = StateDrafting

		promptText := prompt.ComposeRefinement(schemaText, question, result.PredSQL, result.FeedbackHistory)

		raw, err := s.client.Chat(ctx, promptText)
		if err != nil {
			s.endLog()
			return nil, err
		}

		result.PredSQL = StripCodeFences(raw)
		result.State = StateExecuting

		matched, message := ExecuteAndCompare(dbPath, result.PredSQL, goldSQL)
		result.ExecutionResult = message

		s.recordStep(step, question, promptText, result.PredSQL, message)

		if s.OnStep != nil {
			s.OnStep(step, result.PredSQL, message)
		}

		if matched {
			result.State = StateMatched
			s.recordMatch()

			break
		}

		if step == s.maxIter {
			result.State = StateExhausted

			break
		}

		result.State = StateCollectingFeedback

		feedback, err := s.feedback.Feedback(result.PredSQL, goldSQL)
		if err != nil {
			s.endLog()
			return nil, err
		}

		result.FeedbackHistory = append(result.FeedbackHistory, feedback)
		s.recordFeedback(feedback)
	}

	s.endLog()

	return result, nil
}

func (s *Session) recordStep(step int, question, promptText, prediction, message string) {
	if s.log == nil {
		return
	}

	if err := s.log.RecordStep(step, question, promptText, prediction, message); err != nil {
		s.logger.ErrorWithErr("failed to record session step", err)
	}
}

func (s *Session) recordMatch() {
	if s.log == nil {
		return
	}

	if err := s.log.RecordMatch(); err != nil {
		s.logger.ErrorWithErr("failed to record session match", err)
	}
}

func (s *Session) recordFeedback(feedback string) {
	if s.log == nil {
		return
	}

	if err := s.log.RecordFeedback(feedback); err != nil {
		s.logger.ErrorWithErr("failed to record session feedback", err)
	}
}

func (s *Session) endLog() {
	if s.log == nil {
		return
	}

	if err := s.log.EndSession(); err != nil {
		s.logger.ErrorWithErr("failed to close session log block", err)
	}
}
