package interactive

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/birdsql/birdsql/internal/errors"
)

const (
	feedbackMissingWhere   = "You forgot the WHERE condition."
	feedbackMissingGroupBy = "You missed the GROUP BY clause."
	feedbackMissingJoin    = "You should include a JOIN operation."
	feedbackGeneric        = "The SQL result is incorrect. Please refine conditions or joins."
)

// FeedbackProvider supplies one feedback string after a failed comparison
type FeedbackProvider interface {
	Feedback(predictedSQL, goldSQL string) (string, error)
}

// RuleFeedback diagnoses the predicted SQL against the gold SQL by keyword
// presence, checked in priority order: a missing WHERE outranks a missing
// GROUP BY, which outranks a missing JOIN. When none apply it falls back to
// a generic refinement nudge.
func RuleFeedback(predictedSQL, goldSQL string) string {
	pred := strings.ToLower(predictedSQL)
	gold := strings.ToLower(goldSQL)

	switch {
	case strings.Contains(gold, "where") && !strings.Contains(pred, "where"):
		return feedbackMissingWhere
	case strings.Contains(gold, "group by") && !strings.Contains(pred, "group by"):
		return feedbackMissingGroupBy
	case strings.Contains(gold, "join") && !strings.Contains(pred, "join"):
		return feedbackMissingJoin
	default:
		return feedbackGeneric
	}
}

// AutoFeedback always answers with the rule-based diagnosis
type AutoFeedback struct{}

func (AutoFeedback) Feedback(predictedSQL, goldSQL string) (string, error) {
	return RuleFeedback(predictedSQL, goldSQL), nil
}

// ConsoleFeedback asks a human whether they want to type feedback and falls
// back to the rule-based diagnosis when they decline.
type ConsoleFeedback struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsoleFeedback(in io.Reader, out io.Writer) *ConsoleFeedback {
	return &ConsoleFeedback{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (c *ConsoleFeedback) Feedback(predictedSQL, goldSQL string) (string, error) {
	fmt.Fprint(c.out, "Provide manual feedback? (y/n): ")

	answer, err := c.readLine()
	if err != nil {
		return "", err
	}

	if strings.EqualFold(answer, "y") {
		fmt.Fprint(c.out, "Enter feedback: ")

		return c.readLine()
	}

	feedback := RuleFeedback(predictedSQL, goldSQL)
	fmt.Fprintf(c.out, "Auto Feedback: %s\n", feedback)

	return feedback, nil
}

func (c *ConsoleFeedback) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, errors.ErrTypeValidation, "failed to read feedback input")
	}

	return strings.TrimSpace(line), nil
}
