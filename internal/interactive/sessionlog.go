package interactive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/birdsql/birdsql/internal/errors"
)

const banner = "============================================================"

// SessionLog is the append-only record of an interactive session: one entry
// per refinement step plus its outcome, flushed as it is written.
type SessionLog struct {
	file *os.File
}

// OpenSessionLog opens (or creates) the session log in append mode, creating
// parent directories as needed.
func OpenSessionLog(path string) (*SessionLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to create log directory %s", dir)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to open session log %s", path)
	}

	return &SessionLog{file: file}, nil
}

// Path returns the location of the underlying log file
func (l *SessionLog) Path() string {
	return l.file.Name()
}

// RecordStep appends one step entry: prompt, prediction and comparison outcome
func (l *SessionLog) RecordStep(step int, question, promptText, prediction, message string) error {
	var b strings.Builder

	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "[%s] Step %d\n", time.Now().Format("2006-01-02 15:04:05"), step)
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Prompt:\n%s\n", promptText)
	fmt.Fprintf(&b, "Predicted SQL:\n%s\n", prediction)
	fmt.Fprintf(&b, "Execution Result: %s\n", message)

	return l.write(b.String())
}

// RecordMatch marks the session's step log with a successful comparison
func (l *SessionLog) RecordMatch() error {
	return l.write("Result: Correct SQL (execution match)\n")
}

// RecordFeedback appends the feedback chosen after a failed step
func (l *SessionLog) RecordFeedback(feedback string) error {
	return l.write(fmt.Sprintf("Feedback added: %s\n", feedback))
}

// EndSession closes out the current session's block
func (l *SessionLog) EndSession() error {
	return l.write(banner + "\n\n")
}

func (l *SessionLog) write(s string) error {
	if _, err := l.file.WriteString(s); err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to append session log entry")
	}

	return l.file.Sync()
}

// Close closes the underlying log file
func (l *SessionLog) Close() error {
	return l.file.Close()
}
