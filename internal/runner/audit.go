package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/birdsql/birdsql/internal/errors"
)

const banner = "============================================================"

// AuditEntry is one prompt/response pair recorded for a single model call
type AuditEntry struct {
	Index    int
	DBID     string
	Question string
	Engine   string
	Prompt   string
	Response string
}

// AuditLog is the append-only, human-readable record of every prompt sent and
// every response received. It is an observability channel, not part of the
// functional contract: entries are flushed per record so a crash mid-run
// loses at most the in-flight one.
type AuditLog struct {
	file  *os.File
	runID string
}

// OpenAuditLog opens (or creates) the audit log file in append mode
func OpenAuditLog(logDir, name string) (*AuditLog, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to create log directory %s", logDir)
	}

	path := filepath.Join(logDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to open audit log %s", path)
	}

	return &AuditLog{
		file:  file,
		runID: uuid.NewString(),
	}, nil
}

// RunID identifies this process's entries within a shared log file
func (a *AuditLog) RunID() string {
	return a.runID
}

// Path returns the location of the underlying log file
func (a *AuditLog) Path() string {
	return a.file.Name()
}

// Record appends one banner-delimited entry and flushes it to disk
func (a *AuditLog) Record(entry AuditEntry) error {
	var b strings.Builder

	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "[%s]  Q#%d  DB: %s  run: %s\n",
		time.Now().Format("2006-01-02 15:04:05"), entry.Index, entry.DBID, a.runID)
	fmt.Fprintf(&b, "Question: %s\n", entry.Question)
	fmt.Fprintf(&b, "\n----- Prompt Sent to %s -----\n%s\n", entry.Engine, entry.Prompt)
	fmt.Fprintf(&b, "\n----- LLM Response -----\n%s\n", strings.TrimSpace(entry.Response))
	b.WriteString(banner + "\n\n")

	if _, err := a.file.WriteString(b.String()); err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to append audit entry")
	}

	return a.file.Sync()
}

// Close closes the underlying log file
func (a *AuditLog) Close() error {
	return a.file.Close()
}
