package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/birdsql/birdsql/internal/errors"
)

// EvalItem is one benchmark question. Evidence carries optional external
// knowledge text and is empty when the dataset provides none.
type EvalItem struct {
	QuestionID int    `json:"question_id"`
	Question   string `json:"question"`
	DBID       string `json:"db_id"`
	Evidence   string `json:"evidence"`
}

// GoldEntry pairs a known-correct SQL statement with its database id
type GoldEntry struct {
	SQL  string
	DBID string
}

// LoadEvalItems reads a JSON array of evaluation items
func LoadEvalItems(path string) ([]EvalItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to read eval file %s", path)
	}

	var items []EvalItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeValidation, "failed to parse eval file %s", path)
	}

	for i, item := range items {
		if item.Question == "" {
			return nil, errors.Newf(errors.ErrTypeValidation, "eval item %d has no question", i)
		}

		if item.DBID == "" {
			return nil, errors.Newf(errors.ErrTypeValidation, "eval item %d has no db_id", i)
		}
	}

	return items, nil
}

// LoadGoldEntries reads a gold-SQL file, one tab-delimited "sql\tdb_id" line
// per item in the same index order as the eval file. Blank lines are skipped.
func LoadGoldEntries(path string) ([]GoldEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to read gold file %s", path)
	}

	var entries []GoldEntry

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx := strings.LastIndex(line, "\t")
		if idx < 0 {
			return nil, errors.Newf(errors.ErrTypeValidation, "gold file %s line %d is not tab-delimited", path, i+1)
		}

		entries = append(entries, GoldEntry{
			SQL:  strings.TrimSpace(line[:idx]),
			DBID: strings.TrimSpace(line[idx+1:]),
		})
	}

	return entries, nil
}

// DBPath resolves the conventional on-disk layout <root>/<db_id>/<db_id>.sqlite
func DBPath(root, dbID string) string {
	return filepath.Join(root, dbID, dbID+".sqlite")
}
