package runner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/birdsql/birdsql/internal/errors"
)

// WriteResults writes the predictions as a JSON object keyed by string index,
// creating the output directory if needed. Keys are decimal positions in the
// input order so evaluation can join predictions back to questions.
func WriteResults(path string, predictions []string) error {
	result := make(map[string]string, len(predictions))
	for i, pred := range predictions {
		result[strconv.Itoa(i)] = pred
	}

	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal predictions")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to create output directory %s", dir)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to write predictions to %s", path)
	}

	return nil
}
