package interactive

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/birdsql/birdsql/internal/errors"
)

// WriteResult writes the session record as pretty-printed JSON, creating the
// output directory if needed.
func WriteResult(path string, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal session result")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to create output directory %s", dir)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrTypeFileSystem, "failed to write session result to %s", path)
	}

	return nil
}
