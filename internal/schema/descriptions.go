package schema

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/birdsql/birdsql/internal/logging"
)

const descriptionDirName = "database_description"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadColumnDescriptions loads human-authored column descriptions from the
// optional database_description directory next to the database file. One CSV
// per table, matched by lower-cased file stem; within a file, rows are keyed
// by lower-cased column name with the original_column_name field tried before
// the display column_name. A file that cannot be decoded or parsed is skipped
// whole, so a table never ends up with partial descriptions.
func LoadColumnDescriptions(dbPath string) map[string]map[string]string {
	descriptions := make(map[string]map[string]string)

	dir := filepath.Join(filepath.Dir(dbPath), descriptionDirName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return descriptions
	}

	logger := logging.GetLogger()

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		tableName := strings.ToLower(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))

		tableDesc, err := readDescriptionFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Debugf("skipping description file %s: %v", entry.Name(), err)
			continue
		}

		if len(tableDesc) > 0 {
			descriptions[tableName] = tableDesc
		}
	}

	return descriptions
}

// readDescriptionFile parses one description CSV into a column→description map
func readDescriptionFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data = decodeText(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	descIdx := headerIndex(header, "column_description")
	originalIdx := headerIndex(header, "original_column_name")
	genericIdx := headerIndex(header, "column_name")

	tableDesc := make(map[string]string)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			// No partial descriptions: a malformed file drops the whole table.
			return nil, err
		}

		description := strings.TrimSpace(field(record, descIdx))

		for _, idx := range []int{originalIdx, genericIdx} {
			colName := strings.TrimSpace(field(record, idx))
			if colName == "" {
				continue
			}

			tableDesc[strings.ToLower(colName)] = description
		}
	}

	return tableDesc, nil
}

// decodeText normalizes file bytes to UTF-8, trying utf-8-sig, utf-8, and
// latin-1 in that order.
func decodeText(data []byte) []byte {
	if bytes.HasPrefix(data, utf8BOM) {
		return bytes.TrimPrefix(data, utf8BOM)
	}

	if utf8.Valid(data) {
		return data
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}

	return decoded
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}

	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return record[idx]
}
