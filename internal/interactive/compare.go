package interactive

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/birdsql/birdsql/internal/storage"
)

const (
	resultMatch  = "Execution results match"
	resultDiffer = "Execution results differ"
)

// ExecuteAndCompare runs the predicted and gold SQL against the same database
// connection and compares their result sets under set semantics: row order and
// duplicate counts do not distinguish. An execution error on either side is a
// non-match whose message carries the failing side and the error text, so the
// loop can keep refining invalid SQL instead of crashing.
func ExecuteAndCompare(dbPath, predictedSQL, goldSQL string) (bool, string) {
	var (
		matched bool
		message string
	)

	err := storage.With(dbPath, func(db *sql.DB) error {
		predRows, err := fetchRows(db, predictedSQL)
		if err != nil {
			message = fmt.Sprintf("Predicted SQL Execution Error: %v", err)
			return nil
		}

		goldRows, err := fetchRows(db, goldSQL)
		if err != nil {
			message = fmt.Sprintf("Gold SQL Execution Error: %v", err)
			return nil
		}

		if CompareRows(predRows, goldRows) {
			matched = true
			message = resultMatch
		} else {
			message = resultDiffer
		}

		return nil
	})
	if err != nil {
		return false, fmt.Sprintf("Predicted SQL Execution Error: %v", err)
	}

	return matched, message
}

// CompareRows reports whether two row collections are equal as sets
func CompareRows(pred, gold [][]string) bool {
	return rowSet(pred).equal(rowSet(gold))
}

type stringSet map[string]struct{}

func (s stringSet) equal(other stringSet) bool {
	if len(s) != len(other) {
		return false
	}

	for key := range s {
		if _, ok := other[key]; !ok {
			return false
		}
	}

	return true
}

func rowSet(rows [][]string) stringSet {
	set := make(stringSet, len(rows))
	for _, row := range rows {
		set[strings.Join(row, "\x1f")] = struct{}{}
	}

	return set
}

// fetchRows executes one query and canonicalizes every cell. Values are
// tagged with their driver type so an integer 1 and the text "1" stay
// distinct, matching how the underlying engine compares them.
func fetchRows(db *sql.DB, query string) ([][]string, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result [][]string

	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(values))
		for i, v := range values {
			row[i] = canonicalValue(v)
		}

		result = append(result, row)
	}

	return result, rows.Err()
}

func canonicalValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []byte:
		return "s:" + string(val)
	case string:
		return "s:" + val
	case int64:
		return fmt.Sprintf("i:%d", val)
	case float64:
		return fmt.Sprintf("f:%g", val)
	case bool:
		return fmt.Sprintf("b:%t", val)
	default:
		return fmt.Sprintf("v:%v", val)
	}
}
