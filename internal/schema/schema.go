package schema

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/birdsql/birdsql/internal/logging"
)

// Ref identifies the target of a foreign-key relationship
type Ref struct {
	Table  string
	Column string
}

// Column describes one column of a user table
type Column struct {
	Name        string
	Type        string
	PrimaryKey  bool
	Description string
	ForeignKey  *Ref
	Examples    []string
}

// Table describes one user table in catalog column order
type Table struct {
	Name    string
	Columns []Column
}

// Document is the structured schema representation embedded in prompts.
// Tables are ordered lexicographically by name and ForeignKeys holds the
// deduplicated, sorted `table.column = ref_table.ref_column` relations, so a
// Document renders identically across runs against an unchanged database.
type Document struct {
	Tables      []Table
	ForeignKeys []string
}

// quoteIdentifier safely quotes SQLite identifiers
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Introspect reads the catalog of the database at dbPath and produces a
// Document. Sidecar column descriptions are picked up from an optional
// database_description directory next to the database file. A table whose
// column metadata cannot be read, or which has no columns, contributes
// nothing; introspection fails only when the table list itself cannot be
// queried.
func Introspect(db *sql.DB, dbPath string, sampleLimit int) (*Document, error) {
	names, err := listTables(db)
	if err != nil {
		return nil, err
	}

	descriptions := LoadColumnDescriptions(dbPath)
	logger := logging.GetLogger()

	doc := &Document{}
	fkSet := make(map[string]struct{})

	for _, name := range names {
		table, relations := introspectTable(db, name, descriptions[strings.ToLower(name)], sampleLimit)
		if table == nil {
			logger.Debugf("skipping table %s: no readable column metadata", name)
			continue
		}

		doc.Tables = append(doc.Tables, *table)

		for _, rel := range relations {
			fkSet[rel] = struct{}{}
		}
	}

	for rel := range fkSet {
		doc.ForeignKeys = append(doc.ForeignKeys, rel)
	}

	sort.Strings(doc.ForeignKeys)

	return doc, nil
}

// listTables enumerates user tables, excluding the internal sqlite_ catalog,
// sorted by name for reproducible output.
func listTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

// introspectTable builds the descriptor for one table plus its foreign-key
// relation strings. Returns nil when the table has no usable column metadata.
func introspectTable(db *sql.DB, name string, descs map[string]string, sampleLimit int) (*Table, []string) {
	cols, err := tableColumns(db, name)
	if err != nil || len(cols) == 0 {
		return nil, nil
	}

	fkMap := foreignKeys(db, name)

	table := &Table{Name: name}

	var relations []string

	for _, col := range cols {
		ref, hasFK := fkMap[col.Name]
		if hasFK {
			col.ForeignKey = &ref
			relations = append(relations,
				fmt.Sprintf("%s.%s = %s.%s", name, col.Name, ref.Table, ref.Column))
		}

		if desc, ok := descs[strings.ToLower(col.Name)]; ok {
			col.Description = cleanDescription(desc, hasFK)
		}

		col.Examples = columnExamples(db, name, col.Name, sampleLimit)
		table.Columns = append(table.Columns, col)
	}

	return table, relations
}

// tableColumns reads column metadata in catalog order
func tableColumns(db *sql.DB, table string) ([]Column, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdentifier(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   sql.NullString
			notnull int
			dflt    sql.NullString
			pk      int
		)

		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}

		declared := strings.TrimSpace(ctype.String)
		if declared == "" {
			declared = "UNKNOWN"
		}

		cols = append(cols, Column{
			Name:       name,
			Type:       declared,
			PrimaryKey: pk != 0,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cols, nil
}

// foreignKeys maps each originating column to its first declared target.
// Failures yield an empty map; the table is still rendered without FK
// annotations.
func foreignKeys(db *sql.DB, table string) map[string]Ref {
	fkMap := make(map[string]Ref)

	rows, err := db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdentifier(table)))
	if err != nil {
		return fkMap
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, seq            int
			refTable, fromCol  string
			toCol              sql.NullString
			onUpdate, onDelete string
			match              string
		)

		if err := rows.Scan(&id, &seq, &refTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			continue
		}

		// Implicit references to the target's primary key carry a NULL "to"
		// column and cannot be rendered as table.column pairs.
		if !toCol.Valid {
			continue
		}

		if _, exists := fkMap[fromCol]; !exists {
			fkMap[fromCol] = Ref{Table: refTable, Column: toCol.String}
		}
	}

	return fkMap
}

// columnExamples fetches up to limit distinct non-null example values.
// Any query failure (locked table, type-affinity error) yields zero examples
// rather than aborting the run.
func columnExamples(db *sql.DB, table, column string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT ?",
		quoteIdentifier(column), quoteIdentifier(table), quoteIdentifier(column))

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var examples []string

	for rows.Next() {
		var value any
		if err := rows.Scan(&value); err != nil {
			continue
		}

		if value == nil {
			continue
		}

		examples = append(examples, formatValue(value))
	}

	return examples
}

// formatValue stringifies an example value the way it will appear in prompts
func formatValue(value any) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// cleanDescription collapses whitespace and, when the column also carries a
// foreign key, truncates the text at a "maps to" phrase that would duplicate
// the rendered FK annotation.
func cleanDescription(desc string, hasForeignKey bool) string {
	desc = strings.Join(strings.Fields(desc), " ")

	if hasForeignKey {
		if idx := strings.Index(strings.ToLower(desc), "maps to"); idx != -1 {
			desc = strings.TrimRight(desc[:idx], ", ")
		}
	}

	return desc
}
