package schema

import (
	"fmt"
	"strings"
)

const foreignKeyHeader = "【Foreign keys】"

// Render serializes the document into the schema block embedded in prompts.
// One stanza per table, annotated columns in catalog order, then a single
// deduplicated foreign-key section. Byte-for-byte deterministic for an
// unchanged database, since the output feeds both model prompts and
// golden-output tests.
func (d *Document) Render() string {
	var sections []string

	for _, table := range d.Tables {
		sections = append(sections, renderTable(table))
	}

	if len(d.ForeignKeys) > 0 {
		sections = append(sections, foreignKeyHeader+"\n"+strings.Join(d.ForeignKeys, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

func renderTable(table Table) string {
	lines := make([]string, 0, len(table.Columns))

	for i, col := range table.Columns {
		line := "  (" + renderColumn(col) + ")"
		if i < len(table.Columns)-1 {
			line += ","
		}

		lines = append(lines, line)
	}

	return fmt.Sprintf("# Table: %s\n[\n%s\n]", table.Name, strings.Join(lines, "\n\n"))
}

func renderColumn(col Column) string {
	parts := []string{fmt.Sprintf("%s: %s", col.Name, col.Type)}

	if col.PrimaryKey {
		parts = append(parts, "Primary Key")
	}

	if col.Description != "" {
		parts = append(parts, col.Description)
	}

	line := strings.Join(parts, ", ")

	if col.ForeignKey != nil {
		line += fmt.Sprintf("\n   Maps to %s(%s)", col.ForeignKey.Table, col.ForeignKey.Column)
	}

	if len(col.Examples) > 0 {
		line += fmt.Sprintf(", Examples: [%s]", strings.Join(col.Examples, ", "))
	}

	return line
}
