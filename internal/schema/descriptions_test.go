package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptionFile(t *testing.T, dbDir, name string, data []byte) {
	t.Helper()

	dir := filepath.Join(dbDir, descriptionDirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestLoadColumnDescriptionsMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")

	descs := LoadColumnDescriptions(dbPath)
	assert.Empty(t, descs)
}

func TestLoadColumnDescriptionsBasic(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.sqlite")

	csvData := "original_column_name,column_name,column_description\n" +
		"stu_id,Student ID,unique identifier of the student\n" +
		"stu_name,Name,full name of the student\n"
	writeDescriptionFile(t, dir, "Students.csv", []byte(csvData))

	descs := LoadColumnDescriptions(dbPath)
	require.Contains(t, descs, "students", "tables are matched by lower-cased file stem")

	table := descs["students"]
	assert.Equal(t, "unique identifier of the student", table["stu_id"])
	assert.Equal(t, "unique identifier of the student", table["student id"],
		"both the original and the display column name resolve the description")
	assert.Equal(t, "full name of the student", table["stu_name"])
}

func TestLoadColumnDescriptionsUTF8BOM(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.sqlite")

	csvData := append([]byte{0xEF, 0xBB, 0xBF},
		[]byte("original_column_name,column_name,column_description\nid,,the id\n")...)
	writeDescriptionFile(t, dir, "t.csv", csvData)

	descs := LoadColumnDescriptions(dbPath)
	require.Contains(t, descs, "t")
	assert.Equal(t, "the id", descs["t"]["id"])
}

func TestLoadColumnDescriptionsLatin1(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.sqlite")

	// 0xE9 is é in latin-1 and invalid as standalone UTF-8.
	csvData := []byte("original_column_name,column_name,column_description\ncaf\xE9,,a caf\xE9 column\n")
	writeDescriptionFile(t, dir, "places.csv", csvData)

	descs := LoadColumnDescriptions(dbPath)
	require.Contains(t, descs, "places")
	assert.Equal(t, "a café column", descs["places"]["café"])
}

func TestLoadColumnDescriptionsIgnoresNonCSV(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.sqlite")

	writeDescriptionFile(t, dir, "readme.txt", []byte("not a description file"))

	descs := LoadColumnDescriptions(dbPath)
	assert.Empty(t, descs)
}

func TestLoadColumnDescriptionsSkipsHeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.sqlite")

	writeDescriptionFile(t, dir, "empty.csv",
		[]byte("original_column_name,column_name,column_description\n"))

	descs := LoadColumnDescriptions(dbPath)
	assert.NotContains(t, descs, "empty")
}

func TestIntrospectAppliesDescriptions(t *testing.T) {
	db, path := newTestDB(t,
		`CREATE TABLE classes (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE students (
			id INTEGER PRIMARY KEY,
			class_id INTEGER,
			FOREIGN KEY (class_id) REFERENCES classes(id)
		)`,
	)

	csvData := "original_column_name,column_name,column_description\n" +
		"id,,the   student  identifier\n" +
		"class_id,,\"the class, maps to classes(id)\"\n"
	writeDescriptionFile(t, filepath.Dir(path), "students.csv", []byte(csvData))

	doc, err := Introspect(db, path, 0)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)

	students := doc.Tables[1]
	require.Equal(t, "students", students.Name)

	byName := make(map[string]Column)
	for _, col := range students.Columns {
		byName[col.Name] = col
	}

	assert.Equal(t, "the student identifier", byName["id"].Description,
		"descriptions are whitespace-collapsed")
	assert.Equal(t, "the class", byName["class_id"].Description,
		"a maps-to phrase is truncated when the column has a foreign key")
}
