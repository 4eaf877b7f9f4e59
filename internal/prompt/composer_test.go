package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSchema = "# Table: t\n[\n  (id: INTEGER, Primary Key)\n]"

func TestInstructionWithoutKnowledge(t *testing.T) {
	got := Instruction("How many students are there?", "")

	assert.Equal(t,
		"-- Using valid SQLite, answer the following questions for the tables provided above.\n"+
			"-- How many students are there?",
		got)
}

func TestInstructionWithKnowledge(t *testing.T) {
	got := Instruction("How many gifted students?", "gifted means gift = 1")

	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "-- External Knowledge: gifted means gift = 1", lines[0])
	assert.Contains(t, lines[1], "understanding External Knowledge")
	assert.Contains(t, lines[1], "Return only the SQL query.")
	assert.Equal(t, "-- How many gifted students?", lines[2])
}

func TestComposeEndsWithSelectPrimer(t *testing.T) {
	got := Compose(testSchema, "How many?", "")

	assert.True(t, strings.HasPrefix(got, testSchema+"\n\n"))
	assert.True(t, strings.HasSuffix(got, "\nSELECT "))
}

func TestComposeIsDeterministic(t *testing.T) {
	first := Compose(testSchema, "How many?", "some knowledge")
	second := Compose(testSchema, "How many?", "some knowledge")

	assert.Equal(t, first, second)
}

func TestComposeRefinementFirstRound(t *testing.T) {
	got := ComposeRefinement(testSchema, "How many?", "", nil)

	assert.True(t, strings.HasPrefix(got, testSchema+"\n\n"))
	assert.Contains(t, got, "-- How many?")
	assert.True(t, strings.HasSuffix(got, "-- Return only the SQL query."))
	assert.NotContains(t, got, "Previous SQL")
	assert.NotContains(t, got, "SELECT ", "the refinement prompt has no completion primer")
}

func TestComposeRefinementWithPriorPrediction(t *testing.T) {
	feedback := []string{
		"You forgot the WHERE condition.",
		"You missed the GROUP BY clause.",
	}

	got := ComposeRefinement(testSchema, "How many?", "SELECT COUNT(*) FROM t", feedback)

	assert.Contains(t, got, "-- Previous SQL (incorrect):\nSELECT COUNT(*) FROM t")
	assert.Contains(t, got, "-- User feedback:\n- You forgot the WHERE condition.\n- You missed the GROUP BY clause.")
	assert.Contains(t, got, "-- Refine the SQL query accordingly.")

	refineIdx := strings.Index(got, "-- Refine the SQL query accordingly.")
	instructionIdx := strings.Index(got, "-- Using valid SQLite")
	assert.Less(t, refineIdx, instructionIdx, "refinement sections precede the instruction block")
}

func TestComposeRefinementEmptyFeedbackPlaceholder(t *testing.T) {
	got := ComposeRefinement(testSchema, "How many?", "SELECT 1", nil)

	assert.Contains(t, got, "-- User feedback:\n- (none)")
}
