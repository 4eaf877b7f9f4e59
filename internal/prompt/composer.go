package prompt

import (
	"fmt"
	"strings"
)

const (
	instructionPlain = "-- Using valid SQLite, answer the following questions " +
		"for the tables provided above."
	instructionWithKnowledge = "-- Using valid SQLite and understanding External Knowledge, " +
		"answer the following questions for the tables provided above. " +
		"Return only the SQL query. Do not provide any explanation."

	// Trailing completion primer; the batch runner's normalization assumes it.
	selectPrimer = "\nSELECT "

	sqlOnlyLine    = "-- Return only the SQL query."
	refineLine     = "-- Refine the SQL query accordingly."
	noFeedbackLine = "- (none)"
)

// Instruction builds the comment block that follows the schema: an optional
// external-knowledge line, the instruction variant matching it, and the
// question itself.
func Instruction(question, knowledge string) string {
	questionLine := fmt.Sprintf("-- %s", question)

	if knowledge != "" {
		knowledgeLine := fmt.Sprintf("-- External Knowledge: %s", knowledge)
		return knowledgeLine + "\n" + instructionWithKnowledge + "\n" + questionLine
	}

	return instructionPlain + "\n" + questionLine
}

// Compose builds the batch-mode prompt: schema block, instruction block, and
// the trailing SELECT token priming the completion to continue a statement.
func Compose(schemaText, question, knowledge string) string {
	return schemaText + "\n\n" + Instruction(question, knowledge) + selectPrimer
}

// ComposeRefinement builds the interactive-mode prompt. The first round (no
// previous prediction) is the plain instruction; later rounds insert the
// rejected SQL and the accumulated feedback before asking for a refinement.
// This path carries no external-knowledge line even when evidence exists.
func ComposeRefinement(schemaText, question, prevSQL string, feedback []string) string {
	baseInstruction := Instruction(question, "") + "\n" + sqlOnlyLine

	if prevSQL == "" {
		return schemaText + "\n\n" + baseInstruction
	}

	feedbackBlock := noFeedbackLine
	if len(feedback) > 0 {
		bullets := make([]string, len(feedback))
		for i, fb := range feedback {
			bullets[i] = "- " + fb
		}

		feedbackBlock = strings.Join(bullets, "\n")
	}

	return schemaText + "\n\n" +
		"-- Previous SQL (incorrect):\n" + prevSQL + "\n\n" +
		"-- User feedback:\n" + feedbackBlock + "\n\n" +
		refineLine + "\n\n" +
		baseInstruction
}
