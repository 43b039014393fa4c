package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/questgen/internal/taxonomy"
)

const systemPrompt = `You are a math teacher creating personalized practice problems for students in grades 1-12.

Rules:
- Generate a single problem for the given question type, category, grade and difficulty.
- Use plain ASCII text for all math. No LaTeX, no Unicode symbols. Use / for fractions, * for multiplication, and standard operators.
- The question text should be clear, self-contained, and appropriate for the grade.
- The answer must be correct and in the simplest form (reduce fractions, no trailing zeros on decimals).
- Always provide exactly 4 options, one of which is the answer. Distractors should reflect common mistakes, not random values.
- Weave the learner profile into the problem's setting when it fits; never let it change the mathematics.
- Report your confidence that the answer is correct and the problem matches the request.
- Do not repeat any question from the "already asked" list.`

// buildUserMessage constructs the user message from GenerateInput and Config limits.
func buildUserMessage(input GenerateInput, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question type: %s (%s)\n", input.Type.Name, input.Type.ID)
	if input.Type.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", input.Type.Description)
	}
	if len(input.Type.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(input.Type.Keywords, ", "))
	}
	fmt.Fprintf(&b, "Category: %s", input.Category.Name)
	if input.Category.Description != "" {
		fmt.Fprintf(&b, " - %s", input.Category.Description)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Grade: %d\n", input.Grade)
	fmt.Fprintf(&b, "Difficulty: %s (target %d on a 1-5 scale)\n", input.Difficulty, input.Difficulty.Level())
	if input.Format != "" {
		fmt.Fprintf(&b, "Presentation format: %s", input.Format)
		if input.Format == taxonomy.FormatTrueFalse {
			b.WriteString(" (answer with the computed value; the true/false statement is built from it)")
		}
		b.WriteString("\n")
	}
	if len(input.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n", strings.Join(input.FocusAreas, ", "))
	}
	fmt.Fprintf(&b, "Include explanation: %t\n", input.IncludeExplanation)

	b.WriteString("\nReference material relevance: ")
	b.WriteString(buildRelevance(input.Relevance))

	b.WriteString("\n\nLearner profile:\n")
	b.WriteString(input.Persona.Profile())

	b.WriteString("\n\nAlready asked in this session:\n")
	b.WriteString(priorList(input.PriorQuestions, cfg.MaxPriorQuestions))

	return b.String()
}

// buildRelevance describes how well reference content covers the request.
func buildRelevance(r RelevanceContext) string {
	var level string
	switch {
	case r.Score >= 0.85:
		level = "high; keep close to standard curriculum problems"
	case r.Score >= 0.7:
		level = "moderate"
	default:
		level = "low; prefer simple, well-known problem shapes"
	}
	s := fmt.Sprintf("%.2f (%s)", r.Score, level)
	if r.Fallback {
		s += " [estimated, search unavailable]"
	} else if len(r.Sources) > 0 {
		n := min(len(r.Sources), 3)
		s += fmt.Sprintf(" from %s", strings.Join(r.Sources[:n], ", "))
	}
	return s
}

// priorList numbers the most recent max questions, or says "None".
func priorList(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}
	lines := make([]string, len(prior))
	for i, q := range prior {
		lines[i] = fmt.Sprintf("%d. %s", i+1, q)
	}
	return strings.Join(lines, "\n")
}
