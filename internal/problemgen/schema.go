package problemgen

import "github.com/abhisek/questgen/internal/llm"

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func bounded(typ string, lo, hi float64, desc string) map[string]any {
	return map[string]any{"type": typ, "minimum": lo, "maximum": hi, "description": desc}
}

// QuestionSchema is the structured output asked of the model for one
// question. Every property is required, as strict JSON modes demand.
var QuestionSchema = &llm.Schema{
	Name:        "practice-question",
	Description: "One practice question with its answer, options and worked explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": str("Question shown to the learner, plain ASCII, no markup"),
			"answer":        str("Correct answer in simplest canonical form"),
			"answer_type": map[string]any{
				"type":        "string",
				"enum":        []any{string(AnswerTypeInteger), string(AnswerTypeDecimal), string(AnswerTypeFraction), string(AnswerTypeText)},
				"description": "Representation of the answer",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Four distinct choices including the answer; wrong ones reflect typical mistakes",
			},
			"hint":        str("One short nudge that does not give the answer away"),
			"difficulty":  bounded("integer", 1, 5, "Own estimate of difficulty, 1 easiest"),
			"explanation": str("Worked solution in steps suited to the grade"),
			"confidence":  bounded("number", 0, 1, "Confidence that the answer is right and the question fits the request"),
		},
		"required":             []any{"question_text", "answer", "answer_type", "options", "hint", "difficulty", "explanation", "confidence"},
		"additionalProperties": false,
	},
}
