package problemgen

import (
	"github.com/abhisek/questgen/internal/persona"
	"github.com/abhisek/questgen/internal/taxonomy"
)

// Question is one generated practice item.
type Question struct {
	// Text is the question prompt shown to the learner, in plain ASCII.
	Text string `json:"question"`

	// Answer is the correct answer as a string. For TRUE_FALSE questions this
	// is "True" or "False"; the underlying value is kept in Canonical.
	Answer string `json:"answer"`

	// Canonical is the original answer value when the presented Answer was
	// reframed (TRUE_FALSE). Empty otherwise.
	Canonical string `json:"canonicalAnswer,omitempty"`

	// AnswerType describes the numeric type of the answer.
	AnswerType AnswerType `json:"answerType"`

	// Options is set for MULTIPLE_CHOICE (4 entries) and TRUE_FALSE (2 entries).
	Options []string `json:"options,omitempty"`

	// Type is the question type ID this item was generated for.
	Type string `json:"type"`

	// Format is the presentation format. Empty until ApplyFormat runs.
	Format taxonomy.QuestionFormat `json:"format"`

	Hint        string `json:"hint,omitempty"`
	Explanation string `json:"explanation,omitempty"`

	// Difficulty is the generator's self-assessed difficulty (1-5).
	Difficulty int `json:"difficulty"`

	// Confidence is the generator's validation confidence for this item, in [0,1].
	Confidence float64 `json:"confidence"`

	// Relevance is the relevance score of the type this item belongs to.
	Relevance float64 `json:"relevanceScore"`

	// Fallback is set when the item came from the template generator after
	// the primary generator failed.
	Fallback bool `json:"fallback,omitempty"`

	// stem is the question text before ApplyFormat reworded it.
	stem string
}

// AnswerType describes the representation of the correct answer.
type AnswerType string

const (
	AnswerTypeInteger  AnswerType = "integer"  // e.g. "623", "-15"
	AnswerTypeDecimal  AnswerType = "decimal"  // e.g. "3.75", "0.5"
	AnswerTypeFraction AnswerType = "fraction" // e.g. "3/4", "7/2"
	AnswerTypeText     AnswerType = "text"     // e.g. "triangle", "x = 4"
)

// RelevanceContext carries the search-derived signal for the type being generated.
type RelevanceContext struct {
	Score    float64
	Sources  []string
	Fallback bool
}

// GenerateInput holds all context needed to generate a question.
type GenerateInput struct {
	Type       taxonomy.QuestionType
	Category   taxonomy.Category
	Grade      int
	Difficulty taxonomy.Difficulty

	// Format is the requested presentation format. The generator may use it
	// as a hint; ApplyFormat enforces it afterwards.
	Format taxonomy.QuestionFormat

	Relevance RelevanceContext
	Persona   persona.Params

	// FocusAreas are optional sub-topics the caller wants emphasised.
	FocusAreas []string

	// IncludeExplanation asks for a worked explanation.
	IncludeExplanation bool

	// PriorQuestions contains the Text of questions already produced for this
	// type in the current request. Used for deduplication in the prompt and
	// as the sequence number by the template generator.
	PriorQuestions []string
}
