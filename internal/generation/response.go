package generation

import "github.com/abhisek/questgen/internal/problemgen"

// Response is the result of a successful generation request.
type Response struct {
	SessionID              string                 `json:"sessionId"`
	Questions              []problemgen.Question  `json:"questions"`
	TypeDistribution       map[string]int         `json:"typeDistribution"`
	CategoryContext        string                 `json:"categoryContext"`
	PersonalizationApplied PersonalizationApplied `json:"personalizationApplied"`
	TotalQuestions         int                    `json:"totalQuestions"`
	QualityMetrics         QualityMetrics         `json:"qualityMetrics"`

	// Warnings lists the types whose content was degraded. Empty when
	// every type generated normally.
	Warnings []Warning `json:"warnings,omitempty"`
}

// PersonalizationApplied echoes the persona the questions were tailored to.
type PersonalizationApplied struct {
	Interests     []string `json:"interests"`
	Motivators    []string `json:"motivators"`
	LearningStyle string   `json:"learningStyle"`
	Summary       string   `json:"summary"`
}

// QualityMetrics aggregates the quality signals of a response. Every score
// is in [0,1].
type QualityMetrics struct {
	// VectorRelevanceScore is the mean relevance signal of the generated types.
	VectorRelevanceScore float64 `json:"vectorRelevanceScore"`

	// AgenticValidationScore is the mean per-question generator confidence.
	AgenticValidationScore float64 `json:"agenticValidationScore"`

	PersonalizationScore float64 `json:"personalizationScore"`
}

// Warning reports a question type whose content was degraded.
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
