package generation

import (
	"fmt"
	"strings"

	"github.com/abhisek/questgen/internal/taxonomy"
)

// Request limits.
const (
	MaxQuestionTypes = 5
	MaxInterests     = 5
	MaxMotivators    = 3
)

// Request is one enhanced generation request.
type Request struct {
	Subject             string                  `json:"subject"`
	Category            string                  `json:"category"`
	GradeLevel          int                     `json:"gradeLevel"`
	QuestionTypes       []string                `json:"questionTypes"`
	QuestionFormat      taxonomy.QuestionFormat `json:"questionFormat"`
	DifficultyLevel     taxonomy.Difficulty     `json:"difficultyLevel"`
	NumberOfQuestions   int                     `json:"numberOfQuestions"`
	LearningStyle       taxonomy.LearningStyle  `json:"learningStyle"`
	Interests           []string                `json:"interests"`
	Motivators          []string                `json:"motivators"`
	FocusAreas          []string                `json:"focusAreas,omitempty"`
	IncludeExplanations bool                    `json:"includeExplanations,omitempty"`
}

// Caller is the authenticated identity the request is made on behalf of.
// Authentication happens upstream; the orchestrator only records it.
type Caller struct {
	UserID string
	Email  string
	Role   string
	Grade  int
}

// Violation is one broken request constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint a Request violates.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return "invalid generation request: " + strings.Join(msgs, "; ")
}

// Validate checks every invariant of r and returns a *ValidationError
// listing all violations, or nil. maxQuestions caps NumberOfQuestions when
// positive.
func (r Request) Validate(maxQuestions int) error {
	var vs []Violation
	add := func(field, format string, args ...any) {
		vs = append(vs, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.Category) == "" {
		add("category", "category is required")
	}
	if r.GradeLevel < taxonomy.MinGrade || r.GradeLevel > taxonomy.MaxGrade {
		add("gradeLevel", "grade level must be between %d and %d", taxonomy.MinGrade, taxonomy.MaxGrade)
	}

	switch n := len(r.QuestionTypes); {
	case n == 0:
		add("questionTypes", "at least one question type is required")
	case n > MaxQuestionTypes:
		add("questionTypes", "maximum %d question types allowed", MaxQuestionTypes)
	}
	seen := make(map[string]bool, len(r.QuestionTypes))
	for _, t := range r.QuestionTypes {
		switch {
		case strings.TrimSpace(t) == "":
			add("questionTypes", "question type must not be empty")
		case seen[t]:
			add("questionTypes", "duplicate question type %q", t)
		}
		seen[t] = true
	}

	if !r.QuestionFormat.Valid() {
		add("questionFormat", "question format must be one of %s", joinValues(taxonomy.AllFormats()))
	}
	if !r.DifficultyLevel.Valid() {
		add("difficultyLevel", "difficulty level must be one of %s", joinValues(taxonomy.AllDifficulties()))
	}
	if r.NumberOfQuestions < 1 {
		add("numberOfQuestions", "number of questions must be at least 1")
	} else if maxQuestions > 0 && r.NumberOfQuestions > maxQuestions {
		add("numberOfQuestions", "maximum %d questions allowed", maxQuestions)
	}
	if !r.LearningStyle.Valid() {
		add("learningStyle", "learning style must be one of %s", joinValues(taxonomy.AllLearningStyles()))
	}

	switch n := len(r.Interests); {
	case n == 0:
		add("interests", "at least one interest is required")
	case n > MaxInterests:
		add("interests", "maximum %d interests allowed", MaxInterests)
	}
	seenInterest := make(map[string]bool, len(r.Interests))
	for _, v := range r.Interests {
		switch {
		case !taxonomy.IsInterest(v):
			add("interests", "unknown interest %q", v)
		case seenInterest[v]:
			add("interests", "duplicate interest %q", v)
		}
		seenInterest[v] = true
	}

	if len(r.Motivators) > MaxMotivators {
		add("motivators", "maximum %d motivators allowed", MaxMotivators)
	}
	seenMotivator := make(map[string]bool, len(r.Motivators))
	for _, v := range r.Motivators {
		switch {
		case !taxonomy.IsMotivator(v):
			add("motivators", "unknown motivator %q", v)
		case seenMotivator[v]:
			add("motivators", "duplicate motivator %q", v)
		}
		seenMotivator[v] = true
	}

	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

func joinValues[T ~string](vals []T) string {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}
