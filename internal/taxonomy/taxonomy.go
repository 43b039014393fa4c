package taxonomy

import (
	"fmt"
	"strings"
)

// QuestionFormat is the presentation format a generated question is rendered in.
type QuestionFormat string

const (
	FormatMultipleChoice QuestionFormat = "MULTIPLE_CHOICE"
	FormatShortAnswer    QuestionFormat = "SHORT_ANSWER"
	FormatTrueFalse      QuestionFormat = "TRUE_FALSE"
	FormatFillInBlank    QuestionFormat = "FILL_IN_BLANK"
)

// AllFormats returns all question formats in display order.
func AllFormats() []QuestionFormat {
	return []QuestionFormat{FormatMultipleChoice, FormatShortAnswer, FormatTrueFalse, FormatFillInBlank}
}

// Valid reports whether f is a known format.
func (f QuestionFormat) Valid() bool {
	switch f {
	case FormatMultipleChoice, FormatShortAnswer, FormatTrueFalse, FormatFillInBlank:
		return true
	}
	return false
}

// Difficulty is the requested difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// AllDifficulties returns all difficulty levels from easiest to hardest.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Standard reports whether d is one of the difficulties most reference
// content is written for.
func (d Difficulty) Standard() bool {
	return d == DifficultyEasy || d == DifficultyMedium
}

// Level maps the difficulty onto the 1-5 scale used by the question generator.
func (d Difficulty) Level() int {
	switch d {
	case DifficultyEasy:
		return 2
	case DifficultyHard:
		return 5
	default:
		return 3
	}
}

// LearningStyle is the learner's preferred way of taking in material.
type LearningStyle string

const (
	StyleVisual         LearningStyle = "VISUAL"
	StyleAuditory       LearningStyle = "AUDITORY"
	StyleKinesthetic    LearningStyle = "KINESTHETIC"
	StyleReadingWriting LearningStyle = "READING_WRITING"
)

// DefaultLearningStyle is assumed when a learner has not picked a style.
const DefaultLearningStyle = StyleReadingWriting

// AllLearningStyles returns all learning styles in display order.
func AllLearningStyles() []LearningStyle {
	return []LearningStyle{StyleVisual, StyleAuditory, StyleKinesthetic, StyleReadingWriting}
}

// Valid reports whether s is a known learning style.
func (s LearningStyle) Valid() bool {
	switch s {
	case StyleVisual, StyleAuditory, StyleKinesthetic, StyleReadingWriting:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the learning style.
func (s LearningStyle) DisplayName() string {
	switch s {
	case StyleVisual:
		return "visual"
	case StyleAuditory:
		return "auditory"
	case StyleKinesthetic:
		return "hands-on"
	case StyleReadingWriting:
		return "reading/writing"
	default:
		return strings.ToLower(string(s))
	}
}

// Grade bounds accepted by the generator.
const (
	MinGrade = 1
	MaxGrade = 12
)

// QuestionType is a fine-grained skill tag used for generation and search filtering.
type QuestionType struct {
	ID          string
	Name        string
	Description string
	Keywords    []string
}

// Category is a coarse educational grouping of question types.
type Category struct {
	ID          string
	Name        string
	Description string
	Types       []QuestionType
}

// HasType reports whether the category contains the given type ID.
func (c Category) HasType(typeID string) bool {
	for _, t := range c.Types {
		if t.ID == typeID {
			return true
		}
	}
	return false
}

// TypeIDs returns the IDs of the category's types in catalog order.
func (c Category) TypeIDs() []string {
	ids := make([]string, len(c.Types))
	for i, t := range c.Types {
		ids[i] = t.ID
	}
	return ids
}

// GetCategory returns a category by ID, or an error if not found.
func GetCategory(id string) (Category, error) {
	c, ok := cat.byID[id]
	if !ok {
		return Category{}, fmt.Errorf("category not found: %q", id)
	}
	return *c, nil
}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	out := make([]Category, len(cat.categories))
	copy(out, cat.categories)
	return out
}

// GetType returns a question type by ID from any category.
func GetType(id string) (QuestionType, error) {
	t, ok := cat.typeByID[id]
	if !ok {
		return QuestionType{}, fmt.Errorf("question type not found: %q", id)
	}
	return t, nil
}

// CategoryOf returns the ID of the category a question type belongs to.
func CategoryOf(typeID string) (string, bool) {
	id, ok := cat.categoryOfType[typeID]
	return id, ok
}

// IsInterest reports whether v is one of the selectable interests.
func IsInterest(v string) bool {
	return cat.interests[v]
}

// IsMotivator reports whether v is one of the selectable motivators.
func IsMotivator(v string) bool {
	return cat.motivators[v]
}

// Interests returns the selectable interest options in display order.
func Interests() []string {
	out := make([]string, len(interestOptions))
	copy(out, interestOptions)
	return out
}

// Motivators returns the selectable motivator options in display order.
func Motivators() []string {
	out := make([]string, len(motivatorOptions))
	copy(out, motivatorOptions)
	return out
}
