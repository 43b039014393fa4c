package problemgen

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Validator inspects one generated question. Implementations must be safe
// for concurrent use; the generation service runs types in parallel.
type Validator interface {
	Name() string
	Validate(q *Question, input GenerateInput) *ValidationError
}

// ValidationError is a rejected question. Retryable tells LLMGenerator
// whether asking again might produce something acceptable.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

func reject(v Validator, format string, args ...any) *ValidationError {
	return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Retryable: true}
}

// DefaultValidators is the chain LLMGenerator runs unless configured
// otherwise: cheap shape checks first, arithmetic last.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&AnswerFormatValidator{},
		&DuplicateValidator{},
		&MathCheckValidator{},
	}
}

const (
	maxTextLen        = 500
	maxExplanationLen = 1000
)

// StructuralValidator enforces required fields and value ranges.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question, input GenerateInput) *ValidationError {
	switch {
	case strings.TrimSpace(q.Text) == "":
		return reject(v, "question_text is empty")
	case len(q.Text) > maxTextLen:
		return reject(v, "question_text exceeds %d characters", maxTextLen)
	case input.IncludeExplanation && strings.TrimSpace(q.Explanation) == "":
		return reject(v, "explanation was requested but is empty")
	case len(q.Explanation) > maxExplanationLen:
		return reject(v, "explanation exceeds %d characters", maxExplanationLen)
	case q.Difficulty < 1 || q.Difficulty > 5:
		return reject(v, "difficulty %d outside 1-5", q.Difficulty)
	case strings.TrimSpace(q.Answer) == "":
		return reject(v, "answer is empty")
	case q.Confidence < 0 || q.Confidence > 1:
		return reject(v, "confidence %.2f outside 0-1", q.Confidence)
	}
	switch q.AnswerType {
	case AnswerTypeInteger, AnswerTypeDecimal, AnswerTypeFraction, AnswerTypeText:
		return nil
	}
	return reject(v, "unknown answer_type %q", q.AnswerType)
}

// AnswerFormatValidator requires numeric answers in canonical form (no
// leading zeros, no trailing decimal zeros, fractions reduced) and, when
// the model supplied options, that they are distinct and contain the answer.
type AnswerFormatValidator struct{}

func (v *AnswerFormatValidator) Name() string { return "answer-format" }

func (v *AnswerFormatValidator) Validate(q *Question, _ GenerateInput) *ValidationError {
	if problem := canonicalForm(q.Answer, q.AnswerType); problem != "" {
		return reject(v, "%s answer %q: %s", q.AnswerType, q.Answer, problem)
	}
	if len(q.Options) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return reject(v, "option %d is empty", i+1)
		}
		if seen[key] {
			return reject(v, "duplicate option %q", o)
		}
		seen[key] = true
	}
	if !seen[strings.ToLower(strings.TrimSpace(q.Answer))] {
		return reject(v, "answer %q not found in options", q.Answer)
	}
	return nil
}

// canonicalForm returns "" when s is the canonical spelling for its type,
// otherwise a short description of what is wrong.
func canonicalForm(s string, t AnswerType) string {
	switch t {
	case AnswerTypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "not an integer"
		}
		if strconv.FormatInt(n, 10) != s {
			return "has leading zeros or a plus sign"
		}
	case AnswerTypeDecimal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "not a decimal"
		}
		if want := strconv.FormatFloat(f, 'f', -1, 64); want != s {
			return fmt.Sprintf("not normalized, expected %q", want)
		}
	case AnswerTypeFraction:
		if !fractionPattern.MatchString(s) {
			return "not of the form a/b"
		}
		r, ok := ratOf(s)
		if !ok {
			return "zero denominator"
		}
		_, den, _ := strings.Cut(s, "/")
		if r.Denom().String() != den {
			return "not in lowest terms"
		}
	}
	return ""
}

// DuplicateValidator rejects a question whose text repeats one already
// produced for the same type in this request. The prompt asks the model
// to avoid repeats; this enforces it.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(q *Question, input GenerateInput) *ValidationError {
	key := questionKey(q.Text)
	for _, prior := range input.PriorQuestions {
		if questionKey(prior) == key {
			return reject(v, "repeats an earlier question")
		}
	}
	return nil
}

// questionKey folds case, whitespace and trailing punctuation.
func questionKey(text string) string {
	return strings.TrimRight(strings.Join(strings.Fields(strings.ToLower(text)), " "), "?.! ")
}

// MathCheckValidator recomputes simple binary arithmetic found in the
// question text ("345 + 278", "3/4 - 1/3", "144 / 12") with exact rational
// arithmetic and rejects a mismatched answer. Word problems, chained
// expressions and text answers are not checked.
type MathCheckValidator struct{}

func (v *MathCheckValidator) Name() string { return "math-check" }

func (v *MathCheckValidator) Validate(q *Question, _ GenerateInput) *ValidationError {
	if q.AnswerType == AnswerTypeText {
		return nil
	}
	want, ok := evaluate(q.Text)
	if !ok {
		return nil
	}
	if q.AnswerType == AnswerTypeInteger && !want.IsInt() {
		// Quotient-and-remainder questions state an integer answer for a
		// non-integer ratio.
		return nil
	}
	got, ok := ratOf(q.Answer)
	if !ok || got.Cmp(want) != 0 {
		return reject(v, "text computes to %s but answer is %q", want.RatString(), q.Answer)
	}
	return nil
}

// A slash with no surrounding space belongs to a fraction operand; a
// spaced slash is division.
const operand = `-?\d+(?:\.\d+)?(?:/\d+)?`

var (
	binaryExpr = regexp.MustCompile(`(?:^|[^\d./])(` + operand + `)\s*([+*×÷-]|\s/\s)\s*(` + operand + `)(?:[^\d/]|$)`)
	chained    = regexp.MustCompile(`^\s*(?:[+*×÷/-])\s*\d`)
)

// evaluate finds the first binary expression in text and returns its value.
// ok is false when none is present, the expression continues past two
// operands, or it divides by zero.
func evaluate(text string) (*big.Rat, bool) {
	m := binaryExpr.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, false
	}
	if chained.MatchString(text[m[7]:]) {
		return nil, false
	}
	a, okA := ratOf(text[m[2]:m[3]])
	b, okB := ratOf(text[m[6]:m[7]])
	if !okA || !okB {
		return nil, false
	}

	switch strings.TrimSpace(text[m[4]:m[5]]) {
	case "+":
		return a.Add(a, b), true
	case "-":
		return a.Sub(a, b), true
	case "*", "×":
		return a.Mul(a, b), true
	case "/", "÷":
		if b.Sign() == 0 {
			return nil, false
		}
		return a.Quo(a, b), true
	}
	return nil, false
}
