package problemgen

import (
	"math/big"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/abhisek/questgen/internal/taxonomy"
)

// CheckAnswer reports whether a learner's input matches the question's
// answer. Input is trimmed and compared case-insensitively; numeric answers
// compare by value, so "2/4" matches "1/2", "3.50" matches "3.5" and "007"
// matches "7". For MULTIPLE_CHOICE and TRUE_FALSE a 1-based option number is
// accepted in place of the option text.
func CheckAnswer(learnerAnswer string, question *Question) bool {
	learnerAnswer = strings.TrimSpace(learnerAnswer)
	if learnerAnswer == "" {
		return false
	}

	switch question.Format {
	case taxonomy.FormatMultipleChoice, taxonomy.FormatTrueFalse:
		return checkMultipleChoice(learnerAnswer, question)
	}

	return answersEqual(learnerAnswer, question.Answer, question.AnswerType)
}

// answersEqual compares two answers. Numeric types compare by value, so
// "2/4", "0.5" and "1/2" agree; anything that does not parse as a number
// falls back to a case-insensitive text match.
func answersEqual(a, b string, answerType AnswerType) bool {
	if answerType != AnswerTypeText {
		ra, okA := ratOf(a)
		rb, okB := ratOf(b)
		if okA && okB {
			return ra.Cmp(rb) == 0
		}
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// checkMultipleChoice accepts the option text or its 1-based position. A
// numeric option is matched as text first, so "7" picks the option "7"
// rather than the seventh option.
func checkMultipleChoice(learnerAnswer string, question *Question) bool {
	pick := learnerAnswer
	if idx, err := strconv.Atoi(learnerAnswer); err == nil && idx >= 1 && idx <= len(question.Options) && !hasOption(question.Options, learnerAnswer) {
		pick = question.Options[idx-1]
	}
	return strings.EqualFold(strings.TrimSpace(pick), strings.TrimSpace(question.Answer))
}

func hasOption(options []string, v string) bool {
	return slices.ContainsFunc(options, func(o string) bool {
		return strings.EqualFold(strings.TrimSpace(o), v)
	})
}

var (
	integerPattern  = regexp.MustCompile(`^-?\d+$`)
	decimalPattern  = regexp.MustCompile(`^-?\d*\.\d+$`)
	fractionPattern = regexp.MustCompile(`^-?\d+/\d+$`)
)

// InferAnswerType guesses the answer type from the answer text.
func InferAnswerType(answer string) AnswerType {
	answer = strings.TrimSpace(answer)
	switch {
	case integerPattern.MatchString(answer):
		return AnswerTypeInteger
	case decimalPattern.MatchString(answer):
		return AnswerTypeDecimal
	case fractionPattern.MatchString(answer):
		return AnswerTypeFraction
	default:
		return AnswerTypeText
	}
}

// ratOf parses an integer, decimal or a/b fraction exactly. Spaces around
// the slash are tolerated; a zero denominator is not. Leading zeros are
// decimal, never an octal prefix.
func ratOf(s string) (*big.Rat, bool) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		num, den = strings.TrimSpace(num), strings.TrimSpace(den)
		if !fractionPattern.MatchString(num + "/" + den) {
			return nil, false
		}
		n, _ := new(big.Rat).SetString(num)
		d, _ := new(big.Rat).SetString(den)
		if d.Sign() == 0 {
			return nil, false
		}
		return n.Quo(n, d), true
	}

	switch InferAnswerType(s) {
	case AnswerTypeInteger:
	case AnswerTypeDecimal:
		if rest, neg := strings.CutPrefix(s, "-"); strings.HasPrefix(rest, ".") {
			s = "0" + rest
			if neg {
				s = "-" + s
			}
		}
	default:
		return nil, false
	}
	return new(big.Rat).SetString(s)
}
