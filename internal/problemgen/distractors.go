package problemgen

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// genericDistractors fill in text answers that have nothing numeric to vary.
var genericDistractors = []string{
	"None of these",
	"Cannot be determined",
	"All of these",
	"Not enough information",
}

var leadingNumberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Distractors returns up to n plausible wrong answers for answer, skipping any
// value in exclude (compared after normalization). The result is deterministic.
func Distractors(answer string, answerType AnswerType, n int, exclude []string) []string {
	if n <= 0 {
		return nil
	}
	if answerType == "" {
		answerType = InferAnswerType(answer)
	}

	seen := make(map[string]bool, len(exclude)+1)
	seen[answerKey(answer)] = true
	for _, e := range exclude {
		seen[answerKey(e)] = true
	}

	var out []string
	add := func(c string) bool {
		c = strings.TrimSpace(c)
		if c == "" {
			return false
		}
		k := answerKey(c)
		if seen[k] {
			return false
		}
		seen[k] = true
		out = append(out, c)
		return len(out) >= n
	}

	for _, c := range candidates(answer, answerType) {
		if add(c) {
			return out
		}
	}
	for _, c := range genericDistractors {
		if add(c) {
			return out
		}
	}
	for i := 1; ; i++ {
		if add(fmt.Sprintf("Option %d", i)) {
			return out
		}
	}
}

// candidates lists distractor candidates nearest first.
func candidates(answer string, answerType AnswerType) []string {
	answer = strings.TrimSpace(answer)
	switch answerType {
	case AnswerTypeInteger:
		if n, err := strconv.ParseInt(answer, 10, 64); err == nil {
			return integerCandidates(n)
		}
	case AnswerTypeDecimal:
		if f, err := strconv.ParseFloat(answer, 64); err == nil {
			return decimalCandidates(f)
		}
	case AnswerTypeFraction:
		if r, ok := ratOf(answer); ok && r.Num().IsInt64() && r.Denom().IsInt64() {
			return fractionCandidates(r.Num().Int64(), r.Denom().Int64())
		}
	}
	return textCandidates(answer)
}

func integerCandidates(n int64) []string {
	deltas := []int64{1, -1, 2, -2, 10, -10, 3, -3, 5, -5}
	out := make([]string, 0, len(deltas)+1)
	for _, d := range deltas {
		v := n + d
		// Keep non-negative answers non-negative; children rarely see negatives.
		if n >= 0 && v < 0 {
			continue
		}
		out = append(out, strconv.FormatInt(v, 10))
	}
	out = append(out, strconv.FormatInt(n*2, 10))
	return out
}

func decimalCandidates(f float64) []string {
	vals := []float64{f + 0.1, f - 0.1, f * 10, f / 10, f + 1, f - 1, f + 0.5}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if f >= 0 && v < 0 {
			continue
		}
		out = append(out, strconv.FormatFloat(roundTo(v, 6), 'f', -1, 64))
	}
	return out
}

func fractionCandidates(num, den int64) []string {
	type frac struct{ n, d int64 }
	vals := []frac{
		{num + 1, den},
		{num, den + 1},
		{den, num}, // inverted
		{num - 1, den},
		{num + den, den},
		{num, den * 2},
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v.d == 0 || (num >= 0 && v.n < 0) {
			continue
		}
		out = append(out, formatFraction(v.n, v.d))
	}
	return out
}

// textCandidates varies the first number inside a text answer, e.g.
// "x = 4" -> "x = 5", "12 apples" -> "13 apples".
func textCandidates(answer string) []string {
	loc := leadingNumberRe.FindStringIndex(answer)
	if loc == nil {
		return nil
	}
	numStr := answer[loc[0]:loc[1]]
	var nums []string
	if strings.Contains(numStr, ".") {
		f, _ := strconv.ParseFloat(numStr, 64)
		nums = decimalCandidates(f)
	} else {
		n, _ := strconv.ParseInt(numStr, 10, 64)
		nums = integerCandidates(n)
	}
	out := make([]string, len(nums))
	for i, v := range nums {
		out[i] = answer[:loc[0]] + v + answer[loc[1]:]
	}
	return out
}

// answerKey normalizes a value for distinctness checks. Numbers key on
// their exact value, so "2", "2.0" and "4/2" collide.
func answerKey(s string) string {
	if r, ok := ratOf(s); ok {
		return r.RatString()
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// formatFraction reduces num/den and renders it, collapsing whole numbers.
// den must be non-zero.
func formatFraction(num, den int64) string {
	return big.NewRat(num, den).RatString()
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for range places {
		p *= 10
	}
	if v < 0 {
		return -float64(int64(-v*p+0.5)) / p
	}
	return float64(int64(v*p+0.5)) / p
}
