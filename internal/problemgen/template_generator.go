package problemgen

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"

	"github.com/abhisek/questgen/internal/taxonomy"
)

// FallbackConfidence is the confidence reported for template questions. It is
// kept below typical LLM confidence so degraded slices show up in metrics.
const FallbackConfidence = 0.6

// TemplateGenerator produces simple, computed questions without an LLM. It is
// deterministic: the same input always yields the same question. Used when the
// LLM generator fails for a type, or when no provider is configured.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// template is one rendered question before packaging.
type template struct {
	text        string
	answer      string
	answerType  AnswerType
	explanation string
}

func (g *TemplateGenerator) Generate(ctx context.Context, input GenerateInput) (*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := len(input.PriorQuestions)
	rng := rand.New(rand.NewPCG(seedFor(input), uint64(seq)))
	limit := operandLimit(input.Grade, input.Difficulty)

	var t template
	// Skip repeats of earlier questions; bounded so it always terminates.
	for attempt := 0; attempt < 8; attempt++ {
		t = render(input, rng, limit)
		if !contains(input.PriorQuestions, t.text) {
			break
		}
	}

	q := &Question{
		Text:       t.text,
		Answer:     t.answer,
		AnswerType: t.answerType,
		Type:       input.Type.ID,
		Difficulty: input.Difficulty.Level(),
		Confidence: FallbackConfidence,
		Relevance:  input.Relevance.Score,
		Fallback:   true,
	}
	if input.IncludeExplanation {
		q.Explanation = t.explanation
	}
	return q, nil
}

func render(input GenerateInput, rng *rand.Rand, limit int) template {
	n := func(lo, hi int) int {
		if hi <= lo {
			return lo
		}
		return lo + rng.IntN(hi-lo+1)
	}
	factorLimit := max(5, min(12+limit/100, 30))

	switch input.Type.ID {
	case "SUBTRACTION":
		a := n(2, limit)
		b := n(1, a)
		return intTemplate(fmt.Sprintf("What is %d - %d?", a, b), a-b,
			fmt.Sprintf("%d - %d = %d.", a, b, a-b))

	case "MULTIPLICATION":
		a, b := n(2, factorLimit), n(2, factorLimit)
		return intTemplate(fmt.Sprintf("What is %d * %d?", a, b), a*b,
			fmt.Sprintf("%d groups of %d make %d.", a, b, a*b))

	case "DIVISION":
		b, q := n(2, factorLimit), n(2, factorLimit)
		return intTemplate(fmt.Sprintf("What is %d / %d?", b*q, b), q,
			fmt.Sprintf("%d * %d = %d, so %d / %d = %d.", b, q, b*q, b*q, b, q))

	case "FRACTIONS":
		den := n(3, 12)
		a, b := n(1, den-1), n(1, den-1)
		ans := formatFraction(int64(a+b), int64(den))
		at := AnswerTypeFraction
		if InferAnswerType(ans) == AnswerTypeInteger {
			at = AnswerTypeInteger
		}
		return template{
			text:        fmt.Sprintf("What is %d/%d + %d/%d?", a, den, b, den),
			answer:      ans,
			answerType:  at,
			explanation: fmt.Sprintf("Same denominator: add numerators %d + %d = %d, giving %d/%d = %s.", a, b, a+b, a+b, den, ans),
		}

	case "DECIMALS":
		// Work in tenths; keep the sum non-whole so the answer stays a decimal.
		a10, b10 := n(1, limit*10), n(1, limit*10)
		if (a10+b10)%10 == 0 {
			b10++
		}
		tenths := func(v int) string { return strconv.FormatFloat(float64(v)/10, 'f', -1, 64) }
		as, bs, sum := tenths(a10), tenths(b10), tenths(a10+b10)
		return template{
			text:        fmt.Sprintf("What is %s + %s?", as, bs),
			answer:      sum,
			answerType:  AnswerTypeDecimal,
			explanation: fmt.Sprintf("Line up the decimal points: %s + %s = %s.", as, bs, sum),
		}

	case "PERCENTAGES":
		pcts := []int{10, 20, 25, 50}
		p := pcts[rng.IntN(len(pcts))]
		base := 20 * n(1, max(1, limit/20))
		return intTemplate(fmt.Sprintf("What is %d%% of %d?", p, base), base*p/100,
			fmt.Sprintf("%d%% of %d is %d * %d / 100 = %d.", p, base, base, p, base*p/100))

	case "ALGEBRAIC_EQUATIONS":
		a, x, b := n(2, 9), n(1, factorLimit), n(1, limit/2+1)
		return intTemplate(fmt.Sprintf("Solve for x: %dx + %d = %d. What is x?", a, b, a*x+b), x,
			fmt.Sprintf("Subtract %d from both sides to get %dx = %d, then divide by %d: x = %d.", b, a, a*x, a, x))

	case "PATTERNS":
		s, d := n(1, limit/4+1), n(2, 9)
		return intTemplate(fmt.Sprintf("What number comes next: %d, %d, %d, %d, ?", s, s+d, s+2*d, s+3*d), s+4*d,
			fmt.Sprintf("Each term adds %d, so the next is %d + %d = %d.", d, s+3*d, d, s+4*d))

	case "PERIMETER":
		l, w := n(2, factorLimit), n(2, factorLimit)
		return intTemplate(fmt.Sprintf("A rectangle is %d units long and %d units wide. What is its perimeter?", l, w), 2*(l+w),
			fmt.Sprintf("Perimeter = 2 * (%d + %d) = %d.", l, w, 2*(l+w)))

	case "AREA":
		l, w := n(2, factorLimit), n(2, factorLimit)
		return intTemplate(fmt.Sprintf("A rectangle is %d units long and %d units wide. What is its area?", l, w), l*w,
			fmt.Sprintf("Area = %d * %d = %d square units.", l, w, l*w))

	case "MONEY":
		a := n(10, limit+10)
		b := n(1, a-1)
		return intTemplate(fmt.Sprintf("You have $%d and spend $%d. How many dollars do you have left?", a, b), a-b,
			fmt.Sprintf("$%d - $%d = $%d.", a, b, a-b))

	case "ADDITION":
		a, b := n(1, limit), n(1, limit)
		return intTemplate(fmt.Sprintf("What is %d + %d?", a, b), a+b,
			fmt.Sprintf("%d + %d = %d.", a, b, a+b))
	}

	// Generic counting word problem themed on the learner's first interest.
	theme := "school"
	if len(input.Persona.Interests) > 0 {
		theme = input.Persona.Interests[0]
	}
	a, b := n(1, limit), n(1, limit)
	return intTemplate(
		fmt.Sprintf("A %s club has %d members and %d more join. How many members does the club have now?", theme, a, b),
		a+b, fmt.Sprintf("%d + %d = %d members.", a, b, a+b))
}

func intTemplate(text string, answer int, explanation string) template {
	return template{
		text:        text,
		answer:      strconv.Itoa(answer),
		answerType:  AnswerTypeInteger,
		explanation: explanation,
	}
}

// operandLimit scales number size with grade and difficulty.
func operandLimit(grade int, d taxonomy.Difficulty) int {
	var limit int
	switch {
	case grade <= 2:
		limit = 20
	case grade <= 5:
		limit = 100
	case grade <= 8:
		limit = 500
	default:
		limit = 1000
	}
	switch d {
	case taxonomy.DifficultyEasy:
		limit /= 2
	case taxonomy.DifficultyHard:
		limit *= 2
	}
	return max(limit, 10)
}

func seedFor(input GenerateInput) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|%s", input.Type.ID, input.Category.ID, input.Grade, input.Difficulty)
	return h.Sum64()
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
