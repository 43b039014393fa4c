package problemgen

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/abhisek/questgen/internal/taxonomy"
)

// Blank is the marker inserted into FILL_IN_BLANK question text.
const Blank = "_____"

// MultipleChoiceOptions is the number of options a MULTIPLE_CHOICE question carries.
const MultipleChoiceOptions = 4

const (
	optionTrue  = "True"
	optionFalse = "False"
)

// ApplyFormat returns a copy of q presented in the given format. The question
// and its answer keep the same mathematical meaning; only options and framing
// change. Applying the same format twice yields an equivalent question.
//
// rng drives option shuffling and the TRUE_FALSE statement choice. A nil rng
// uses the global source.
func ApplyFormat(q Question, format taxonomy.QuestionFormat, rng *rand.Rand) Question {
	out := q
	out.Options = append([]string(nil), q.Options...)
	if out.AnswerType == "" {
		out.AnswerType = InferAnswerType(out.Answer)
	}

	switch format {
	case taxonomy.FormatMultipleChoice:
		out = toMultipleChoice(out, rng)
	case taxonomy.FormatShortAnswer:
		out = restoreCanonical(out)
		out.Options = nil
	case taxonomy.FormatTrueFalse:
		if q.Format == taxonomy.FormatTrueFalse {
			return out
		}
		out = toTrueFalse(out, rng)
	case taxonomy.FormatFillInBlank:
		out = restoreCanonical(out)
		out.stem = out.Text
		out.Text = insertBlank(out.Text, out.Answer)
		out.Options = nil
	default:
		return out
	}

	out.Format = format
	return out
}

// restoreCanonical undoes TRUE_FALSE and FILL_IN_BLANK framing so other
// formats see the original question and answer value.
func restoreCanonical(q Question) Question {
	if q.Canonical != "" {
		q.Answer = q.Canonical
		q.Canonical = ""
	}
	if q.stem != "" {
		q.Text = q.stem
		q.stem = ""
	}
	return q
}

func toMultipleChoice(q Question, rng *rand.Rand) Question {
	q = restoreCanonical(q)

	// Drop duplicates and any copies of the answer; the answer is re-added once.
	answerK := answerKey(q.Answer)
	seen := map[string]bool{answerK: true}
	distractors := make([]string, 0, MultipleChoiceOptions-1)
	for _, o := range q.Options {
		o = strings.TrimSpace(o)
		if o == "" || strings.EqualFold(o, optionTrue) || strings.EqualFold(o, optionFalse) {
			continue
		}
		k := answerKey(o)
		if seen[k] {
			continue
		}
		seen[k] = true
		if len(distractors) < MultipleChoiceOptions-1 {
			distractors = append(distractors, o)
		}
	}

	if need := MultipleChoiceOptions - 1 - len(distractors); need > 0 {
		distractors = append(distractors, Distractors(q.Answer, q.AnswerType, need, distractors)...)
	}

	options := append([]string{strings.TrimSpace(q.Answer)}, distractors...)
	shuffle(options, rng)
	q.Options = options
	return q
}

func toTrueFalse(q Question, rng *rand.Rand) Question {
	q = restoreCanonical(q)
	canonical := strings.TrimSpace(q.Answer)

	// A generator asked for TRUE_FALSE may already answer with a truth value;
	// the text is then a statement and is kept as is.
	if strings.EqualFold(canonical, optionTrue) || strings.EqualFold(canonical, optionFalse) {
		q.Answer = optionFalse
		if strings.EqualFold(canonical, optionTrue) {
			q.Answer = optionTrue
		}
		q.AnswerType = AnswerTypeText
		q.Options = []string{optionTrue, optionFalse}
		return q
	}

	// Half the statements claim the canonical answer, half a distractor.
	candidate := canonical
	if intn(rng, 2) == 1 {
		// Prefer a distractor the generator already produced.
		if alt := firstDistinct(q.Options, canonical, q.AnswerType); alt != "" {
			candidate = alt
		} else if ds := Distractors(canonical, q.AnswerType, 1, q.Options); len(ds) > 0 {
			candidate = ds[0]
		}
	}

	truth := answersEqual(candidate, canonical, q.AnswerType)

	q.stem = q.Text
	q.Text = statementFor(q.Text, candidate)
	q.Canonical = canonical
	if truth {
		q.Answer = optionTrue
	} else {
		q.Answer = optionFalse
	}
	q.Options = []string{optionTrue, optionFalse}
	return q
}

// statementFor restates a question as a claim about its answer.
func statementFor(text, candidate string) string {
	stem := strings.TrimSpace(text)
	if strings.HasSuffix(stem, "=") || strings.HasSuffix(stem, Blank) {
		stem = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(stem, Blank), "="))
		return fmt.Sprintf("True or false: %s = %s", stem, candidate)
	}
	return fmt.Sprintf("True or false: the answer to \"%s\" is %s.", stem, candidate)
}

var whatIsRe = regexp.MustCompile(`(?i)^what is (.+?)\s*\?$`)

// insertBlank puts Blank where the answer goes. Statements that contain the
// answer have its last occurrence blanked. Questions are turned into an
// equation when they read "What is <expr>?", and otherwise get an answer line.
func insertBlank(text, answer string) string {
	text = strings.TrimSpace(text)
	if strings.Contains(text, Blank) {
		return text
	}

	answer = strings.TrimSpace(answer)
	if answer != "" && !strings.HasSuffix(text, "?") {
		re, err := regexp.Compile(`(^|[^\w./])(` + regexp.QuoteMeta(answer) + `)($|[^\w/]|\.)`)
		if err == nil {
			if all := re.FindAllStringSubmatchIndex(text, -1); len(all) > 0 {
				loc := all[len(all)-1]
				return text[:loc[4]] + Blank + text[loc[5]:]
			}
		}
	}

	if m := whatIsRe.FindStringSubmatch(text); m != nil {
		return m[1] + " = " + Blank
	}
	if strings.HasSuffix(text, "=") {
		return text + " " + Blank
	}
	return text + " Answer: " + Blank
}

func firstDistinct(options []string, canonical string, answerType AnswerType) string {
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" || strings.EqualFold(o, optionTrue) || strings.EqualFold(o, optionFalse) {
			continue
		}
		if !answersEqual(o, canonical, answerType) {
			return o
		}
	}
	return ""
}

func shuffle(s []string, rng *rand.Rand) {
	swap := func(i, j int) { s[i], s[j] = s[j], s[i] }
	if rng == nil {
		rand.Shuffle(len(s), swap)
		return
	}
	rng.Shuffle(len(s), swap)
}

func intn(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}
