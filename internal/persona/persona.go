// Package persona folds a learner's learning style, interests and motivators
// into generation parameters, a display summary and a personalization score.
package persona

import (
	"fmt"
	"strings"

	"github.com/abhisek/questgen/internal/taxonomy"
)

// Score weights. The maximum reachable score is exactly 1.0.
const (
	baseScore         = 0.5
	styleWeight       = 0.1
	interestWeight    = 0.05
	motivatorWeight   = 0.05
	maxScoredInterest = 5
	maxScoredMotive   = 3
)

// Params are the personalization inputs handed to the question generator.
type Params struct {
	LearningStyle taxonomy.LearningStyle
	Interests     []string
	Motivators    []string
}

// Map normalizes a persona into generation parameters. Duplicate and blank
// interests or motivators are dropped; order is preserved.
func Map(style taxonomy.LearningStyle, interests, motivators []string) Params {
	if !style.Valid() {
		style = taxonomy.DefaultLearningStyle
	}
	return Params{
		LearningStyle: style,
		Interests:     uniq(interests),
		Motivators:    uniq(motivators),
	}
}

// Summarize returns a one-sentence description of the persona and a
// personalization score in [0.5, 1.0]. The score never decreases as interests
// or motivators are added.
func Summarize(style taxonomy.LearningStyle, interests, motivators []string) (string, float64) {
	p := Map(style, interests, motivators)
	return p.Summary(), p.Score()
}

// Score returns the personalization score for p.
func (p Params) Score() float64 {
	s := baseScore
	if p.LearningStyle != taxonomy.DefaultLearningStyle {
		s += styleWeight
	}
	s += interestWeight * float64(min(len(p.Interests), maxScoredInterest))
	s += motivatorWeight * float64(min(len(p.Motivators), maxScoredMotive))
	return clamp(s, baseScore, 1.0)
}

// Summary returns a human-readable sentence describing p.
func (p Params) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Personalized for a %s learner", p.LearningStyle.DisplayName())
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, " interested in %s", joinList(p.Interests))
	}
	if len(p.Motivators) > 0 {
		fmt.Fprintf(&b, ", motivated by %s", joinList(p.Motivators))
	}
	b.WriteString(".")
	return b.String()
}

// Profile renders p as prompt text for the question generator.
func (p Params) Profile() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Learning style: %s. %s\n", p.LearningStyle.DisplayName(), styleGuidance(p.LearningStyle))
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s. Set problems in these contexts where it fits naturally.\n", strings.Join(p.Interests, ", "))
	}
	for _, m := range p.Motivators {
		if f := motivatorFraming(m); f != "" {
			fmt.Fprintf(&b, "Motivator (%s): %s\n", m, f)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func styleGuidance(s taxonomy.LearningStyle) string {
	switch s {
	case taxonomy.StyleVisual:
		return "Describe quantities with pictures, arrays, diagrams or number lines the learner can imagine."
	case taxonomy.StyleAuditory:
		return "Phrase problems as something said aloud, using dialogue and verbal cues."
	case taxonomy.StyleKinesthetic:
		return "Ground problems in physical actions such as building, moving, measuring or handling objects."
	default:
		return "Use clear written word problems with precise vocabulary."
	}
}

func motivatorFraming(m string) string {
	switch m {
	case "achievement":
		return "frame the problem as reaching a goal or earning a badge."
	case "curiosity":
		return "open with a surprising fact or a question worth wondering about."
	case "competition":
		return "frame the problem as a race, score or friendly contest."
	case "collaboration":
		return "involve a team or friends working together."
	case "creativity":
		return "let the problem involve designing or inventing something."
	case "mastery":
		return "emphasise getting better at a skill step by step."
	case "recognition":
		return "have the learner's result noticed or praised by someone."
	case "real-world-application":
		return "use a practical everyday situation."
	}
	return ""
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// joinList renders ["a","b","c"] as "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
