package problemgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/questgen/internal/llm"
)

const purposeQuestionGen = "question-gen"

// LLMGenerator asks a chat model for one question at a time and runs the
// configured validators over each answer.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

func New(provider llm.Provider, cfg Config) *LLMGenerator {
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	return &LLMGenerator{provider: provider, config: cfg}
}

// modelQuestion mirrors QuestionSchema.
type modelQuestion struct {
	QuestionText string   `json:"question_text"`
	Answer       string   `json:"answer"`
	AnswerType   string   `json:"answer_type"`
	Options      []string `json:"options"`
	Hint         string   `json:"hint"`
	Difficulty   int      `json:"difficulty"`
	Explanation  string   `json:"explanation"`
	Confidence   float64  `json:"confidence"`
}

// Generate returns a question that passed every validator. A retryable
// rejection triggers another model call, up to Config.MaxAttempts in total;
// the last rejection is returned when all of them fail.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*Question, error) {
	ctx = llm.WithPurpose(ctx, purposeQuestionGen)

	var err error
	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		var q *Question
		q, err = g.ask(ctx, input)
		if err != nil {
			return nil, err
		}
		if verr := g.check(q, input); verr != nil {
			err = verr
			if !verr.Retryable {
				break
			}
			continue
		}
		return q, nil
	}
	return nil, err
}

func (g *LLMGenerator) ask(ctx context.Context, input GenerateInput) (*Question, error) {
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(input, g.config)}},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s question: %w", input.Type.ID, err)
	}

	var out modelQuestion
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("decode %s question: %w", input.Type.ID, &llm.ErrInvalidResponse{Content: resp.Content, Err: err})
	}
	return out.question(input, g.config.DefaultConfidence), nil
}

func (m modelQuestion) question(input GenerateInput, defaultConfidence float64) *Question {
	q := &Question{
		Text:       m.QuestionText,
		Answer:     m.Answer,
		AnswerType: AnswerType(m.AnswerType),
		Options:    m.Options,
		Type:       input.Type.ID,
		Hint:       m.Hint,
		Difficulty: m.Difficulty,
		Confidence: m.Confidence,
		Relevance:  input.Relevance.Score,
	}
	if q.Confidence == 0 {
		q.Confidence = defaultConfidence
	}
	if input.IncludeExplanation {
		q.Explanation = m.Explanation
	}
	return q
}

func (g *LLMGenerator) check(q *Question, input GenerateInput) *ValidationError {
	for _, v := range g.config.Validators {
		if verr := v.Validate(q, input); verr != nil {
			return verr
		}
	}
	return nil
}
