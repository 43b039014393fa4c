package problemgen

import "context"

// Generator produces practice questions for a single question type.
type Generator interface {
	// Generate produces a single question for the given input context.
	// Returns a validated Question or an error.
	Generate(ctx context.Context, input GenerateInput) (*Question, error)
}

// Batch is the outcome of GenerateBatch.
type Batch struct {
	Questions []*Question

	// Rejected holds the primary generator's error for each item that was
	// produced by the fallback generator instead, in item order.
	Rejected []error
}

// GenerateBatch calls gen n times, feeding each accepted question back in as a
// prior question so later items are not repeats.
//
// When fallback is nil it stops at the first error and returns what was
// produced so far together with the error. Otherwise an item gen fails on is
// taken from fallback, flagged Fallback and recorded in Rejected, and only a
// fallback failure or the end of ctx stops the batch.
func GenerateBatch(ctx context.Context, gen, fallback Generator, input GenerateInput, n int) (Batch, error) {
	b := Batch{Questions: make([]*Question, 0, n)}
	prior := append([]string(nil), input.PriorQuestions...)
	for range n {
		if err := ctx.Err(); err != nil {
			return b, err
		}
		in := input
		in.PriorQuestions = prior
		q, err := gen.Generate(ctx, in)
		if err != nil {
			if fallback == nil || ctx.Err() != nil {
				return b, err
			}
			var ferr error
			if q, ferr = fallback.Generate(ctx, in); ferr != nil {
				return b, ferr
			}
			q.Fallback = true
			b.Rejected = append(b.Rejected, err)
		}
		b.Questions = append(b.Questions, q)
		prior = append(prior, q.Text)
	}
	return b, nil
}
