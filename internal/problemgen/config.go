package problemgen

// Config tunes LLMGenerator.
type Config struct {
	// Validators run in order on every model answer; the first rejection wins.
	Validators []Validator

	// MaxAttempts bounds how often one question is asked for again after a
	// retryable rejection. Values below 1 mean 1.
	MaxAttempts int

	MaxTokens   int
	Temperature float64

	// MaxPriorQuestions caps the earlier questions quoted back to the model
	// so it avoids repeats. Only the most recent are kept.
	MaxPriorQuestions int

	// DefaultConfidence stands in when the model reports a confidence of 0.
	DefaultConfidence float64
}

func DefaultConfig() Config {
	return Config{
		Validators:        DefaultValidators(),
		MaxAttempts:       2,
		MaxTokens:         768,
		Temperature:       0.7,
		MaxPriorQuestions: 8,
		DefaultConfidence: 0.8,
	}
}
