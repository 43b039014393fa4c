package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/questgen/internal/generation"
	"github.com/abhisek/questgen/internal/problemgen"
	"github.com/abhisek/questgen/internal/taxonomy"
	"github.com/abhisek/questgen/internal/ui/theme"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a question set locally and print it",
	Long: `Run one generation request in-process, using the configured LLM provider
and search backend, and print the result.

The request is built from flags, or read as JSON with --file (use "-" for stdin).`,
	Example: `  questgen generate --category number-operations --types ADDITION,SUBTRACTION -n 6
  questgen generate --file request.json --json`,
	RunE: runGenerate,
}

func init() {
	addRequestFlags(generateCmd)
	generateCmd.Flags().String("file", "", "Read the request as JSON from this file")
	generateCmd.Flags().Bool("json", false, "Print the raw JSON response")
	generateCmd.Flags().Bool("no-db", false, "Do not record the session or LLM calls")
	generateCmd.Flags().String("user", "cli", "Caller user ID recorded with the session")
}

// addRequestFlags registers the flags that make up a generation request.
func addRequestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("subject", "mathematics", "Subject label")
	f.String("category", "number-operations", "Category ID (see `questgen taxonomy`)")
	f.Int("grade", 3, "Grade level (1-12)")
	f.StringSlice("types", []string{"ADDITION", "SUBTRACTION"}, "Question type IDs")
	f.String("format", string(taxonomy.FormatMultipleChoice), "Question format")
	f.String("difficulty", string(taxonomy.DifficultyMedium), "Difficulty level")
	f.IntP("count", "n", 5, "Total number of questions")
	f.String("style", string(taxonomy.StyleVisual), "Learning style")
	f.StringSlice("interests", []string{"sports"}, "Learner interests")
	f.StringSlice("motivators", nil, "Learner motivators")
	f.StringSlice("focus", nil, "Optional focus areas")
	f.Bool("explain", false, "Ask for worked explanations")
}

func requestFromFlags(cmd *cobra.Command) generation.Request {
	f := cmd.Flags()
	var req generation.Request
	req.Subject, _ = f.GetString("subject")
	req.Category, _ = f.GetString("category")
	req.GradeLevel, _ = f.GetInt("grade")
	req.QuestionTypes, _ = f.GetStringSlice("types")
	format, _ := f.GetString("format")
	req.QuestionFormat = taxonomy.QuestionFormat(strings.ToUpper(format))
	difficulty, _ := f.GetString("difficulty")
	req.DifficultyLevel = taxonomy.Difficulty(strings.ToUpper(difficulty))
	req.NumberOfQuestions, _ = f.GetInt("count")
	style, _ := f.GetString("style")
	req.LearningStyle = taxonomy.LearningStyle(strings.ToUpper(style))
	req.Interests, _ = f.GetStringSlice("interests")
	req.Motivators, _ = f.GetStringSlice("motivators")
	req.FocusAreas, _ = f.GetStringSlice("focus")
	req.IncludeExplanations, _ = f.GetBool("explain")
	return req
}

func readRequest(path string) (generation.Request, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return generation.Request{}, err
		}
		defer file.Close()
		r = file
	}
	var req generation.Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return generation.Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	req := requestFromFlags(cmd)
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		if req, err = readRequest(path); err != nil {
			return err
		}
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	noDB, _ := cmd.Flags().GetBool("no-db")
	ctx := cmd.Context()
	rt, err := buildRuntime(ctx, cfg, !noDB, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	user, _ := cmd.Flags().GetString("user")
	resp, err := rt.service.Generate(ctx, generation.Caller{UserID: user}, req)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(cmd.OutOrStdout(), resp)
	return nil
}

func printResponse(w io.Writer, resp *generation.Response) {
	fmt.Fprintln(w, theme.Title.Render("Question set "+resp.SessionID))
	fmt.Fprintln(w, theme.Subtitle.Render(resp.CategoryContext))
	fmt.Fprintln(w, theme.Subtitle.Render(resp.PersonalizationApplied.Summary))
	fmt.Fprintln(w)

	for i, q := range resp.Questions {
		fmt.Fprintln(w, theme.Card.Render(renderQuestion(i+1, q)))
	}

	qm := resp.QualityMetrics
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s relevance %s  validation %s  personalization %s\n",
		theme.Label.Render("Quality"),
		theme.Score(qm.VectorRelevanceScore, 0.7),
		theme.Score(qm.AgenticValidationScore, 0.7),
		theme.Score(qm.PersonalizationScore, 0.7))

	var dist []string
	for _, t := range uniqueTypes(resp.Questions) {
		dist = append(dist, fmt.Sprintf("%s=%d", t, resp.TypeDistribution[t]))
	}
	fmt.Fprintf(w, "%s %s (%d total)\n", theme.Label.Render("Distribution"), strings.Join(dist, " "), resp.TotalQuestions)

	for _, warn := range resp.Warnings {
		fmt.Fprintln(w, theme.Warning.Render("! "+warn.Type+": "+warn.Message))
	}
}

func renderQuestion(n int, q problemgen.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", theme.Label.Render(fmt.Sprintf("%d.", n)), q.Text)
	for j, opt := range q.Options {
		fmt.Fprintf(&b, "   %c) %s\n", 'A'+j, opt)
	}
	fmt.Fprintf(&b, "%s %s", theme.Hint.Render("answer:"), q.Answer)
	meta := []string{q.Type, string(q.Format)}
	if q.Fallback {
		meta = append(meta, "fallback")
	}
	fmt.Fprintf(&b, "  %s", theme.Hint.Render("["+strings.Join(meta, ", ")+"]"))
	if q.Explanation != "" {
		fmt.Fprintf(&b, "\n%s", theme.Hint.Render(q.Explanation))
	}
	return b.String()
}

func uniqueTypes(qs []problemgen.Question) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range qs {
		if !seen[q.Type] {
			seen[q.Type] = true
			out = append(out, q.Type)
		}
	}
	return out
}
