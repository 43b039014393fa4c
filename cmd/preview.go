package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/generation"
	"github.com/abhisek/questgen/internal/problemgen"
	"github.com/abhisek/questgen/internal/ui/theme"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate a question set and answer it interactively (no database)",
	Long: `Generate a question set and answer it question by question.

This is a stateless developer tool with no database and no events. Useful for
evaluating question quality across formats and types.`,
	RunE: runPreview,
}

func init() {
	addRequestFlags(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req := requestFromFlags(cmd)

	ctx := cmd.Context()
	rt, err := buildRuntime(ctx, cfg, false, zap.NewNop(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	fmt.Printf("Generating %d %s questions for %s...\n\n",
		req.NumberOfQuestions, req.QuestionFormat, strings.Join(req.QuestionTypes, ", "))

	resp, err := rt.service.Generate(ctx, generation.Caller{UserID: "preview"}, req)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	var correct, asked int

	for i, q := range resp.Questions {
		fmt.Printf("── Question %d/%d (%s) ──\n", i+1, len(resp.Questions), q.Type)
		fmt.Println(q.Text)
		for j, opt := range q.Options {
			fmt.Printf("  %d) %s\n", j+1, opt)
		}

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := resolveChoice(strings.TrimSpace(scanner.Text()), q.Options)
		if answer == "" {
			fmt.Println("(skipped)")
			fmt.Println()
			continue
		}
		asked++

		if problemgen.CheckAnswer(answer, &q) {
			correct++
			fmt.Println(theme.Correct.Render("✓ Correct!"))
		} else {
			fmt.Printf("%s Answer: %s\n", theme.Incorrect.Render("✗ Wrong."), q.Answer)
		}
		if q.Explanation != "" {
			fmt.Printf("Explanation: %s\n", q.Explanation)
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, asked)
	return nil
}

// resolveChoice maps a 1-based option number to the option text. Any other
// input is returned unchanged.
func resolveChoice(input string, options []string) string {
	var n int
	if _, err := fmt.Sscanf(input, "%d", &n); err == nil && fmt.Sprint(n) == input && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return input
}
