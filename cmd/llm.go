package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/questgen/internal/llm"
	"github.com/abhisek/questgen/internal/store"
	"github.com/abhisek/questgen/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		opts.SessionID, _ = cmd.Flags().GetString("session")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No model calls recorded.")
			return nil
		}

		t := theme.Table("ID", "Time", "Session", "Purpose", "Model", "In", "Out", "Ms", "OK")
		for _, e := range events {
			t.Row(
				strconv.Itoa(e.ID),
				e.Timestamp.Local().Format(timeLayout),
				truncate(e.SessionID, 8),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				mark(e.Success),
			)
		}
		fmt.Fprintln(w, t.String())
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and answer of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		w := cmd.OutOrStdout()
		field := func(name, value string) {
			fmt.Fprintf(w, "%s %s\n", theme.Label.Render(fmt.Sprintf("%-9s", name)), value)
		}
		field("Event", strconv.Itoa(e.ID))
		field("Session", e.SessionID)
		field("Time", e.Timestamp.Local().Format(timeLayout))
		field("Model", e.Model)
		field("Purpose", e.Purpose)
		field("Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens))
		field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
		if e.ErrorMessage != "" {
			field("Error", theme.Incorrect.Render(e.ErrorMessage))
		}

		section(w, "Request", e.RequestBody)
		section(w, "Response", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(w, "No model calls recorded.")
			return nil
		}

		var calls, in, out int
		t := theme.Table("Purpose", "Calls", "Failed", "Input", "Output", "Avg ms")
		for _, u := range byPurpose {
			t.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.Failures),
				strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), strconv.FormatInt(u.AvgLatencyMs, 10))
			calls += u.Calls
			in += u.InputTokens
			out += u.OutputTokens
		}
		t.Row("TOTAL", strconv.Itoa(calls), "", strconv.Itoa(in), strconv.Itoa(out), "")
		fmt.Fprintln(w, theme.Title.Render("Usage by purpose"))
		fmt.Fprintln(w, t.String())

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) == 0 {
			return nil
		}

		var total float64
		var unpriced []string
		ct := theme.Table("Model", "Calls", "Input", "Output", "Cost")
		for _, u := range byModel {
			price := llm.LookupCost(u.Model)
			cost := "?"
			if price != nil {
				c := price.Cost(u.InputTokens, u.OutputTokens)
				total += c
				cost = formatCost(c)
			} else {
				unpriced = append(unpriced, u.Model)
			}
			ct.Row(truncate(u.Model, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), cost)
		}
		label := "TOTAL"
		if len(unpriced) > 0 {
			label = "TOTAL (partial)"
		}
		ct.Row(label, "", "", "", formatCost(total))

		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render("Estimated cost (USD)"))
		fmt.Fprintln(w, ct.String())
		if len(unpriced) > 0 {
			fmt.Fprintln(w, theme.Hint.Render("No pricing for: "+strings.Join(unpriced, ", ")))
		}
		return nil
	},
}

func section(w io.Writer, title, body string) {
	if body == "" {
		body = theme.Hint.Render("(not captured)")
	}
	fmt.Fprintf(w, "\n%s\n%s\n", theme.Title.Render(title), body)
}

func mark(ok bool) string {
	if ok {
		return theme.Correct.Render("✓")
	}
	return theme.Incorrect.Render("✗")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only calls with this purpose, e.g. question-gen")
	llmListCmd.Flags().StringP("session", "s", "", "Only calls made for this generation session")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
