package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/questgen/internal/store"
	"github.com/abhisek/questgen/internal/ui/theme"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded generation sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		user, _ := cmd.Flags().GetString("user")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		sessions, err := s.SessionRepo().ListSessions(cmd.Context(), store.QueryOpts{Limit: limit, UserID: user})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(w, "No sessions recorded.")
			return nil
		}

		t := theme.Table("Session", "Time", "User", "Category", "Qs", "Rel", "Val", "Pers", "Status")
		for _, r := range sessions {
			t.Row(
				r.SessionID,
				r.Timestamp.Local().Format(timeLayout),
				truncate(r.UserID, 10),
				truncate(r.Category, 20),
				strconv.Itoa(r.TotalQuestions),
				fmt.Sprintf("%.2f", r.VectorRelevance),
				fmt.Sprintf("%.2f", r.AgenticValidation),
				fmt.Sprintf("%.2f", r.Personalization),
				string(r.Status),
			)
		}
		fmt.Fprintln(w, t.String())
		return nil
	},
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-id>",
	Short: "Show one generation session and its LLM calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()
		r, err := s.SessionRepo().GetSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if r == nil {
			return fmt.Errorf("session %s not found", args[0])
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Session:     %s\n", r.SessionID)
		fmt.Fprintf(w, "Time:        %s\n", r.Timestamp.Local().Format(timeLayout))
		fmt.Fprintf(w, "User:        %s\n", r.UserID)
		fmt.Fprintf(w, "Subject:     %s / %s (grade %d, %s)\n", r.Subject, r.Category, r.Grade, r.Difficulty)
		fmt.Fprintf(w, "Format:      %s\n", r.Format)
		fmt.Fprintf(w, "Types:       %s\n", strings.Join(r.QuestionTypes, ", "))
		fmt.Fprintf(w, "Questions:   %d\n", r.TotalQuestions)
		fmt.Fprintf(w, "Quality:     relevance %.2f, validation %.2f, personalization %.2f\n",
			r.VectorRelevance, r.AgenticValidation, r.Personalization)
		fmt.Fprintf(w, "Fallbacks:   %d types, %d warnings\n", r.FallbackTypes, r.Warnings)
		fmt.Fprintf(w, "Status:      %s in %dms\n", r.Status, r.DurationMs)

		events, err := s.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{SessionID: r.SessionID})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render("Model calls"))
		t := theme.Table("ID", "Purpose", "Model", "In", "Out", "Ms", "OK")
		for _, e := range events {
			t.Row(strconv.Itoa(e.ID), e.Purpose, truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens), strconv.Itoa(e.OutputTokens), strconv.FormatInt(e.LatencyMs, 10), mark(e.Success))
		}
		fmt.Fprintln(w, t.String())
		return nil
	},
}

func init() {
	sessionsCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	sessionsCmd.Flags().StringP("user", "u", "", "Filter by user ID")

	sessionsCmd.AddCommand(sessionsViewCmd)
}
