package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/questgen/internal/taxonomy"
	"github.com/abhisek/questgen/internal/ui/theme"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy [category]",
	Short: "List categories, question types and persona options",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		cats := taxonomy.AllCategories()
		if len(args) == 1 {
			c, err := taxonomy.GetCategory(args[0])
			if err != nil {
				return err
			}
			cats = []taxonomy.Category{c}
		}

		for _, c := range cats {
			fmt.Fprintf(w, "%s %s\n", theme.Title.Render(c.ID), theme.Subtitle.Render(c.Name+": "+c.Description))
			for _, t := range c.Types {
				fmt.Fprintf(w, "  %-26s %s\n", t.ID, t.Description)
			}
			fmt.Fprintln(w)
		}
		if len(args) == 1 {
			return nil
		}

		formats := make([]string, 0, 4)
		for _, f := range taxonomy.AllFormats() {
			formats = append(formats, string(f))
		}
		difficulties := make([]string, 0, 3)
		for _, d := range taxonomy.AllDifficulties() {
			difficulties = append(difficulties, string(d))
		}
		styles := make([]string, 0, 4)
		for _, s := range taxonomy.AllLearningStyles() {
			styles = append(styles, string(s))
		}

		fmt.Fprintf(w, "%s %s\n", theme.Label.Render("Formats:       "), strings.Join(formats, ", "))
		fmt.Fprintf(w, "%s %s\n", theme.Label.Render("Difficulties:  "), strings.Join(difficulties, ", "))
		fmt.Fprintf(w, "%s %s\n", theme.Label.Render("Styles:        "), strings.Join(styles, ", "))
		fmt.Fprintf(w, "%s %s\n", theme.Label.Render("Interests:     "), strings.Join(taxonomy.Interests(), ", "))
		fmt.Fprintf(w, "%s %s\n", theme.Label.Render("Motivators:    "), strings.Join(taxonomy.Motivators(), ", "))
		fmt.Fprintf(w, "%s %d-%d\n", theme.Label.Render("Grades:        "), taxonomy.MinGrade, taxonomy.MaxGrade)
		return nil
	},
}
