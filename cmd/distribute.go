package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/questgen/internal/distribution"
)

var distributeCmd = &cobra.Command{
	Use:   "distribute <total> <type>...",
	Short: "Show how a question count is split across types",
	Example: `  questgen distribute 10 ADDITION SUBTRACTION MULTIPLICATION
  # ADDITION 4, SUBTRACTION 3, MULTIPLICATION 3`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		total, err := strconv.Atoi(args[0])
		if err != nil || total < 0 {
			return fmt.Errorf("invalid total %q: must be a non-negative integer", args[0])
		}

		dist := distribution.Distribute(total, args[1:])
		w := cmd.OutOrStdout()
		for _, a := range dist {
			fmt.Fprintf(w, "%-28s %d\n", a.Type, a.Count)
		}
		fmt.Fprintf(w, "%-28s %d\n", "TOTAL", dist.Total())
		return nil
	},
}
