package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/vigor/internal/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running server's engine status",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New("")
		h, err := c.Health()
		if err != nil {
			return fmt.Errorf("server at %s: %w", c.URL(), err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "vigor %s at %s (up %s)\n", h.Version, c.URL(), (time.Duration(h.Uptime) * time.Second).String())
		fmt.Fprintf(out, "  engine:       %s\n", h.Engine)
		fmt.Fprintf(out, "  evaluations:  %d\n", h.Stats.Evaluations)
		fmt.Fprintf(out, "  dropped:      %d\n", h.Stats.Dropped)
		fmt.Fprintf(out, "  append fails: %d\n", h.Stats.AppendFailures)
		if !h.Stats.LastEvaluated.IsZero() {
			fmt.Fprintf(out, "  last run:     %s\n", h.Stats.LastEvaluated.Format(time.RFC3339))
		}
		fmt.Fprintf(out, "  db:           %s (ok=%t)\n", h.DBPath, h.DB)
		return nil
	},
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Ask the running server to evaluate now",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := client.New("").Evaluate(false); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Evaluation requested.")
		return nil
	},
}
