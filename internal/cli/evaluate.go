package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/vigor/internal/client"
)

var (
	evaluateJSON   bool
	evaluateRemote bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one evaluation and print the snapshot",
	Long:  "Evaluate every dimension now and record the events that fired. With --remote the running server evaluates instead.",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "Print JSON")
	evaluateCmd.Flags().BoolVar(&evaluateRemote, "remote", false, "Ask the running server to evaluate")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if evaluateRemote {
		ev, err := client.New("").Evaluate(true)
		if err != nil {
			return fmt.Errorf("remote evaluate: %w", err)
		}
		if evaluateJSON {
			return printJSON(out, ev)
		}
		printSnapshot(out, ev.Snapshot)
		fmt.Fprintf(out, "\nEvents (%d):\n", len(ev.Events))
		printEvents(out, ev.Events)
		return nil
	}

	ctx := context.Background()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.EvaluateNow(ctx)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if evaluateJSON {
		return printJSON(out, map[string]any{"snapshot": res.Snapshot, "events": res.Events})
	}
	printSnapshot(out, res.Snapshot)
	fmt.Fprintf(out, "\nEvents (%d):\n", len(res.Events))
	printEvents(out, res.Events)
	return nil
}
