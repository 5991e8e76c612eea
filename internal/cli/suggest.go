package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var suggestJSON bool

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Show suggestions for the latest snapshot",
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Print JSON")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if a.engine.Latest() == nil {
		fmt.Fprintln(out, "No snapshot yet. Run `vigor evaluate` first.")
		return nil
	}

	list, err := a.engine.Suggestions(ctx)
	if err != nil {
		return err
	}
	if suggestJSON {
		return printJSON(out, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "Nothing to suggest. Keep going.")
		return nil
	}
	for i, s := range list {
		fmt.Fprintf(out, "%d. [%s] %s\n", i+1, s.Priority, s.Title)
		fmt.Fprintf(out, "   %s\n", s.Description)
	}
	return nil
}
