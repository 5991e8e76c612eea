package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect rule documents",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check a rule document against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: no such file", args[0])
		}
		rs, err := rules.Load(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: valid (version %s, %d dimensions, %d dependencies)\n",
			args[0], rs.Version, len(rs.Engines), len(rs.Cross))
		for _, k := range energy.UnknownKeys(rs) {
			fmt.Fprintf(out, "  warning: %s is not a known key and will be ignored\n", k)
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the effective rules as JSON",
	Long:  "Print the rule document at path, the configured one, or the bundled default.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Rules.Path
		if len(args) == 1 {
			path = args[0]
		}
		rs, err := loadRules(path)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rs)
	},
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesShowCmd)
}
