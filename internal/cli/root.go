package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/vigor/internal/config"
	"github.com/lazypower/vigor/internal/logging"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vigor",
	Short: "Energy scoring from health, usage and activity signals",
	Long: "Vigor scores four energy dimensions (mental, physical, financial, emotional) from " +
		"telemetry and logged activity using a versioned rule document, keeps an event log of " +
		"every factor that fired, and suggests what to do next.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
		}
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logging.Setup(cfg)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.vigor/config.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(triggerCmd)
}
