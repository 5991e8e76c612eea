package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/vigor/internal/activity"
	"github.com/lazypower/vigor/internal/client"
	"github.com/lazypower/vigor/internal/store"
)

var (
	activityMinutes       int
	activityAmount        float64
	activityUnintentional bool
)

var activityCmd = &cobra.Command{
	Use:   "activity [kind]",
	Short: "Log an activity, or show today's record",
	Long: "Log one activity for today. Kinds: " + kindList() + ".\n" +
		"When a server is running the entry goes through it so the engine re-evaluates.",
	Args: cobra.MaximumNArgs(1),
	RunE: runActivity,
}

func init() {
	activityCmd.Flags().IntVar(&activityMinutes, "minutes", 0, "Call length in minutes")
	activityCmd.Flags().Float64Var(&activityAmount, "amount", 0, "Amount spent or earned")
	activityCmd.Flags().BoolVar(&activityUnintentional, "unintentional", false, "Mark a purchase as unplanned")
}

func kindList() string {
	names := make([]string, len(activity.Kinds))
	for i, k := range activity.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func runActivity(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := context.Background()

	if len(args) == 0 {
		db, err := openDB(cfg)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		day, err := activity.New(db).Today(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, day)
	}

	kind, err := activity.ParseKind(args[0])
	if err != nil {
		return err
	}
	entry := activity.Entry{
		Kind:          kind,
		Minutes:       activityMinutes,
		Amount:        activityAmount,
		Unintentional: activityUnintentional,
	}

	var day store.ActivityDay
	if c := client.New(""); c.Healthy() {
		data, err := c.LogActivity(string(kind), entry)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &day); err != nil {
			return fmt.Errorf("decode activity: %w", err)
		}
	} else {
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		if day, err = a.tracker.Log(ctx, entry); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Logged %s for %s.\n", kind, day.Day)
	return nil
}
