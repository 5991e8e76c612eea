package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/vigor/internal/activity"
	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/engine"
	"github.com/lazypower/vigor/internal/eventlog"
)

// --- log command ---

var logCategory string

var logCmd = &cobra.Command{
	Use:   "log <dimension> <drain|boost> <impact> <description...>",
	Short: "Record a manual energy event",
	Example: `  vigor log mental drain 8 "three hours of meetings"
  vigor log emotional boost 10 dinner with friends`,
	Args: cobra.MinimumNArgs(4),
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVarP(&logCategory, "category", "c", "", "Optional category, e.g. meditation")
}

func runLog(cmd *cobra.Command, args []string) error {
	impact, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("impact must be a number: %q", args[2])
	}

	ctx := context.Background()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ev, err := a.engine.LogManualEvent(ctx, engine.ManualEvent{
		Dimension:   args[0],
		Kind:        args[1],
		Impact:      impact,
		Description: strings.Join(args[3:], " "),
		Category:    logCategory,
	})
	if err != nil {
		return err
	}
	printEvents(cmd.OutOrStdout(), []energy.Event{ev})
	return nil
}

// --- events command ---

var (
	eventsDate  string
	eventsLimit int
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List logged energy events",
	Long:  "List recent events, newest first, or every event of one day with --date.",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsDate, "date", "d", "", "Day to list (YYYY-MM-DD, or \"today\")")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", eventlog.DefaultRecentLimit, "Maximum number of recent events")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Print JSON")
}

func runEvents(cmd *cobra.Command, args []string) error {
	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	var events []energy.Event
	switch eventsDate {
	case "":
		events, err = db.RecentEvents(ctx, eventsLimit)
	case "today":
		events, err = db.EventsForDate(ctx, time.Now())
	default:
		day, perr := time.ParseInLocation(activity.DayLayout, eventsDate, time.Local)
		if perr != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %q", eventsDate)
		}
		events, err = db.EventsForDate(ctx, day)
	}
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	if eventsJSON {
		if events == nil {
			events = []energy.Event{}
		}
		return printJSON(cmd.OutOrStdout(), events)
	}
	printEvents(cmd.OutOrStdout(), events)
	return nil
}
