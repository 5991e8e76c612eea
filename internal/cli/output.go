package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/ids"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSnapshot(w io.Writer, s energy.Snapshot) {
	fmt.Fprintf(w, "Energy at %s\n\n", s.Timestamp.Format("2006-01-02 15:04"))
	for _, d := range energy.Dimensions {
		fmt.Fprintf(w, "  %-18s %5.1f\n", d.DisplayName(), s.Get(d))
	}
	fmt.Fprintf(w, "  %-18s %5.1f\n", "Prime Score", s.Prime)
}

func printEvents(w io.Writer, events []energy.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s  %-9s %-5s %+6.1f  %s [%s] %s\n",
			e.Timestamp.Format("01-02 15:04"), e.Dimension, e.Kind, e.Impact, e.Description, e.Source, ids.Format(e.ID))
	}
}
