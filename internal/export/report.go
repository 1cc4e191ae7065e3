// Package export turns a ledger subset into a flat tabular report: a summary
// block first, then one row per entry in the subset's current sort order.
// Rendering the report as text is the consumer's concern; the content and
// ordering are the contract.
package export

import (
	"context"
	"time"

	"billtracker/internal/core"
)

// Row is one exported entry.
type Row struct {
	Title       string
	Date        time.Time
	Type        core.EntryType
	AmountCents int64
	Note        string
}

// Report is the exported view of one window over a snapshot.
type Report struct {
	Window      core.Window
	GeneratedAt time.Time
	Summary     core.Summary
	Rows        []Row
}

// Sink writes a report somewhere durable and returns an opaque reference.
type Sink interface {
	Write(ctx context.Context, r Report) (ref string, err error)
}

// BuildReport filters the entries to the window at the given instant,
// summarizes the subset, and lays out the rows in the subset's order.
func BuildReport(entries []core.LedgerEntry, w core.Window, now time.Time) Report {
	subset := core.FilterByWindow(entries, w, now)

	rows := make([]Row, len(subset))
	for i, e := range subset {
		rows[i] = Row{
			Title:       e.Title,
			Date:        e.Date,
			Type:        e.Type,
			AmountCents: e.Amount.Cents,
			Note:        e.Note,
		}
	}

	return Report{
		Window:      w,
		GeneratedAt: now,
		Summary:     core.Summarize(subset),
		Rows:        rows,
	}
}

// Label returns the human window label used in the summary block.
func (r Report) Label() string {
	switch r.Window {
	case core.WindowYearly:
		return "This year"
	case core.WindowMonthly:
		return "This month"
	default:
		return "All time"
	}
}
