package core

import (
	"fmt"
	"sort"
	"time"
)

const (
	WindowAll     Window = "all"
	WindowYearly  Window = "yearly"
	WindowMonthly Window = "monthly"
)

// Window is a time-based filter predicate applied to a snapshot. "Current"
// year and month are evaluated against the instant passed to FilterByWindow,
// never against subscription time.
type Window string

func (w Window) Valid() bool {
	switch w {
	case WindowAll, WindowYearly, WindowMonthly:
		return true
	default:
		return false
	}
}

// ParseWindow maps a label to a Window; the empty string means all-time.
func ParseWindow(s string) (Window, error) {
	if s == "" {
		return WindowAll, nil
	}
	w := Window(s)
	if !w.Valid() {
		return "", fmt.Errorf("unknown window %q", s)
	}
	return w, nil
}

// Summary is the set of derived scalars for one snapshot or window subset.
// Profit may be negative; its sign carries meaning.
type Summary struct {
	IncomeCents  int64
	ExpenseCents int64
	ProfitCents  int64
}

func TotalIncome(entries []LedgerEntry) int64 {
	var sum int64
	for _, e := range entries {
		if e.Type == Income {
			sum += e.Amount.Cents
		}
	}
	return sum
}

func TotalExpenses(entries []LedgerEntry) int64 {
	var sum int64
	for _, e := range entries {
		if e.Type == Expense {
			sum += e.Amount.Cents
		}
	}
	return sum
}

func Profit(entries []LedgerEntry) int64 {
	return TotalIncome(entries) - TotalExpenses(entries)
}

func Summarize(entries []LedgerEntry) Summary {
	income := TotalIncome(entries)
	expenses := TotalExpenses(entries)
	return Summary{
		IncomeCents:  income,
		ExpenseCents: expenses,
		ProfitCents:  income - expenses,
	}
}

// FilterByWindow returns the subset of entries whose date falls inside the
// window evaluated at now. WindowAll returns the input unchanged.
func FilterByWindow(entries []LedgerEntry, w Window, now time.Time) []LedgerEntry {
	if w == WindowAll {
		return entries
	}
	out := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Year() != now.Year() {
			continue
		}
		if w == WindowMonthly && e.Date.Month() != now.Month() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortByDateDesc orders entries newest first. The sort is stable so entries
// sharing a date keep their arrival order.
func SortByDateDesc(entries []LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
}
