package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleEntries() []LedgerEntry {
	return []LedgerEntry{
		{ID: "a", Title: "Invoice", Amount: Money{Cents: 10000}, Type: Income, Date: date(2024, 1, 5)},
		{ID: "b", Title: "Paper", Amount: Money{Cents: 3000}, Type: Expense, Date: date(2024, 1, 10)},
		{ID: "c", Title: "Consulting", Amount: Money{Cents: 5000}, Type: Income, Date: date(2023, 12, 1)},
	}
}

func TestSummarize(t *testing.T) {
	entries := sampleEntries()

	if got := TotalIncome(entries); got != 15000 {
		t.Fatalf("total income = %d, want 15000", got)
	}
	if got := TotalExpenses(entries); got != 3000 {
		t.Fatalf("total expenses = %d, want 3000", got)
	}
	if got := Profit(entries); got != 12000 {
		t.Fatalf("profit = %d, want 12000", got)
	}

	s := Summarize(entries)
	if s.ProfitCents != s.IncomeCents-s.ExpenseCents {
		t.Fatalf("profit invariant broken: %+v", s)
	}
}

func TestProfitMayBeNegative(t *testing.T) {
	entries := []LedgerEntry{
		{Amount: Money{Cents: 100}, Type: Income, Date: date(2024, 1, 1)},
		{Amount: Money{Cents: 300}, Type: Expense, Date: date(2024, 1, 2)},
	}
	if got := Profit(entries); got != -200 {
		t.Fatalf("profit = %d, want -200", got)
	}
}

func TestFilterByWindow(t *testing.T) {
	entries := sampleEntries()
	eval := date(2024, 1, 15)

	all := FilterByWindow(entries, WindowAll, eval)
	if len(all) != len(entries) {
		t.Fatalf("all window must be the identity, got %d entries", len(all))
	}

	yearly := FilterByWindow(entries, WindowYearly, eval)
	if len(yearly) != 2 {
		t.Fatalf("yearly window: got %d entries, want 2", len(yearly))
	}
	if TotalIncome(yearly) != 10000 || TotalExpenses(yearly) != 3000 || Profit(yearly) != 7000 {
		t.Fatalf("yearly aggregates wrong: income=%d expenses=%d profit=%d",
			TotalIncome(yearly), TotalExpenses(yearly), Profit(yearly))
	}

	monthly := FilterByWindow(entries, WindowMonthly, eval)
	if len(monthly) != 2 {
		t.Fatalf("monthly window: got %d entries, want 2", len(monthly))
	}

	// monthly ⊆ yearly ⊆ all at a fixed evaluation instant
	inYearly := make(map[string]bool, len(yearly))
	for _, e := range yearly {
		inYearly[e.ID] = true
	}
	for _, e := range monthly {
		if !inYearly[e.ID] {
			t.Fatalf("monthly entry %s missing from yearly window", e.ID)
		}
	}
}

func TestFilterByWindowEvaluationInstant(t *testing.T) {
	entries := sampleEntries()

	// Same snapshot, different evaluation instant: a december instant keeps
	// only the december entry in the monthly window.
	monthly := FilterByWindow(entries, WindowMonthly, date(2023, 12, 15))
	if len(monthly) != 1 || monthly[0].ID != "c" {
		t.Fatalf("monthly at 2023-12-15: got %v", monthly)
	}
}

func TestParseWindow(t *testing.T) {
	cases := []struct {
		in   string
		want Window
		ok   bool
	}{
		{"", WindowAll, true},
		{"all", WindowAll, true},
		{"yearly", WindowYearly, true},
		{"monthly", WindowMonthly, true},
		{"weekly", "", false},
	}
	for _, tc := range cases {
		got, err := ParseWindow(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %v, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestSortByDateDesc(t *testing.T) {
	entries := []LedgerEntry{
		{ID: "old", Date: date(2023, 5, 1)},
		{ID: "tie1", Date: date(2024, 1, 10)},
		{ID: "new", Date: date(2024, 2, 1)},
		{ID: "tie2", Date: date(2024, 1, 10)},
	}
	SortByDateDesc(entries)

	for i := 1; i < len(entries); i++ {
		if entries[i-1].Date.Before(entries[i].Date) {
			t.Fatalf("not sorted descending at %d: %v", i, entries)
		}
	}
	// stable: tie1 arrived before tie2 and must stay ahead
	var tiePos []int
	for i, e := range entries {
		if e.Date.Equal(date(2024, 1, 10)) {
			tiePos = append(tiePos, i)
		}
	}
	if len(tiePos) != 2 || entries[tiePos[0]].ID != "tie1" {
		t.Fatalf("tie order not stable: %v", entries)
	}
}
