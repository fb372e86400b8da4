package report

import (
	"testing"

	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/ledger"
)

func seededStore(t *testing.T) *ledger.Store {
	t.Helper()
	s := ledger.New()
	s.Bootstrap(ledger.DefaultUsers(), ledger.DefaultCategories())
	add := func(kind core.Kind, scope core.Scope, units int64, cat string, day int) {
		t.Helper()
		_, err := s.AddTransaction(core.TransactionDraft{
			Kind:       kind,
			Scope:      scope,
			Amount:     core.Money{Units: units},
			CategoryID: cat,
			Date:       core.NewDate(2026, 9, day),
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	add(core.Expense, core.Shared, 3000, "c1", 1)
	add(core.Expense, core.Shared, 2000, "c2", 3)
	add(core.Expense, core.Personal, 1500, "c1", 5)
	add(core.Income, core.Shared, 100000, "i1", 1)
	add(core.Income, core.Personal, 20000, "i1", 2)
	// Different month, must never be counted for 2026-09.
	_, err := s.AddTransaction(core.TransactionDraft{
		Kind:       core.Expense,
		Scope:      core.Shared,
		Amount:     core.Money{Units: 77777},
		CategoryID: "c1",
		Date:       core.NewDate(2026, 8, 30),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	return s
}

func TestTotalsByScope(t *testing.T) {
	a := New(seededStore(t))

	cases := []struct {
		scope    core.Scope
		expenses int64
		income   int64
	}{
		{core.Shared, 5000, 100000},
		{core.Personal, 1500, 20000},
		{ScopeAll, 6500, 120000},
	}
	for _, tc := range cases {
		if got := a.TotalExpenses(tc.scope, "2026-09").Units; got != tc.expenses {
			t.Errorf("TotalExpenses(%q) = %d, want %d", tc.scope, got, tc.expenses)
		}
		if got := a.TotalIncome(tc.scope, "2026-09").Units; got != tc.income {
			t.Errorf("TotalIncome(%q) = %d, want %d", tc.scope, got, tc.income)
		}
	}
}

// Expenses and income partition the month's entries: together they account
// for every amount exactly once.
func TestTotalsPartitionMonth(t *testing.T) {
	s := seededStore(t)
	a := New(s)

	var all int64
	for _, tx := range s.Transactions() {
		if tx.Date.MonthKey() == "2026-09" {
			all += tx.Amount.Units
		}
	}
	got := a.TotalExpenses(ScopeAll, "2026-09").Units + a.TotalIncome(ScopeAll, "2026-09").Units
	if got != all {
		t.Fatalf("partition broken: %d != %d", got, all)
	}
}

func TestLegacyKindCountsAsExpense(t *testing.T) {
	s := ledger.New()
	s.Restore(ledger.Document{
		Users: ledger.DefaultUsers(),
		Transactions: []core.Transaction{
			{ID: "t1", UserID: "u1", Scope: core.Shared, Amount: core.Money{Units: 4000}, CategoryID: "c1", Date: core.NewDate(2026, 9, 1)},
		},
	})
	a := New(s)
	if got := a.TotalExpenses(core.Shared, "2026-09").Units; got != 4000 {
		t.Fatalf("unset kind should count as expense, got %d", got)
	}
	if got := a.TotalIncome(core.Shared, "2026-09").Units; got != 0 {
		t.Fatalf("unset kind must not count as income, got %d", got)
	}
}

func TestUtilizationPercent(t *testing.T) {
	cases := []struct {
		spent, budget int64
		want          float64
	}{
		{0, 0, 0},
		{5000, 0, 0}, // zero budget never divides
		{5000, 10000, 50},
		{10000, 10000, 100},
		{15000, 10000, 150}, // unclamped, over-budget signal preserved
	}
	for _, tc := range cases {
		got := UtilizationPercent(core.Money{Units: tc.spent}, core.Money{Units: tc.budget})
		if got != tc.want {
			t.Errorf("UtilizationPercent(%d, %d) = %v, want %v", tc.spent, tc.budget, got, tc.want)
		}
	}
}

func TestBudgetFor(t *testing.T) {
	a := New(seededStore(t))
	b, ok := a.BudgetFor("h1", "2026-09", core.Shared)
	if !ok || b.Total.Units != 100000 {
		t.Fatalf("BudgetFor = %+v, ok=%v", b, ok)
	}
	if _, ok := a.BudgetFor("h1", "2026-07", core.Shared); ok {
		t.Fatal("expected absent budget")
	}
}

func TestExpensesByCategoryWithFallback(t *testing.T) {
	s := seededStore(t)
	s.RemoveCategory("c2")
	a := New(s)

	rows := a.ExpensesByCategory(core.Shared, "2026-09")
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].CategoryID != "c1" || rows[0].Amount.Units != 3000 {
		t.Fatalf("largest first expected, got %+v", rows[0])
	}
	if rows[1].Name != UnknownCategoryName {
		t.Fatalf("deleted category should fall back, got %q", rows[1].Name)
	}
}

func TestRecentTransactionsSortedByDate(t *testing.T) {
	a := New(seededStore(t))
	recent := a.RecentTransactions(core.Shared, 2)
	if len(recent) != 2 {
		t.Fatalf("len = %d", len(recent))
	}
	if recent[0].Date.Before(recent[1].Date.Time) {
		t.Fatalf("not date-descending: %v then %v", recent[0].Date, recent[1].Date)
	}
}
