// Package report computes read-side aggregates over the ledger. Every
// function here is pure: it reads a snapshot of the store and never
// mutates anything.
package report

import (
	"sort"

	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/ledger"
)

// ScopeAll disables the scope filter; aggregates then cover personal and
// shared entries alike.
const ScopeAll core.Scope = ""

// UnknownCategoryName is the display fallback for transactions whose
// category was deleted. The dangling reference is intentional: historical
// entries stay auditable.
const UnknownCategoryName = "不明"

type Aggregator struct {
	store *ledger.Store
}

func New(store *ledger.Store) *Aggregator {
	return &Aggregator{store: store}
}

func matches(tx core.Transaction, scope core.Scope, month string) bool {
	if tx.Date.MonthKey() != month {
		return false
	}
	if scope != ScopeAll && tx.Scope != scope {
		return false
	}
	return true
}

// isExpense treats an unset kind as expense. Entries written before the
// kind field existed carry no kind at all.
func isExpense(tx core.Transaction) bool {
	return tx.Kind == core.Expense || tx.Kind == ""
}

// TotalExpenses sums expense amounts for the month, filtered by scope.
func (a *Aggregator) TotalExpenses(scope core.Scope, month string) core.Money {
	var total core.Money
	for _, tx := range a.store.Transactions() {
		if matches(tx, scope, month) && isExpense(tx) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TotalIncome sums income amounts for the month, filtered by scope.
func (a *Aggregator) TotalIncome(scope core.Scope, month string) core.Money {
	var total core.Money
	for _, tx := range a.store.Transactions() {
		if matches(tx, scope, month) && tx.Kind == core.Income {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// BudgetFor is an exact key lookup on (household, month, scope).
func (a *Aggregator) BudgetFor(household, month string, scope core.Scope) (core.Budget, bool) {
	return a.store.BudgetFor(household, month, scope)
}

// UtilizationPercent returns how much of the budget is spent, unclamped.
// Values above 100 carry the over-budget signal; clamping for display is
// the caller's concern. A zero budget yields 0, never a division fault.
func UtilizationPercent(spent, budgetTotal core.Money) float64 {
	if budgetTotal.Units == 0 {
		return 0
	}
	return 100 * float64(spent.Units) / float64(budgetTotal.Units)
}

// CategoryTotal is an expense sum attributed to one category.
type CategoryTotal struct {
	CategoryID string     `json:"categoryId"`
	Name       string     `json:"name"`
	Amount     core.Money `json:"amount"`
}

// ExpensesByCategory breaks the month's expenses down per category,
// largest first. Deleted categories show up under the unknown fallback.
func (a *Aggregator) ExpensesByCategory(scope core.Scope, month string) []CategoryTotal {
	names := make(map[string]string)
	for _, c := range a.store.Categories() {
		names[c.ID] = c.Name
	}

	sums := make(map[string]core.Money)
	for _, tx := range a.store.Transactions() {
		if matches(tx, scope, month) && isExpense(tx) {
			sums[tx.CategoryID] = sums[tx.CategoryID].Add(tx.Amount)
		}
	}

	out := make([]CategoryTotal, 0, len(sums))
	for id, amount := range sums {
		name, ok := names[id]
		if !ok {
			name = UnknownCategoryName
		}
		out = append(out, CategoryTotal{CategoryID: id, Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Units != out[j].Amount.Units {
			return out[i].Amount.Units > out[j].Amount.Units
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// RecentTransactions returns up to n transactions filtered by scope,
// newest date first. Insertion order favors recency already, but only the
// date is authoritative, so entries are re-sorted here.
func (a *Aggregator) RecentTransactions(scope core.Scope, n int) []core.Transaction {
	var out []core.Transaction
	for _, tx := range a.store.Transactions() {
		if scope == ScopeAll || tx.Scope == scope {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
