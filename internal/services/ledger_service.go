// Package services orchestrates ledger mutations with their side effects:
// input validation, snapshot persistence and change-event publishing.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gilppon/kaikebu/internal/advice"
	"github.com/gilppon/kaikebu/internal/amqp"
	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/forecast"
	"github.com/gilppon/kaikebu/internal/ledger"
	"github.com/gilppon/kaikebu/internal/report"
	"github.com/gilppon/kaikebu/internal/storage"
	"github.com/gilppon/kaikebu/internal/tabular"
)

// LedgerService fronts the ledger store. Every mutation that succeeds is
// followed by a snapshot save and, when a broker is configured, a change
// event. Neither side effect can fail the mutation itself.
type LedgerService struct {
	store      *ledger.Store
	aggregator *report.Aggregator
	snapshots  *storage.SnapshotStore
	amqpClient *amqp.Client
	catalog    *advice.Catalog
}

// NewLedgerService wires the store to its collaborators. snapshots and
// amqpClient may be nil; the corresponding side effect is then skipped.
func NewLedgerService(store *ledger.Store, snapshots *storage.SnapshotStore, amqpClient *amqp.Client) *LedgerService {
	s := &LedgerService{
		store:      store,
		aggregator: report.New(store),
		snapshots:  snapshots,
		amqpClient: amqpClient,
		catalog:    advice.DefaultCatalog(),
	}
	store.SetChangeHook(s.onChange)
	return s
}

func (s *LedgerService) onChange(c ledger.Change, doc ledger.Document) {
	ctx := context.Background()
	if s.snapshots != nil {
		if err := s.snapshots.SaveLedger(ctx, doc); err != nil {
			slog.ErrorContext(ctx, "Failed to save ledger snapshot",
				"op", c.Op, "error", err)
			// The in-memory ledger stays authoritative.
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.PublishChange(ctx, c); err != nil {
			slog.ErrorContext(ctx, "Failed to publish change event",
				"op", c.Op, "entity_id", c.EntityID, "error", err)
		}
	}
}

// Load restores the ledger from the last saved snapshot, or seeds the
// demo household on first run.
func (s *LedgerService) Load(ctx context.Context) error {
	if s.snapshots == nil {
		s.store.Bootstrap(ledger.DefaultUsers(), ledger.DefaultCategories())
		return nil
	}
	doc, ok, err := s.snapshots.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if !ok {
		s.store.Bootstrap(ledger.DefaultUsers(), ledger.DefaultCategories())
		slog.InfoContext(ctx, "No saved ledger, seeded demo household")
		return nil
	}
	s.store.Restore(doc)
	slog.InfoContext(ctx, "Ledger restored",
		"transactions", len(doc.Transactions),
		"budgets", len(doc.Budgets))
	return nil
}

// RecordTransaction validates the draft and records it under the active
// user.
func (s *LedgerService) RecordTransaction(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx, err := s.store.AddTransaction(draft)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction recorded",
		"id", tx.ID,
		"kind", tx.Kind,
		"scope", tx.Scope,
		"amount_units", tx.Amount.Units)
	return tx, nil
}

// EditTransaction merges the patch. Unknown ids are logged and otherwise
// ignored.
func (s *LedgerService) EditTransaction(ctx context.Context, id string, patch ledger.TransactionPatch) {
	if patch.Amount != nil {
		if err := patch.Amount.Validate(); err != nil {
			slog.WarnContext(ctx, "Rejected edit with invalid amount", "id", id)
			return
		}
	}
	if !s.store.UpdateTransaction(id, patch) {
		slog.WarnContext(ctx, "Edit for unknown transaction ignored", "id", id)
	}
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) {
	s.store.RemoveTransaction(id)
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
}

// CreateCategory validates and adds a category bucket.
func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return core.Category{}, fmt.Errorf("category name required")
	}
	if !c.Kind.Valid() {
		return core.Category{}, core.ErrInvalidKind
	}
	created := s.store.AddCategory(c)
	slog.InfoContext(ctx, "Category created", "id", created.ID, "name", created.Name)
	return created, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) {
	s.store.RemoveCategory(id)
	slog.InfoContext(ctx, "Category deleted", "id", id)
}

// SetBudget validates and upserts a budget for its (household, month,
// scope) key.
func (s *LedgerService) SetBudget(ctx context.Context, b core.Budget) error {
	if _, err := time.Parse("2006-01", b.Month); err != nil {
		return fmt.Errorf("invalid month %q", b.Month)
	}
	if !b.Scope.Valid() {
		return core.ErrInvalidScope
	}
	if b.Total.Units < 0 {
		return core.ErrInvalidAmount
	}
	if b.HouseholdID == "" {
		if u, ok := s.store.ActiveUser(); ok {
			b.HouseholdID = u.HouseholdID
		}
	}
	s.store.UpsertBudget(b)
	slog.InfoContext(ctx, "Budget set",
		"household", b.HouseholdID,
		"month", b.Month,
		"scope", b.Scope,
		"total_units", b.Total.Units)
	return nil
}

func (s *LedgerService) SwitchUser(ctx context.Context, id string) {
	s.store.SwitchActiveUser(id)
}

// SetTone validates and updates a user's advisory tone.
func (s *LedgerService) SetTone(ctx context.Context, userID string, tone core.Tone) error {
	if !tone.Valid() {
		return core.ErrInvalidTone
	}
	s.store.SetAdvisoryTone(userID, tone)
	return nil
}

func (s *LedgerService) ResetData(ctx context.Context) {
	s.store.ResetData(ledger.DefaultCategories())
	slog.InfoContext(ctx, "Ledger data reset")
}

func (s *LedgerService) Store() *ledger.Store           { return s.store }
func (s *LedgerService) Aggregator() *report.Aggregator { return s.aggregator }

// ExportCSV writes the whole transaction collection in the exchange
// format.
func (s *LedgerService) ExportCSV(w io.Writer) error {
	return tabular.Export(w, s.store.Transactions())
}

// ImportCSV records every row as a fresh transaction under the active
// user. Income rows fund budgets again, exactly as live entry would.
// Returns how many rows were recorded.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	drafts, err := tabular.Import(r)
	if err != nil {
		return 0, err
	}
	for i, draft := range drafts {
		if _, err := s.store.AddTransaction(draft); err != nil {
			return i, fmt.Errorf("record imported row %d: %w", i+1, err)
		}
	}
	slog.InfoContext(ctx, "CSV import complete", "rows", len(drafts))
	return len(drafts), nil
}

// Dashboard is the read model behind the home view: month totals, budget
// utilization, the linear forecast and the advisory messages for the
// active user's tone.
type Dashboard struct {
	Month              string                 `json:"month"`
	Scope              core.Scope             `json:"scope"`
	TotalExpenses      core.Money             `json:"totalExpenses"`
	TotalIncome        core.Money             `json:"totalIncome"`
	Budget             *core.Budget           `json:"budget,omitempty"`
	UtilizationPercent float64                `json:"utilizationPercent"`
	Projection         forecast.Projection    `json:"projection"`
	ByCategory         []report.CategoryTotal `json:"byCategory"`
	ForecastMessage    string                 `json:"forecastMessage"`
	BudgetMessage      string                 `json:"budgetMessage"`
}

// BuildDashboard assembles the dashboard for the active user's household
// at the given point in time.
func (s *LedgerService) BuildDashboard(ctx context.Context, scope core.Scope, now time.Time) (Dashboard, error) {
	user, ok := s.store.ActiveUser()
	if !ok {
		return Dashboard{}, ledger.ErrNoActiveUser
	}

	date := core.Date{Time: now}
	month := date.MonthKey()

	spent := s.aggregator.TotalExpenses(scope, month)
	income := s.aggregator.TotalIncome(scope, month)

	var budgetTotal core.Money
	var budget *core.Budget
	if b, found := s.aggregator.BudgetFor(user.HouseholdID, month, scope); found {
		budget = &b
		budgetTotal = b.Total
	}

	utilization := report.UtilizationPercent(spent, budgetTotal)
	projection := forecast.Project(spent, budgetTotal, now.Day(), date.DaysInMonth())

	return Dashboard{
		Month:              month,
		Scope:              scope,
		TotalExpenses:      spent,
		TotalIncome:        income,
		Budget:             budget,
		UtilizationPercent: utilization,
		Projection:         projection,
		ByCategory:         s.aggregator.ExpensesByCategory(scope, month),
		ForecastMessage:    s.forecastMessage(user.Tone, projection),
		BudgetMessage:      s.utilizationMessage(user.Tone, utilization),
	}, nil
}

func (s *LedgerService) forecastMessage(tone core.Tone, p forecast.Projection) string {
	key := advice.SelectKey(tone, p.Severity, p.DaysUntilExhausted)
	msg, ok := s.catalog.Lookup(key)
	if !ok {
		return ""
	}
	if p.DaysUntilExhausted != nil {
		msg = strings.ReplaceAll(msg, "{days}", strconv.Itoa(*p.DaysUntilExhausted))
	}
	return msg
}

func (s *LedgerService) utilizationMessage(tone core.Tone, percent float64) string {
	msg, _ := s.catalog.Lookup(advice.UtilizationKey(tone, percent))
	return msg
}

// Close releases the service's collaborators.
func (s *LedgerService) Close() error {
	var errs []error
	if s.snapshots != nil {
		if err := s.snapshots.Close(); err != nil {
			errs = append(errs, fmt.Errorf("snapshots: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
