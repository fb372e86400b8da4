package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/forecast"
	"github.com/gilppon/kaikebu/internal/ledger"
	"github.com/gilppon/kaikebu/internal/storage"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	svc := NewLedgerService(ledger.New(), nil, nil)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return svc
}

func TestRecordTransactionRejectsInvalidDraft(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RecordTransaction(context.Background(), core.TransactionDraft{
		Kind:       core.Expense,
		Scope:      core.Shared,
		Amount:     core.Money{Units: 0},
		CategoryID: "c1",
		Date:       core.NewDate(2026, 9, 1),
	})
	if err == nil {
		t.Fatal("expected validation error for zero amount")
	}
}

func TestSetBudgetValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		budget  core.Budget
		wantErr bool
	}{
		{"valid", core.Budget{Month: "2026-09", Scope: core.Shared, Total: core.Money{Units: 100000}}, false},
		{"bad month", core.Budget{Month: "September", Scope: core.Shared, Total: core.Money{Units: 1}}, true},
		{"bad scope", core.Budget{Month: "2026-09", Scope: core.Scope("team"), Total: core.Money{Units: 1}}, true},
		{"negative total", core.Budget{Month: "2026-09", Scope: core.Shared, Total: core.Money{Units: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetBudget(ctx, tt.budget)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetBudget() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetBudgetFillsHouseholdFromActiveUser(t *testing.T) {
	svc := newTestService(t)

	err := svc.SetBudget(context.Background(), core.Budget{
		Month: "2026-09",
		Scope: core.Shared,
		Total: core.Money{Units: 50000},
	})
	if err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}

	user, _ := svc.Store().ActiveUser()
	if _, ok := svc.Store().BudgetFor(user.HouseholdID, "2026-09", core.Shared); !ok {
		t.Fatalf("budget not stored under active user's household %q", user.HouseholdID)
	}
}

func TestSetToneRejectsUnknownTone(t *testing.T) {
	svc := newTestService(t)

	if err := svc.SetTone(context.Background(), "u1", core.Tone("sarcastic")); err == nil {
		t.Fatal("expected error for unknown tone")
	}
	if err := svc.SetTone(context.Background(), "u1", core.Strict); err != nil {
		t.Fatalf("SetTone(strict) error = %v", err)
	}
}

func TestBuildDashboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SetBudget(ctx, core.Budget{
		Month: "2026-09", Scope: core.Shared, Total: core.Money{Units: 100000},
	}); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if _, err := svc.RecordTransaction(ctx, core.TransactionDraft{
		Kind:       core.Expense,
		Scope:      core.Shared,
		Amount:     core.Money{Units: 80000},
		CategoryID: "c1",
		Date:       core.NewDate(2026, 9, 5),
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	now := time.Date(2026, time.September, 20, 12, 0, 0, 0, time.UTC)
	dash, err := svc.BuildDashboard(ctx, core.Shared, now)
	if err != nil {
		t.Fatalf("BuildDashboard() error = %v", err)
	}

	if dash.Month != "2026-09" {
		t.Errorf("Month = %q, want 2026-09", dash.Month)
	}
	if dash.TotalExpenses.Units != 80000 {
		t.Errorf("TotalExpenses = %d, want 80000", dash.TotalExpenses.Units)
	}
	if dash.UtilizationPercent != 80 {
		t.Errorf("UtilizationPercent = %v, want 80", dash.UtilizationPercent)
	}
	if dash.Projection.Severity != forecast.SeverityDanger {
		t.Errorf("Severity = %q, want %q", dash.Projection.Severity, forecast.SeverityDanger)
	}
	if dash.Projection.DaysUntilExhausted == nil || *dash.Projection.DaysUntilExhausted != 5 {
		t.Errorf("DaysUntilExhausted = %v, want 5", dash.Projection.DaysUntilExhausted)
	}
	if dash.ForecastMessage == "" {
		t.Error("ForecastMessage is empty")
	}
	if strings.Contains(dash.ForecastMessage, "{days}") {
		t.Errorf("ForecastMessage still carries placeholder: %q", dash.ForecastMessage)
	}
	if !strings.Contains(dash.ForecastMessage, "5") {
		t.Errorf("ForecastMessage %q does not mention the 5 days left", dash.ForecastMessage)
	}
	if dash.BudgetMessage == "" {
		t.Error("BudgetMessage is empty")
	}
	if len(dash.ByCategory) != 1 || dash.ByCategory[0].CategoryID != "c1" {
		t.Errorf("ByCategory = %+v, want single c1 entry", dash.ByCategory)
	}
}

func TestBuildDashboardWithoutBudget(t *testing.T) {
	svc := newTestService(t)

	now := time.Date(2026, time.September, 20, 12, 0, 0, 0, time.UTC)
	dash, err := svc.BuildDashboard(context.Background(), core.Shared, now)
	if err != nil {
		t.Fatalf("BuildDashboard() error = %v", err)
	}
	if dash.Budget != nil {
		t.Errorf("Budget = %+v, want nil", dash.Budget)
	}
	if dash.Projection.Severity != forecast.SeverityInsufficientData {
		t.Errorf("Severity = %q, want %q", dash.Projection.Severity, forecast.SeverityInsufficientData)
	}
	if dash.ForecastMessage == "" {
		t.Error("ForecastMessage is empty for insufficient data")
	}
}

func TestImportCSVFundsBudgetsLikeLiveEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	csv := "date,amount,categoryId,memo,kind,scope\n" +
		"2026-09-01,3000.00,i1,salary,income,shared\n" +
		"2026-09-02,500.00,c1,lunch,expense,personal\n"
	n, err := svc.ImportCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("ImportCSV() = %d rows, want 2", n)
	}

	user, _ := svc.Store().ActiveUser()
	b, ok := svc.Store().BudgetFor(user.HouseholdID, "2026-09", core.Shared)
	if !ok {
		t.Fatal("income row did not create a shared budget")
	}
	if b.Total.Units != 300000 {
		t.Errorf("budget total = %d, want 300000", b.Total.Units)
	}

	var out strings.Builder
	if err := svc.ExportCSV(&out); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if !strings.Contains(out.String(), "salary") || !strings.Contains(out.String(), "lunch") {
		t.Errorf("export missing imported rows:\n%s", out.String())
	}
}

func TestMutationsPersistToSnapshotStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	snaps, err := storage.NewSnapshotStore(dbPath)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	svc := NewLedgerService(ledger.New(), snaps, nil)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tx, err := svc.RecordTransaction(ctx, core.TransactionDraft{
		Kind:       core.Expense,
		Scope:      core.Personal,
		Amount:     core.Money{Units: 1200},
		CategoryID: "c2",
		Date:       core.NewDate(2026, 9, 3),
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	snaps2, err := storage.NewSnapshotStore(dbPath)
	if err != nil {
		t.Fatalf("reopen snapshot store: %v", err)
	}
	svc2 := NewLedgerService(ledger.New(), snaps2, nil)
	if err := svc2.Load(ctx); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	defer svc2.Close()

	txs := svc2.Store().Transactions()
	if len(txs) != 1 || txs[0].ID != tx.ID {
		t.Fatalf("restored transactions = %+v, want the one recorded before restart", txs)
	}
}
