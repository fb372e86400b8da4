package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/ledger"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := NewSnapshotStore(filepath.Join(t.TempDir(), "kaikebu.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadLedgerBeforeFirstSave(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.LoadLedger(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected no document on first run")
	}
}

func TestSaveLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := ledger.Document{
		Users:      ledger.DefaultUsers(),
		Categories: ledger.DefaultCategories(),
		Transactions: []core.Transaction{{
			ID: "t1", UserID: "u1", Kind: core.Expense, Scope: core.Shared,
			Amount: core.Money{Units: 1200}, CategoryID: "c1",
			Date: core.NewDate(2026, 9, 1), Memo: "lunch",
			ReceiptRef: "data:opaque-ref",
		}},
		Budgets: []core.Budget{{
			HouseholdID: "h1", Month: "2026-09", Scope: core.Shared,
			Total: core.Money{Units: 100000},
		}},
		ActiveUserID: "u2",
	}
	if err := s.SaveLedger(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := s.LoadLedger(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.ActiveUserID != "u2" || len(got.Transactions) != 1 || len(got.Budgets) != 1 {
		t.Fatalf("document mismatch: %+v", got)
	}
	if got.Transactions[0].ReceiptRef != "data:opaque-ref" {
		t.Fatalf("receipt reference not passed through: %q", got.Transactions[0].ReceiptRef)
	}
}

func TestSaveReplacesPreviousDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "doc", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "doc", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := s.Load(ctx, "doc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(raw) != `{"v":2}` {
		t.Fatalf("raw = %s, want latest write", raw)
	}
}
