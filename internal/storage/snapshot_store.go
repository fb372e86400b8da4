// Package storage persists the ledger document. The core never sees this
// package: the service layer snapshots the ledger after each mutation and
// hands the JSON document here under a fixed name.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gilppon/kaikebu/internal/ledger"

	_ "modernc.org/sqlite"
)

// LedgerDocumentName is the fixed key the full ledger state is stored
// under.
const LedgerDocumentName = "kaikebu-ledger"

// SnapshotStore is a key-value blob store on SQLite. Documents are opaque
// to it; save replaces, load returns verbatim.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save upserts the raw document under its name.
func (s *SnapshotStore) Save(ctx context.Context, name string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, doc, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			doc = excluded.doc,
			updated_at = CURRENT_TIMESTAMP`,
		name, doc)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

// Load returns the raw document, or (nil, nil) when none was ever saved.
func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM snapshots WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return doc, nil
}

// SaveLedger marshals and stores the ledger document.
func (s *SnapshotStore) SaveLedger(ctx context.Context, doc ledger.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal ledger document: %w", err)
	}
	if err := s.Save(ctx, LedgerDocumentName, raw); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Ledger snapshot saved",
		"transactions", len(doc.Transactions),
		"budgets", len(doc.Budgets),
		"bytes", len(raw))
	return nil
}

// LoadLedger returns the stored ledger document. ok is false on first run,
// before anything was saved.
func (s *SnapshotStore) LoadLedger(ctx context.Context) (ledger.Document, bool, error) {
	raw, err := s.Load(ctx, LedgerDocumentName)
	if err != nil {
		return ledger.Document{}, false, err
	}
	if raw == nil {
		return ledger.Document{}, false, nil
	}
	var doc ledger.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ledger.Document{}, false, fmt.Errorf("unmarshal ledger document: %w", err)
	}
	return doc, true, nil
}
