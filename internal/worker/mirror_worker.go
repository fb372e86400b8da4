// Package worker mirrors ledger transactions to an external tabular
// backend, driven by change events from AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gilppon/kaikebu/internal/amqp"
	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/ledger"
	applog "github.com/gilppon/kaikebu/internal/log"
	"github.com/gilppon/kaikebu/internal/mirror"
	"github.com/gilppon/kaikebu/internal/storage"
)

// MirrorWorker applies transaction changes to the mirror backend. The
// snapshot store is the source of truth; change messages only carry the
// operation and entity id.
type MirrorWorker struct {
	snapshots *storage.SnapshotStore
	appender  mirror.TransactionAppender
	remover   mirror.TransactionRemover

	mu      sync.Mutex
	rowRefs map[string]string
}

func NewMirrorWorker(snapshots *storage.SnapshotStore, appender mirror.TransactionAppender, remover mirror.TransactionRemover) *MirrorWorker {
	return &MirrorWorker{
		snapshots: snapshots,
		appender:  appender,
		remover:   remover,
		rowRefs:   make(map[string]string),
	}
}

// HandleChange processes a single change message from AMQP.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	switch msg.Op {
	case ledger.OpAddTransaction:
		return w.mirrorTransaction(ctx, msg.EntityID)
	case ledger.OpUpdateTransaction:
		if err := w.unmirrorTransaction(ctx, msg.EntityID); err != nil {
			return err
		}
		return w.mirrorTransaction(ctx, msg.EntityID)
	case ledger.OpRemoveTransaction:
		return w.unmirrorTransaction(ctx, msg.EntityID)
	default:
		slog.DebugContext(ctx, "Change does not affect the mirror, skipping", "op", msg.Op)
		return nil
	}
}

// StartupSync mirrors every transaction present in the current snapshot.
// This recovers from missed change messages or worker downtime.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	doc, ok, err := w.snapshots.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger for startup sync: %w", err)
	}
	if !ok {
		slog.InfoContext(ctx, "No saved ledger, nothing to mirror on startup")
		return nil
	}

	successCount := 0
	errorCount := 0
	for _, tx := range doc.Transactions {
		if w.mirrored(tx.ID) {
			continue
		}
		if err := w.appendRow(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction on startup",
				"id", tx.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup mirror sync complete",
		"mirrored", successCount,
		"errors", errorCount,
		"total", len(doc.Transactions))
	if errorCount > 0 {
		return fmt.Errorf("startup sync: %d of %d transactions failed", errorCount, len(doc.Transactions))
	}
	return nil
}

func (w *MirrorWorker) mirrorTransaction(ctx context.Context, id string) error {
	doc, ok, err := w.snapshots.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if !ok {
		return fmt.Errorf("no saved ledger while mirroring transaction %s", id)
	}

	var tx *core.Transaction
	for i := range doc.Transactions {
		if doc.Transactions[i].ID == id {
			tx = &doc.Transactions[i]
			break
		}
	}
	if tx == nil {
		// Already removed again; the remove event will follow.
		slog.WarnContext(ctx, "Transaction gone from snapshot, skipping mirror", "id", id)
		return nil
	}

	return w.appendRow(ctx, *tx)
}

func (w *MirrorWorker) appendRow(ctx context.Context, tx core.Transaction) error {
	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}

	w.mu.Lock()
	w.rowRefs[tx.ID] = ref
	w.mu.Unlock()

	slog.InfoContext(ctx, "Transaction mirrored",
		applog.FieldComponent, applog.ComponentMirror,
		applog.FieldEntityID, tx.ID,
		applog.FieldRowRef, ref,
		applog.FieldKind, tx.Kind,
		applog.FieldAmountUnits, tx.Amount.Units)
	return nil
}

func (w *MirrorWorker) unmirrorTransaction(ctx context.Context, id string) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping mirror removal", "id", id)
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove transaction %s from mirror: %w", id, err)
	}

	w.mu.Lock()
	delete(w.rowRefs, id)
	w.mu.Unlock()

	slog.InfoContext(ctx, "Transaction removed from mirror",
		applog.FieldComponent, applog.ComponentMirror,
		applog.FieldEntityID, id)
	return nil
}

func (w *MirrorWorker) mirrored(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.rowRefs[id]
	return ok
}
