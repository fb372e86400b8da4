package ledger

import (
	"github.com/gilppon/kaikebu/internal/core"
)

// Document is the full ledger state as one JSON-compatible value. It is
// what the persistence boundary saves and loads; the store never learns
// where or how the document is kept.
type Document struct {
	Users        []core.User        `json:"users"`
	Categories   []core.Category    `json:"categories"`
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	ActiveUserID string             `json:"activeUserId,omitempty"`
}

// Snapshot copies the current state into a Document.
func (s *Store) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Document {
	doc := Document{
		Users:        append([]core.User(nil), s.users...),
		Categories:   append([]core.Category(nil), s.categories...),
		Transactions: append([]core.Transaction(nil), s.transactions...),
		Budgets:      append([]core.Budget(nil), s.budgets...),
	}
	if s.activeUser != nil {
		doc.ActiveUserID = s.activeUser.ID
	}
	return doc
}

// Restore replaces the whole state with the document's contents, verbatim.
// There is no schema migration here; the document is trusted as written.
// When the recorded active user is not in the user list, the first user
// becomes the actor.
func (s *Store) Restore(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = append([]core.User(nil), doc.Users...)
	s.categories = append([]core.Category(nil), doc.Categories...)
	s.transactions = append([]core.Transaction(nil), doc.Transactions...)
	s.budgets = append([]core.Budget(nil), doc.Budgets...)

	s.activeUser = nil
	for _, u := range s.users {
		if u.ID == doc.ActiveUserID {
			copied := u
			s.activeUser = &copied
			break
		}
	}
	if s.activeUser == nil && len(s.users) > 0 {
		copied := s.users[0]
		s.activeUser = &copied
	}
	s.notify(Change{Op: OpRestore})
}
