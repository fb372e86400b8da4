// Package ledger holds the authoritative in-memory state of a household:
// users, categories, transactions and budgets, plus the active-user pointer
// used to attribute new entries.
//
// The store assumes a single logical writer at a time. The mutex only
// guards against concurrent readers on the HTTP surface; there is no
// transaction or conflict-resolution discipline, matching a best-effort
// local cache rather than a database.
package ledger

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/gilppon/kaikebu/internal/core"
)

// Change describes a completed mutation. It is handed to the change hook
// after the store has already been updated; the hook's outcome never
// affects the mutation itself.
type Change struct {
	Op       string `json:"op"`
	EntityID string `json:"entityId,omitempty"`
}

const (
	OpAddTransaction    = "transaction.add"
	OpUpdateTransaction = "transaction.update"
	OpRemoveTransaction = "transaction.remove"
	OpAddCategory       = "category.add"
	OpRemoveCategory    = "category.remove"
	OpUpsertBudget      = "budget.upsert"
	OpSwitchUser        = "user.switch"
	OpSetTone           = "user.tone"
	OpReset             = "ledger.reset"
	OpRestore           = "ledger.restore"
)

// ChangeHook observes successful mutations, typically to persist the
// snapshot or publish a change event. The document it receives is a copy
// taken right after the mutation, so hooks never read the store
// themselves; they must not call back into it.
type ChangeHook func(Change, Document)

var ErrNoActiveUser = errors.New("no active user")

type Store struct {
	mu sync.Mutex

	users        []core.User
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget

	// activeUser is a snapshot of the acting user's record. SetAdvisoryTone
	// keeps it in step with the users slice; the two must never diverge.
	activeUser *core.User

	hook  ChangeHook
	newID func() string
}

func New() *Store {
	return &Store{newID: uuid.NewString}
}

// SetChangeHook installs the post-mutation observer. Pass nil to detach.
func (s *Store) SetChangeHook(hook ChangeHook) {
	s.mu.Lock()
	s.hook = hook
	s.mu.Unlock()
}

// notify runs the hook with the post-mutation state. The mutation has
// already been applied; the hook's outcome cannot roll it back.
func (s *Store) notify(c Change) {
	if s.hook != nil {
		s.hook(c, s.snapshotLocked())
	}
}

// Bootstrap seeds the household at setup time and makes the first user the
// active actor. It does not fire the change hook.
func (s *Store) Bootstrap(users []core.User, categories []core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]core.User(nil), users...)
	s.categories = append([]core.Category(nil), categories...)
	if len(s.users) > 0 {
		u := s.users[0]
		s.activeUser = &u
	}
}

// AddTransaction assigns a new identity and the active user's id, then
// prepends the entry so recent activity lists read naturally. Display
// order is a convenience, not an invariant; callers sort by date when
// correctness matters.
//
// An income entry also funds the (household, month, scope) budget: the
// amount is added to the budget's total, creating the budget from zero if
// none exists. Sub-allocations on an existing budget are left untouched.
func (s *Store) AddTransaction(draft core.TransactionDraft) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeUser == nil {
		return core.Transaction{}, ErrNoActiveUser
	}

	tx := core.Transaction{
		ID:         s.newID(),
		UserID:     s.activeUser.ID,
		Kind:       draft.Kind,
		Scope:      draft.Scope,
		Amount:     draft.Amount,
		CategoryID: draft.CategoryID,
		Date:       draft.Date,
		Memo:       draft.Memo,
		ReceiptRef: draft.ReceiptRef,
	}
	s.transactions = append([]core.Transaction{tx}, s.transactions...)

	if draft.Kind == core.Income {
		month := draft.Date.MonthKey()
		prev, ok := s.findBudget(s.activeUser.HouseholdID, month, draft.Scope)
		next := core.Budget{
			HouseholdID: s.activeUser.HouseholdID,
			Month:       month,
			Scope:       draft.Scope,
			Total:       draft.Amount,
		}
		if ok {
			next.Total = prev.Total.Add(draft.Amount)
			next.CategoryBudgets = prev.CategoryBudgets
		}
		s.upsertBudgetLocked(next)
	}

	s.notify(Change{Op: OpAddTransaction, EntityID: tx.ID})
	return tx, nil
}

// TransactionPatch carries the fields of an edit-in-place. Nil fields are
// left as they are.
type TransactionPatch struct {
	Kind       *core.Kind
	Scope      *core.Scope
	Amount     *core.Money
	CategoryID *string
	Date       *core.Date
	Memo       *string
	ReceiptRef *string
}

// UpdateTransaction merges the patch into the matching record and reports
// whether it was found. Unknown ids are a silent no-op.
//
// Editing the amount or kind of an income entry does NOT re-run the
// income-to-budget coupling applied at creation. This mirrors the original
// behavior and is a known inconsistency risk: budgets funded by an income
// entry keep the amount declared at entry time.
func (s *Store) UpdateTransaction(id string, patch TransactionPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		tx := &s.transactions[i]
		if patch.Kind != nil {
			tx.Kind = *patch.Kind
		}
		if patch.Scope != nil {
			tx.Scope = *patch.Scope
		}
		if patch.Amount != nil {
			tx.Amount = *patch.Amount
		}
		if patch.CategoryID != nil {
			tx.CategoryID = *patch.CategoryID
		}
		if patch.Date != nil {
			tx.Date = *patch.Date
		}
		if patch.Memo != nil {
			tx.Memo = *patch.Memo
		}
		if patch.ReceiptRef != nil {
			tx.ReceiptRef = *patch.ReceiptRef
		}
		s.notify(Change{Op: OpUpdateTransaction, EntityID: id})
		return true
	}
	return false
}

// RemoveTransaction deletes by id. Removing an absent id is a no-op.
func (s *Store) RemoveTransaction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			s.notify(Change{Op: OpRemoveTransaction, EntityID: id})
			return
		}
	}
}

// AddCategory assigns an id and appends the category.
func (s *Store) AddCategory(c core.Category) core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.newID()
	s.categories = append(s.categories, c)
	s.notify(Change{Op: OpAddCategory, EntityID: c.ID})
	return c
}

// RemoveCategory deletes the category without touching transactions that
// reference it. Historical entries stay auditable; readers resolve the
// dangling reference to an unknown-category fallback.
func (s *Store) RemoveCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			s.notify(Change{Op: OpRemoveCategory, EntityID: id})
			return
		}
	}
}

// UpsertBudget replaces the budget matching (household, month, scope) or
// appends a new one, keeping the key unique.
func (s *Store) UpsertBudget(b core.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertBudgetLocked(b)
	s.notify(Change{Op: OpUpsertBudget, EntityID: b.HouseholdID + "/" + b.Month})
}

func (s *Store) upsertBudgetLocked(b core.Budget) {
	for i := range s.budgets {
		if s.budgets[i].HouseholdID == b.HouseholdID &&
			s.budgets[i].Month == b.Month &&
			s.budgets[i].Scope == b.Scope {
			s.budgets[i] = b
			return
		}
	}
	s.budgets = append(s.budgets, b)
}

func (s *Store) findBudget(household, month string, scope core.Scope) (core.Budget, bool) {
	for _, b := range s.budgets {
		if b.HouseholdID == household && b.Month == month && b.Scope == scope {
			return b, true
		}
	}
	return core.Budget{}, false
}

// SwitchActiveUser changes the acting user. An unknown id leaves the
// current actor in place.
func (s *Store) SwitchActiveUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == userID {
			copied := u
			s.activeUser = &copied
			s.notify(Change{Op: OpSwitchUser, EntityID: userID})
			return
		}
	}
}

// SetAdvisoryTone updates the tone on the matching user record. When that
// user is the active actor the cached snapshot is updated in the same
// step.
func (s *Store) SetAdvisoryTone(userID string, tone core.Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].Tone = tone
			if s.activeUser != nil && s.activeUser.ID == userID {
				s.activeUser.Tone = tone
			}
			s.notify(Change{Op: OpSetTone, EntityID: userID})
			return
		}
	}
}

// ResetData clears transactions and budgets and restores the seed
// categories. Users and the active actor survive a reset.
func (s *Store) ResetData(seedCategories []core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = nil
	s.budgets = nil
	s.categories = append([]core.Category(nil), seedCategories...)
	s.notify(Change{Op: OpReset})
}

// ActiveUser returns a copy of the acting user's record.
func (s *Store) ActiveUser() (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeUser == nil {
		return core.User{}, false
	}
	return *s.activeUser, true
}

func (s *Store) Users() []core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.users...)
}

func (s *Store) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...)
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) Budgets() []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...)
}

// BudgetFor returns the budget matching the exact (household, month,
// scope) key.
func (s *Store) BudgetFor(household, month string, scope core.Scope) (core.Budget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findBudget(household, month, scope)
}
