package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"

	Personal Scope = "personal"
	Shared   Scope = "shared"

	Owner  Role = "owner"
	Member Role = "member"

	Strict   Tone = "strict"
	Friendly Tone = "friendly"
	Humorous Tone = "humorous"
)

type (
	// Kind distinguishes money leaving the household from money entering it.
	// A zero Kind on old records is read as Expense.
	Kind string

	// Scope attributes an entry to one member's pocket money or to the
	// shared household pool.
	Scope string

	Role string

	// Tone selects which register the advisory messages use.
	Tone string

	User struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		HouseholdID string `json:"householdId"`
		Role        Role   `json:"role"`
		Tone        Tone   `json:"tone"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
		Kind  Kind   `json:"kind"`
	}

	Transaction struct {
		ID         string `json:"id"`
		UserID     string `json:"userId"`
		Kind       Kind   `json:"kind"`
		Scope      Scope  `json:"scope"`
		Amount     Money  `json:"amount"`
		CategoryID string `json:"categoryId"`
		Date       Date   `json:"date"`
		Memo       string `json:"memo"`
		// ReceiptRef is an opaque encoded-image reference. Stored and
		// passed through unmodified, never decoded here.
		ReceiptRef string `json:"receiptRef,omitempty"`
	}

	// Budget is keyed by (household, month, scope); the ledger keeps at
	// most one per key.
	Budget struct {
		HouseholdID     string           `json:"householdId"`
		Month           string           `json:"month"` // YYYY-MM
		Scope           Scope            `json:"scope"`
		Total           Money            `json:"totalBudget"`
		CategoryBudgets map[string]Money `json:"categoryBudgets,omitempty"`
	}

	// TransactionDraft is the caller-supplied part of a new transaction.
	// Identity and the acting user are assigned by the ledger.
	TransactionDraft struct {
		Kind       Kind   `json:"kind"`
		Scope      Scope  `json:"scope"`
		Amount     Money  `json:"amount"`
		CategoryID string `json:"categoryId"`
		Date       Date   `json:"date"`
		Memo       string `json:"memo"`
		ReceiptRef string `json:"receiptRef,omitempty"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingCategory = errors.New("missing category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidScope    = errors.New("invalid scope")
	ErrInvalidTone     = errors.New("invalid tone")
)

func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

func (s Scope) Valid() bool {
	return s == Personal || s == Shared
}

func (t Tone) Valid() bool {
	return t == Strict || t == Friendly || t == Humorous
}

// Validate rejects drafts before they reach the ledger. The ledger itself
// trusts its inputs; this is the public contract's precondition.
func (d TransactionDraft) Validate() error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.CategoryID) == "" {
		return ErrMissingCategory
	}
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	if !d.Kind.Valid() {
		return ErrInvalidKind
	}
	if !d.Scope.Valid() {
		return ErrInvalidScope
	}
	if len(d.Memo) > 200 {
		return errors.New("memo too long (max 200 characters)")
	}
	return nil
}

// Date wraps time.Time so calendar dates serialize the same way everywhere.
type Date struct {
	time.Time
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MonthKey returns the calendar-month key of the date, e.g. "2026-09".
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	// Accept full timestamps for compatibility with older documents.
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return ErrInvalidDate
}

// DaysInMonth returns the number of days in the date's calendar month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), d.Time.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
