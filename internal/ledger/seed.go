package ledger

import "github.com/gilppon/kaikebu/internal/core"

// DefaultUsers returns the demo household installed on first run.
func DefaultUsers() []core.User {
	return []core.User{
		{ID: "u1", Name: "Hiroshi", Email: "hiroshi@demo.local", HouseholdID: "h1", Role: core.Owner, Tone: core.Friendly},
		{ID: "u2", Name: "Yuki", Email: "yuki@demo.local", HouseholdID: "h1", Role: core.Member, Tone: core.Strict},
	}
}

// DefaultCategories returns the seed category set. Expense buckets first,
// then income sources.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "c1", Name: "食費", Icon: "🍔", Color: "orange", Kind: core.Expense},
		{ID: "c2", Name: "交通費", Icon: "🚃", Color: "blue", Kind: core.Expense},
		{ID: "c3", Name: "住まい", Icon: "🏠", Color: "grape", Kind: core.Expense},
		{ID: "c4", Name: "娯楽", Icon: "🎮", Color: "violet", Kind: core.Expense},
		{ID: "c5", Name: "光熱費", Icon: "💡", Color: "yellow", Kind: core.Expense},
		{ID: "c6", Name: "買い物", Icon: "🛍️", Color: "pink", Kind: core.Expense},
		{ID: "i1", Name: "給料", Icon: "💰", Color: "teal", Kind: core.Income},
		{ID: "i2", Name: "ボーナス", Icon: "💎", Color: "cyan", Kind: core.Income},
		{ID: "i3", Name: "副業", Icon: "💻", Color: "indigo", Kind: core.Income},
		{ID: "i4", Name: "その他", Icon: "💵", Color: "gray", Kind: core.Income},
	}
}
