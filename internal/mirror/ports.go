// Package mirror defines the outbound port for keeping an external copy of
// the household's transactions, such as a shared spreadsheet.
package mirror

import (
	"context"

	"github.com/gilppon/kaikebu/internal/core"
)

type (
	// TransactionAppender writes one transaction to the mirror and returns
	// an adapter-specific row reference.
	TransactionAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover removes a mirrored transaction by its ledger id.
	TransactionRemover interface {
		Remove(ctx context.Context, id string) error
	}
)
