// Package tabular converts between transactions and the CSV exchange
// format. Rows carry date, amount (decimal, two fraction digits), category
// id, memo, kind and scope; identities and receipt attachments do not
// travel, so a re-import creates fresh entries with the same financial
// content.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gilppon/kaikebu/internal/core"
)

var header = []string{"date", "amount", "categoryId", "memo", "kind", "scope"}

// Export writes the transactions as CSV. The encoder handles memo quoting,
// so embedded commas and quotes survive the round trip.
func Export(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		kind := tx.Kind
		if kind == "" {
			// Legacy records without a kind export as expense, the same
			// default the aggregator applies.
			kind = core.Expense
		}
		row := []string{
			tx.Date.Format("2006-01-02"),
			tx.Amount.DecimalString(),
			tx.CategoryID,
			tx.Memo,
			string(kind),
			string(tx.Scope),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Import parses CSV back into transaction drafts ready for the ledger. A
// header row matching the export format is skipped when present. Rows that
// fail validation abort the import with the offending line number.
func Import(r io.Reader) ([]core.TransactionDraft, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	var drafts []core.TransactionDraft
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if line == 1 && isHeader(record) {
			continue
		}

		draft, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func isHeader(record []string) bool {
	for i, want := range header {
		if !strings.EqualFold(strings.TrimSpace(record[i]), want) {
			return false
		}
	}
	return true
}

func parseRow(record []string) (core.TransactionDraft, error) {
	var date core.Date
	if err := date.UnmarshalJSON([]byte(`"` + record[0] + `"`)); err != nil {
		return core.TransactionDraft{}, fmt.Errorf("bad date %q", record[0])
	}

	units, err := core.ParseDecimalToUnits(record[1])
	if err != nil {
		return core.TransactionDraft{}, fmt.Errorf("bad amount %q", record[1])
	}

	draft := core.TransactionDraft{
		Date:       date,
		Amount:     core.Money{Units: units},
		CategoryID: record[2],
		Memo:       record[3],
		Kind:       core.Kind(record[4]),
		Scope:      core.Scope(record[5]),
	}
	if err := draft.Validate(); err != nil {
		return core.TransactionDraft{}, err
	}
	return draft, nil
}
