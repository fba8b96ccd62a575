// Package snapshot defines the self-contained backup document: the full
// configuration, ledger and memo set with an export timestamp. On restore
// each collection is independently optional; a nil collection means "leave
// the live one untouched" while a present (possibly empty) collection
// wholesale replaces it.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/obinstory-alt/kkh/internal/domain"
)

// Document is the export/restore wire format.
type Document struct {
	Items      []domain.Item        `json:"items"`
	Channels   []domain.Channel     `json:"channels"`
	Ledger     []domain.SaleRecord  `json:"ledger"`
	Expenses   []domain.ExpenseRule `json:"expenses"`
	Memos      []domain.DailyMemo   `json:"memos"`
	ExportedAt time.Time            `json:"exported_at"`
}

// Export builds a document over the full live state. Nil inputs become
// empty collections so a round trip restores exactly what was exported.
func Export(items []domain.Item, channels []domain.Channel, ledger []domain.SaleRecord, expenses []domain.ExpenseRule, memos []domain.DailyMemo, now time.Time) *Document {
	doc := &Document{
		Items:      items,
		Channels:   channels,
		Ledger:     ledger,
		Expenses:   expenses,
		Memos:      memos,
		ExportedAt: now,
	}
	if doc.Items == nil {
		doc.Items = []domain.Item{}
	}
	if doc.Channels == nil {
		doc.Channels = []domain.Channel{}
	}
	if doc.Ledger == nil {
		doc.Ledger = []domain.SaleRecord{}
	}
	if doc.Expenses == nil {
		doc.Expenses = []domain.ExpenseRule{}
	}
	if doc.Memos == nil {
		doc.Memos = []domain.DailyMemo{}
	}
	return doc
}

// Parse decodes a candidate restore document. Any decode failure is a hard
// error; the caller must not have mutated anything yet.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &doc, nil
}

// Marshal renders the document for download or on-disk persistence.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
