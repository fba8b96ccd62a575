// Package domain holds the core types of the settlement engine.
// All amounts are decimals; floats never carry money.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for bucketing, memos and
// the import file format.
const DateLayout = "2006-01-02"

// Item is a sellable product. Deleting an item does not touch historical
// sale records that reference it.
type Item struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Channel is a sales outlet with its own commission structure.
// FeePercent and AdjustmentPercent are plain percentages (9.8 means 9.8%)
// and are summed, never compounded.
type Channel struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	FeePercent        decimal.Decimal `json:"fee_percent"`
	AdjustmentPercent decimal.Decimal `json:"adjustment_percent"`
}

// ExpenseRule is a configured cost. Kind is one of the enum.ExpenseKind*
// constants: a fixed rule is a monthly absolute cost, a percent rule is a
// rate applied to period revenue.
type ExpenseRule struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// SaleRecord is one committed sale. SettlementAmount is derived from
// GrossAmount and the channel fees at entry time and is never recomputed
// when channel configuration changes later.
type SaleRecord struct {
	ID               uuid.UUID       `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	ChannelID        uuid.UUID       `json:"channel_id"`
	ItemID           uuid.UUID       `json:"item_id"`
	Quantity         int64           `json:"quantity"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
}

// Date returns the calendar-date portion of the record's timestamp.
func (s SaleRecord) Date() string {
	return s.Timestamp.Format(DateLayout)
}

// DailyMemo is a free-form operator note. At most one memo exists per
// calendar date.
type DailyMemo struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}
