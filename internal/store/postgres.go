package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/snapshot"
)

// PGPersister mirrors the full state into PostgreSQL. Each mutation
// rewrites the affected tables inside one transaction; the collections are
// small (single operator) so the simple replace keeps the database an
// exact copy of memory without diffing.
type PGPersister struct {
	pool *pgxpool.Pool
}

// NewPGPersister wraps an existing connection pool.
func NewPGPersister(pool *pgxpool.Pool) *PGPersister {
	return &PGPersister{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS channels (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	fee_percent NUMERIC NOT NULL,
	adjustment_percent NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS expenses (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	value NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS sales (
	id UUID PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	channel_id UUID NOT NULL,
	item_id UUID NOT NULL,
	quantity BIGINT NOT NULL,
	gross_amount NUMERIC NOT NULL,
	settlement_amount NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS memos (
	date TEXT PRIMARY KEY,
	content TEXT NOT NULL
);
`

// EnsureSchema creates the state tables when they do not exist yet.
func (p *PGPersister) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Persist replaces the stored state with doc in one transaction.
func (p *PGPersister) Persist(ctx context.Context, doc *snapshot.Document) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin persist tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"items", "channels", "expenses", "sales", "memos"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for _, it := range doc.Items {
		batch.Queue("INSERT INTO items (id, name) VALUES ($1, $2)", it.ID, it.Name)
	}
	for _, ch := range doc.Channels {
		fee, err := decimalToNumeric(ch.FeePercent)
		if err != nil {
			return fmt.Errorf("channel %s fee: %w", ch.ID, err)
		}
		adj, err := decimalToNumeric(ch.AdjustmentPercent)
		if err != nil {
			return fmt.Errorf("channel %s adjustment: %w", ch.ID, err)
		}
		batch.Queue(
			"INSERT INTO channels (id, name, fee_percent, adjustment_percent) VALUES ($1, $2, $3, $4)",
			ch.ID, ch.Name, fee, adj)
	}
	for _, e := range doc.Expenses {
		value, err := decimalToNumeric(e.Value)
		if err != nil {
			return fmt.Errorf("expense %s value: %w", e.ID, err)
		}
		batch.Queue(
			"INSERT INTO expenses (id, name, kind, value) VALUES ($1, $2, $3, $4)",
			e.ID, e.Name, e.Kind, value)
	}
	for _, rec := range doc.Ledger {
		gross, err := decimalToNumeric(rec.GrossAmount)
		if err != nil {
			return fmt.Errorf("record %s gross: %w", rec.ID, err)
		}
		settle, err := decimalToNumeric(rec.SettlementAmount)
		if err != nil {
			return fmt.Errorf("record %s settlement: %w", rec.ID, err)
		}
		batch.Queue(
			`INSERT INTO sales (id, ts, channel_id, item_id, quantity, gross_amount, settlement_amount)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.Timestamp, rec.ChannelID, rec.ItemID, rec.Quantity,
			gross, settle)
	}
	for _, m := range doc.Memos {
		batch.Queue("INSERT INTO memos (date, content) VALUES ($1, $2)", m.Date, m.Content)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit persist tx: %w", err)
	}
	return nil
}

// Load reads the stored state back into a snapshot document. Empty tables
// produce empty collections, which is also what a fresh schema yields.
func (p *PGPersister) Load(ctx context.Context) (*snapshot.Document, error) {
	doc := snapshot.Export(nil, nil, nil, nil, nil, time.Now())

	rows, err := p.pool.Query(ctx, "SELECT id, name FROM items ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		doc.Items = append(doc.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	rows, err = p.pool.Query(ctx, "SELECT id, name, fee_percent, adjustment_percent FROM channels ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	for rows.Next() {
		var ch domain.Channel
		var fee, adj pgtype.Numeric
		if err := rows.Scan(&ch.ID, &ch.Name, &fee, &adj); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		if ch.FeePercent, err = numericToDecimal(fee); err != nil {
			rows.Close()
			return nil, fmt.Errorf("channel fee: %w", err)
		}
		if ch.AdjustmentPercent, err = numericToDecimal(adj); err != nil {
			rows.Close()
			return nil, fmt.Errorf("channel adjustment: %w", err)
		}
		doc.Channels = append(doc.Channels, ch)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	rows, err = p.pool.Query(ctx, "SELECT id, name, kind, value FROM expenses ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	for rows.Next() {
		var e domain.ExpenseRule
		var value pgtype.Numeric
		if err := rows.Scan(&e.ID, &e.Name, &e.Kind, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Value, err = numericToDecimal(value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("expense value: %w", err)
		}
		doc.Expenses = append(doc.Expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	rows, err = p.pool.Query(ctx,
		"SELECT id, ts, channel_id, item_id, quantity, gross_amount, settlement_amount FROM sales ORDER BY ts")
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	for rows.Next() {
		var rec domain.SaleRecord
		var gross, settle pgtype.Numeric
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.ChannelID, &rec.ItemID,
			&rec.Quantity, &gross, &settle); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		if rec.GrossAmount, err = numericToDecimal(gross); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sale gross: %w", err)
		}
		if rec.SettlementAmount, err = numericToDecimal(settle); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sale settlement: %w", err)
		}
		doc.Ledger = append(doc.Ledger, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}

	rows, err = p.pool.Query(ctx, "SELECT date, content FROM memos ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("load memos: %w", err)
	}
	for rows.Next() {
		var m domain.DailyMemo
		if err := rows.Scan(&m.Date, &m.Content); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan memo: %w", err)
		}
		doc.Memos = append(doc.Memos, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load memos: %w", err)
	}

	return doc, nil
}

// --- numeric conversion helpers ---

func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("numeric from %s: %w", d, err)
	}
	return n, nil
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero, err
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected numeric driver value %T", val)
	}
	return decimal.NewFromString(s)
}
