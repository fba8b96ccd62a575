// Package ingest turns raw operator input — delimited import files and
// per-item form entries — into sale record candidates for the staging
// queue. Rows that cannot be resolved are dropped and counted, never
// reported as errors; bulk files are expected to be only partially
// well-formed.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/settlement"
)

// importFieldCount is the expected column count of an import row:
// date, channel name, item name, quantity, price.
const importFieldCount = 5

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportResult is the outcome of one bulk import: the accepted candidates
// plus the counts the operator sees. Skipped rows are counted, not errors.
type ImportResult struct {
	Total      int
	Accepted   int
	Skipped    int
	Candidates []domain.SaleRecord
}

// FormEntry is one row of the manual entry form: optional quantity and
// price as typed by the operator.
type FormEntry struct {
	Quantity string
	Price    string
}

// ParseCSV reads comma-separated rows of
// (date, channelName, itemName, quantity, price), skipping the header row
// and tolerating a leading UTF-8 byte-order marker. A row is accepted only
// when the channel and item names match the current configuration exactly
// and the quantity is a positive integer. A row with its own date uses it;
// a row with an empty date falls back to batchDate. The settlement amount
// is computed immediately; the timestamp carries the row's date with the
// wall clock of now.
func ParseCSV(r io.Reader, batchDate time.Time, res *Resolver, now time.Time) *ImportResult {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if header {
			header = false
			continue
		}
		if err != nil {
			result.Total++
			result.Skipped++
			continue
		}
		result.Total++

		candidate, ok := parseRow(record, batchDate, res, now)
		if !ok {
			result.Skipped++
			continue
		}
		result.Accepted++
		result.Candidates = append(result.Candidates, candidate)
	}
	return result
}

func parseRow(record []string, batchDate time.Time, res *Resolver, now time.Time) (domain.SaleRecord, bool) {
	if len(record) != importFieldCount {
		return domain.SaleRecord{}, false
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	channel, ok := res.ChannelByName(record[1])
	if !ok {
		return domain.SaleRecord{}, false
	}
	item, ok := res.ItemByName(record[2])
	if !ok {
		return domain.SaleRecord{}, false
	}

	qty, err := strconv.ParseInt(record[3], 10, 64)
	if err != nil || qty <= 0 {
		return domain.SaleRecord{}, false
	}

	date := batchDate
	if record[0] != "" {
		parsed, err := time.Parse(domain.DateLayout, record[0])
		if err != nil {
			return domain.SaleRecord{}, false
		}
		date = parsed
	}

	gross := parseAmount(record[4])
	return newCandidate(channel, item, qty, gross, date, now), true
}

// PromoteForm converts the manual entry form into candidates. All entries
// share one channel and one working date. Rows with an empty or
// non-positive quantity are dropped; a blank or non-numeric price counts
// as zero. Output is ordered by item name so repeated promotions of the
// same form are deterministic.
func PromoteForm(entries map[uuid.UUID]FormEntry, channel domain.Channel, workDate time.Time, res *Resolver, now time.Time) []domain.SaleRecord {
	var candidates []domain.SaleRecord
	for itemID, entry := range entries {
		item, ok := res.ItemByID(itemID)
		if !ok {
			continue
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(entry.Quantity), 10, 64)
		if err != nil || qty <= 0 {
			continue
		}
		gross := parseAmount(entry.Price)
		candidates = append(candidates, newCandidate(channel, item, qty, gross, workDate, now))
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, _ := res.ItemByID(candidates[i].ItemID)
		b, _ := res.ItemByID(candidates[j].ItemID)
		return a.Name < b.Name
	})
	return candidates
}

// SampleCSV renders the one-row import template using the first configured
// channel and item, prefixed with a byte-order marker so spreadsheet tools
// open it cleanly.
func SampleCSV(channels []domain.Channel, items []domain.Item, today time.Time) []byte {
	channelName := "channel"
	if len(channels) > 0 {
		channelName = channels[0].Name
	}
	itemName := "item"
	if len(items) > 0 {
		itemName = items[0].Name
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString("date,channel_name,item_name,quantity,price\n")
	fmt.Fprintf(&buf, "%s,%s,%s,1,15000\n", today.Format(domain.DateLayout), channelName, itemName)
	return buf.Bytes()
}

func newCandidate(channel domain.Channel, item domain.Item, qty int64, gross decimal.Decimal, date, now time.Time) domain.SaleRecord {
	ts := time.Date(date.Year(), date.Month(), date.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, now.Location())
	return domain.SaleRecord{
		ID:               uuid.New(),
		Timestamp:        ts,
		ChannelID:        channel.ID,
		ItemID:           item.ID,
		Quantity:         qty,
		GrossAmount:      gross,
		SettlementAmount: settlement.Compute(gross, channel),
	}
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
