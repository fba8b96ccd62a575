// Package report buckets the ledger into calendar periods and computes
// cost-adjusted profitability. Everything here is a pure function over the
// ledger and the configured expense rules.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/enum"
)

// Fixed expense values are defined per month and scaled to the bucket
// granularity with these divisors. They are deliberate approximations, not
// calendar math: a "day" is 1/30 of a month and a "week" 1/4.
const (
	fixedCostDivisorDay  = 30
	fixedCostDivisorWeek = 4
	monthsPerYear        = 12
)

// Reports return only the most recent buckets to bound their size.
const (
	windowDay   = 14
	windowOther = 10
	trendDays   = 7
)

var hundred = decimal.NewFromInt(100)

// Bucket is one period of an aggregation report.
type Bucket struct {
	Key        string          `json:"key"`
	Label      string          `json:"label"`
	Revenue    decimal.Decimal `json:"revenue"`
	Settlement decimal.Decimal `json:"settlement"`
	Profit     decimal.Decimal `json:"profit"`
}

// ItemRank is one line of the revenue ranking view.
type ItemRank struct {
	ItemID        uuid.UUID       `json:"item_id"`
	ItemName      string          `json:"item_name"`
	TotalQuantity int64           `json:"total_quantity"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// Totals is the all-time dashboard summary.
type Totals struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Settlement decimal.Decimal `json:"settlement"`
	Costs      decimal.Decimal `json:"costs"`
	Profit     decimal.Decimal `json:"profit"`
	Trend      []Bucket        `json:"trend"`
}

// DayDetail is the drill-down view for a single calendar date.
type DayDetail struct {
	Date       string              `json:"date"`
	Revenue    decimal.Decimal     `json:"revenue"`
	Settlement decimal.Decimal     `json:"settlement"`
	Records    []domain.SaleRecord `json:"records"`
}

// Aggregate buckets the ledger at the given granularity (one of the
// enum.Granularity* constants). Buckets are keyed and sorted ascending,
// then truncated to the most recent window. Periods without records are
// never synthesized. Profit subtracts the revenue-proportional expense
// rate and the amortized fixed costs from the settlement total.
func Aggregate(ledger []domain.SaleRecord, expenses []domain.ExpenseRule, granularity string) ([]Bucket, error) {
	keyOf, window, err := bucketScheme(granularity)
	if err != nil {
		return nil, err
	}

	fixedPerBucket, variableRate := expenseFactors(expenses, granularity)

	byKey := make(map[string]*Bucket)
	for _, rec := range ledger {
		key, label := keyOf(rec.Timestamp)
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key, Label: label}
			byKey[key] = b
		}
		b.Revenue = b.Revenue.Add(rec.GrossAmount)
		b.Settlement = b.Settlement.Add(rec.SettlementAmount)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > window {
		keys = keys[len(keys)-window:]
	}

	buckets := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		b := *byKey[k]
		b.Profit = b.Settlement.Sub(b.Revenue.Mul(variableRate)).Sub(fixedPerBucket)
		buckets = append(buckets, b)
	}
	return buckets, nil
}

// RankItems ranks items by total revenue, descending. A non-empty date
// restricts the ranking to that calendar date. Ties keep first-appearance
// order. Records whose item has since been deleted fall back to the raw id
// as the display name.
func RankItems(ledger []domain.SaleRecord, itemName func(uuid.UUID) string, date string) []ItemRank {
	index := make(map[uuid.UUID]int)
	var ranks []ItemRank
	for _, rec := range ledger {
		if date != "" && rec.Date() != date {
			continue
		}
		i, ok := index[rec.ItemID]
		if !ok {
			i = len(ranks)
			index[rec.ItemID] = i
			ranks = append(ranks, ItemRank{
				ItemID:   rec.ItemID,
				ItemName: itemName(rec.ItemID),
			})
		}
		ranks[i].TotalQuantity += rec.Quantity
		ranks[i].Revenue = ranks[i].Revenue.Add(rec.GrossAmount)
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Revenue.GreaterThan(ranks[j].Revenue)
	})
	return ranks
}

// Summarize computes the dashboard totals over the whole ledger plus the
// recent daily trend.
func Summarize(ledger []domain.SaleRecord, expenses []domain.ExpenseRule) Totals {
	t := Totals{}
	for _, rec := range ledger {
		t.Revenue = t.Revenue.Add(rec.GrossAmount)
		t.Settlement = t.Settlement.Add(rec.SettlementAmount)
	}

	fixedMonthly, variableRate := sumExpenses(expenses)
	t.Costs = fixedMonthly.Add(t.Revenue.Mul(variableRate))
	t.Profit = t.Settlement.Sub(t.Costs)

	trend, _ := Aggregate(ledger, expenses, enum.GranularityDay)
	if len(trend) > trendDays {
		trend = trend[len(trend)-trendDays:]
	}
	t.Trend = trend
	return t
}

// DailyDetail returns the records for one calendar date in timestamp order
// with their revenue and settlement totals.
func DailyDetail(ledger []domain.SaleRecord, date string) DayDetail {
	d := DayDetail{Date: date, Records: []domain.SaleRecord{}}
	for _, rec := range ledger {
		if rec.Date() != date {
			continue
		}
		d.Records = append(d.Records, rec)
		d.Revenue = d.Revenue.Add(rec.GrossAmount)
		d.Settlement = d.Settlement.Add(rec.SettlementAmount)
	}
	sort.SliceStable(d.Records, func(i, j int) bool {
		return d.Records[i].Timestamp.Before(d.Records[j].Timestamp)
	})
	return d
}

// bucketScheme maps a granularity to its key derivation and report window.
// Weeks follow ISO-8601 numbering; the week of Dec 29 can therefore belong
// to the next ISO year.
func bucketScheme(granularity string) (func(time.Time) (string, string), int, error) {
	switch granularity {
	case enum.GranularityDay:
		return func(ts time.Time) (string, string) {
			key := ts.Format(domain.DateLayout)
			return key, key[5:]
		}, windowDay, nil
	case enum.GranularityWeek:
		return func(ts time.Time) (string, string) {
			year, week := ts.ISOWeek()
			return fmt.Sprintf("%04d-W%02d", year, week), fmt.Sprintf("week %d", week)
		}, windowOther, nil
	case enum.GranularityMonth:
		return func(ts time.Time) (string, string) {
			return ts.Format("2006-01"), strconv.Itoa(int(ts.Month()))
		}, windowOther, nil
	case enum.GranularityYear:
		return func(ts time.Time) (string, string) {
			key := ts.Format("2006")
			return key, key
		}, windowOther, nil
	default:
		return nil, 0, fmt.Errorf("unknown granularity %q", granularity)
	}
}

// expenseFactors amortizes the configured expenses to one bucket of the
// given granularity.
func expenseFactors(expenses []domain.ExpenseRule, granularity string) (fixedPerBucket, variableRate decimal.Decimal) {
	fixedMonthly, variableRate := sumExpenses(expenses)

	switch granularity {
	case enum.GranularityDay:
		fixedPerBucket = fixedMonthly.Div(decimal.NewFromInt(fixedCostDivisorDay))
	case enum.GranularityWeek:
		fixedPerBucket = fixedMonthly.Div(decimal.NewFromInt(fixedCostDivisorWeek))
	case enum.GranularityYear:
		fixedPerBucket = fixedMonthly.Mul(decimal.NewFromInt(monthsPerYear))
	default:
		fixedPerBucket = fixedMonthly
	}
	return fixedPerBucket, variableRate
}

func sumExpenses(expenses []domain.ExpenseRule) (fixedMonthly, variableRate decimal.Decimal) {
	for _, e := range expenses {
		switch e.Kind {
		case enum.ExpenseKindFixed:
			fixedMonthly = fixedMonthly.Add(e.Value)
		case enum.ExpenseKindPercentOfRevenue:
			variableRate = variableRate.Add(e.Value.Div(hundred))
		}
	}
	return fixedMonthly, variableRate
}
