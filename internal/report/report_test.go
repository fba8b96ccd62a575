package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinstory-alt/kkh/internal/domain"
	"github.com/obinstory-alt/kkh/internal/enum"
)

func sale(ts time.Time, itemID uuid.UUID, qty int64, gross, settle int64) domain.SaleRecord {
	return domain.SaleRecord{
		ID:               uuid.New(),
		Timestamp:        ts,
		ItemID:           itemID,
		ChannelID:        uuid.New(),
		Quantity:         qty,
		GrossAmount:      decimal.NewFromInt(gross),
		SettlementAmount: decimal.NewFromInt(settle),
	}
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func fixedExpense(value int64) domain.ExpenseRule {
	return domain.ExpenseRule{
		ID:    uuid.New(),
		Name:  "rent",
		Kind:  enum.ExpenseKindFixed,
		Value: decimal.NewFromInt(value),
	}
}

func percentExpense(value int64) domain.ExpenseRule {
	return domain.ExpenseRule{
		ID:    uuid.New(),
		Name:  "ingredients",
		Kind:  enum.ExpenseKindPercentOfRevenue,
		Value: decimal.NewFromInt(value),
	}
}

func TestAggregate_DayBucketWithFixedCost(t *testing.T) {
	itemID := uuid.New()
	ledger := []domain.SaleRecord{
		sale(at(2024, 3, 1), itemID, 1, 1000, 900),
		sale(at(2024, 3, 1), itemID, 2, 2000, 1800),
		sale(at(2024, 3, 1), itemID, 1, 1500, 1350),
	}
	expenses := []domain.ExpenseRule{fixedExpense(300)}

	buckets, err := Aggregate(ledger, expenses, enum.GranularityDay)
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	b := buckets[0]
	assert.Equal(t, "2024-03-01", b.Key)
	assert.Equal(t, "03-01", b.Label)
	assert.True(t, b.Revenue.Equal(decimal.NewFromInt(4500)), "revenue = %s", b.Revenue)
	assert.True(t, b.Settlement.Equal(decimal.NewFromInt(4050)), "settlement = %s", b.Settlement)
	// fixed 300/month amortized to 300/30 = 10 per day, variable rate zero.
	wantProfit := decimal.NewFromInt(4050).Sub(decimal.NewFromInt(10))
	assert.True(t, b.Profit.Equal(wantProfit), "profit = %s, want %s", b.Profit, wantProfit)
}

func TestAggregate_VariableRate(t *testing.T) {
	ledger := []domain.SaleRecord{
		sale(at(2024, 3, 1), uuid.New(), 1, 10000, 9000),
	}
	expenses := []domain.ExpenseRule{percentExpense(30)}

	buckets, err := Aggregate(ledger, expenses, enum.GranularityMonth)
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	// profit = 9000 - 10000*0.30 - 0
	assert.True(t, buckets[0].Profit.Equal(decimal.NewFromInt(6000)),
		"profit = %s, want 6000", buckets[0].Profit)
}

func TestAggregate_ConservationAcrossGranularities(t *testing.T) {
	// A small dataset that fits inside every trailing window: totals must
	// agree between daily and monthly bucketing.
	itemID := uuid.New()
	ledger := []domain.SaleRecord{
		sale(at(2024, 1, 3), itemID, 1, 1000, 900),
		sale(at(2024, 1, 17), itemID, 1, 2500, 2250),
		sale(at(2024, 2, 2), itemID, 2, 4000, 3600),
		sale(at(2024, 2, 28), itemID, 1, 500, 450),
	}

	days, err := Aggregate(ledger, nil, enum.GranularityDay)
	require.NoError(t, err)
	months, err := Aggregate(ledger, nil, enum.GranularityMonth)
	require.NoError(t, err)
	require.Len(t, days, 4)
	require.Len(t, months, 2)

	var dayTotal, monthTotal decimal.Decimal
	for _, b := range days {
		dayTotal = dayTotal.Add(b.Revenue)
	}
	for _, b := range months {
		monthTotal = monthTotal.Add(b.Revenue)
	}
	assert.True(t, dayTotal.Equal(monthTotal),
		"day total %s != month total %s", dayTotal, monthTotal)
	assert.True(t, dayTotal.Equal(decimal.NewFromInt(8000)))
}

func TestAggregate_BucketKeys(t *testing.T) {
	ts := at(2024, 2, 5) // ISO week 6 of 2024

	tests := []struct {
		granularity string
		wantKey     string
		wantLabel   string
	}{
		{enum.GranularityDay, "2024-02-05", "02-05"},
		{enum.GranularityWeek, "2024-W06", "week 6"},
		{enum.GranularityMonth, "2024-02", "2"},
		{enum.GranularityYear, "2024", "2024"},
	}

	for _, tt := range tests {
		t.Run(tt.granularity, func(t *testing.T) {
			buckets, err := Aggregate(
				[]domain.SaleRecord{sale(ts, uuid.New(), 1, 100, 90)},
				nil, tt.granularity)
			require.NoError(t, err)
			require.Len(t, buckets, 1)
			assert.Equal(t, tt.wantKey, buckets[0].Key)
			assert.Equal(t, tt.wantLabel, buckets[0].Label)
		})
	}
}

func TestAggregate_TrailingWindow(t *testing.T) {
	itemID := uuid.New()
	var ledger []domain.SaleRecord
	for d := 1; d <= 20; d++ {
		ledger = append(ledger, sale(at(2024, 3, d), itemID, 1, 100, 90))
	}

	buckets, err := Aggregate(ledger, nil, enum.GranularityDay)
	require.NoError(t, err)
	require.Len(t, buckets, 14, "daily report keeps the most recent 14 buckets")
	assert.Equal(t, "2024-03-07", buckets[0].Key)
	assert.Equal(t, "2024-03-20", buckets[13].Key)
}

func TestAggregate_NoZeroFilling(t *testing.T) {
	itemID := uuid.New()
	ledger := []domain.SaleRecord{
		sale(at(2024, 3, 1), itemID, 1, 100, 90),
		sale(at(2024, 3, 9), itemID, 1, 100, 90),
	}

	buckets, err := Aggregate(ledger, nil, enum.GranularityDay)
	require.NoError(t, err)
	assert.Len(t, buckets, 2, "gap days are not synthesized")
}

func TestAggregate_UnknownGranularity(t *testing.T) {
	_, err := Aggregate(nil, nil, "HOUR")
	assert.Error(t, err)
}

func TestRankItems(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()
	orphan := uuid.New()
	ledger := []domain.SaleRecord{
		sale(at(2024, 3, 1), itemA, 1, 1000, 900),
		sale(at(2024, 3, 1), itemB, 3, 5000, 4500),
		sale(at(2024, 3, 2), itemA, 2, 2000, 1800),
		sale(at(2024, 3, 1), orphan, 1, 300, 270),
	}
	names := map[uuid.UUID]string{itemA: "Soup", itemB: "Fried Chicken"}
	nameOf := func(id uuid.UUID) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id.String()
	}

	t.Run("full ledger", func(t *testing.T) {
		ranks := RankItems(ledger, nameOf, "")
		require.Len(t, ranks, 3)
		assert.Equal(t, "Fried Chicken", ranks[0].ItemName)
		assert.True(t, ranks[0].Revenue.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, "Soup", ranks[1].ItemName)
		assert.True(t, ranks[1].Revenue.Equal(decimal.NewFromInt(3000)))
		assert.Equal(t, int64(3), ranks[1].TotalQuantity)
		// Deleted items rank with the raw id as display name.
		assert.Equal(t, orphan.String(), ranks[2].ItemName)
	})

	t.Run("single date", func(t *testing.T) {
		ranks := RankItems(ledger, nameOf, "2024-03-02")
		require.Len(t, ranks, 1)
		assert.Equal(t, "Soup", ranks[0].ItemName)
		assert.True(t, ranks[0].Revenue.Equal(decimal.NewFromInt(2000)))
	})
}

func TestSummarize(t *testing.T) {
	itemID := uuid.New()
	ledger := []domain.SaleRecord{
		sale(at(2024, 3, 1), itemID, 1, 10000, 9000),
		sale(at(2024, 3, 2), itemID, 1, 20000, 18000),
	}
	expenses := []domain.ExpenseRule{fixedExpense(5000), percentExpense(10)}

	totals := Summarize(ledger, expenses)
	assert.True(t, totals.Revenue.Equal(decimal.NewFromInt(30000)))
	assert.True(t, totals.Settlement.Equal(decimal.NewFromInt(27000)))
	// costs = 5000 fixed + 30000*0.10 = 8000
	assert.True(t, totals.Costs.Equal(decimal.NewFromInt(8000)), "costs = %s", totals.Costs)
	assert.True(t, totals.Profit.Equal(decimal.NewFromInt(19000)), "profit = %s", totals.Profit)
	assert.Len(t, totals.Trend, 2)
}

func TestDailyDetail(t *testing.T) {
	itemID := uuid.New()
	early := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	ledger := []domain.SaleRecord{
		sale(late, itemID, 1, 2000, 1800),
		sale(early, itemID, 1, 1000, 900),
		sale(at(2024, 3, 2), itemID, 1, 700, 630),
	}

	d := DailyDetail(ledger, "2024-03-01")
	require.Len(t, d.Records, 2)
	assert.True(t, d.Records[0].Timestamp.Before(d.Records[1].Timestamp))
	assert.True(t, d.Revenue.Equal(decimal.NewFromInt(3000)))
	assert.True(t, d.Settlement.Equal(decimal.NewFromInt(2700)))

	empty := DailyDetail(ledger, "2024-04-01")
	assert.Empty(t, empty.Records)
	assert.True(t, empty.Revenue.IsZero())
}
