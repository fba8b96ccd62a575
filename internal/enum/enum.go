package enum

// ── Expense rules ──

const (
	ExpenseKindFixed            = "FIXED"
	ExpenseKindPercentOfRevenue = "PERCENT_OF_REVENUE"
)

// ValidExpenseKind reports whether s is a known expense kind.
func ValidExpenseKind(s string) bool {
	return s == ExpenseKindFixed || s == ExpenseKindPercentOfRevenue
}

// ── Report granularities ──

const (
	GranularityDay   = "DAY"
	GranularityWeek  = "WEEK"
	GranularityMonth = "MONTH"
	GranularityYear  = "YEAR"
)

// ── Mutation events broadcast to attached clients ──

const (
	EventItemsChanged    = "items.changed"
	EventChannelsChanged = "channels.changed"
	EventExpensesChanged = "expenses.changed"
	EventLedgerCommitted = "ledger.committed"
	EventLedgerDeleted   = "ledger.deleted"
	EventMemoSaved       = "memo.saved"
	EventSnapshotRestore = "snapshot.restored"
)
