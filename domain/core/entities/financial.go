package entities

// FinancialType is the direction of a money movement mentioned in a diary.
type FinancialType string

const (
	FinancialIncome  FinancialType = "income"
	FinancialExpense FinancialType = "expense"
)

// FinancialItem is one income or expense extracted from a diary summary.
type FinancialItem struct {
	Type   FinancialType `json:"type"`
	Label  string        `json:"label"`
	Amount float64       `json:"amount"`
}

// FinancialTotals aggregates a list of financial items.
type FinancialTotals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// Totals sums income and expense; unknown types are ignored.
func Totals(items []FinancialItem) FinancialTotals {
	var t FinancialTotals
	for _, it := range items {
		switch it.Type {
		case FinancialIncome:
			t.Income += it.Amount
		case FinancialExpense:
			t.Expense += it.Amount
		}
	}
	t.Net = t.Income - t.Expense
	return t
}
