package models

// BillLineItem is one row of a bill.
// It is derived from FeeData and the class baseline on every render.
type BillLineItem struct {
	// Label is the row description, e.g. "Books & Other Charges".
	Label string `json:"label"`

	// Amount is the current (possibly reduced) value of the group.
	Amount float64 `json:"amount"`

	// OriginalAmount is the baseline value of the same group.
	OriginalAmount float64 `json:"originalAmount"`
}

// Due is the part of the baseline not covered by Amount, never negative.
func (i BillLineItem) Due() float64 {
	if d := i.OriginalAmount - i.Amount; d > 0 {
		return d
	}
	return 0
}

// Summary is the aggregated bill: grouped line items plus totals.
type Summary struct {
	Items []BillLineItem `json:"items"`

	// Total is the sum of item amounts.
	Total float64 `json:"total"`

	// TotalBaseline is the sum of item original amounts.
	TotalBaseline float64 `json:"totalBaseline"`

	// Due is max(0, TotalBaseline - Total): the outstanding balance.
	Due float64 `json:"due"`
}

// HasDue reports whether an outstanding balance should be shown.
func (s Summary) HasDue() bool {
	return s.Due > 0
}
