// Package summary reduces transaction records into the totals and month
// buckets shown on the dashboard and embedded into prediction prompts.
//
// Aggregation is a pure, synchronous reduction with no error conditions:
// the empty input yields zero totals and an empty breakdown, and reordering
// the input never changes the result.
package summary

import (
	"math"
	"sort"
)

// Record is the lightweight wire shape a transaction takes on the summary and
// prediction paths. Extra fields on the inbound JSON are ignored.
type Record struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"` // YYYY-MM-DD
}

// MonthTotals accumulates income and expenses for one calendar month.
type MonthTotals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// Summary holds the derived aggregates for a set of transaction records.
type Summary struct {
	TotalIncome   float64                `json:"total_income"`
	TotalExpenses float64                `json:"total_expenses"`
	Balance       float64                `json:"balance"`
	Monthly       map[string]MonthTotals `json:"monthly"`
}

// Aggregate reduces records into totals and a month-keyed breakdown. Month
// keys are the first 7 characters of the date (YYYY-MM).
//
// Malformed input never panics: records whose date is shorter than 7
// characters are skipped, and NaN or infinite amounts contribute 0.
func Aggregate(records []Record) Summary {
	s := Summary{Monthly: make(map[string]MonthTotals)}

	for _, r := range records {
		if len(r.Date) < 7 {
			continue
		}

		amount := r.Amount
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			amount = 0
		}

		month := r.Date[:7]
		mt := s.Monthly[month]
		if r.Type == "income" {
			s.TotalIncome += amount
			mt.Income += amount
		} else {
			s.TotalExpenses += amount
			mt.Expenses += amount
		}
		s.Monthly[month] = mt
	}

	s.Balance = s.TotalIncome - s.TotalExpenses
	return s
}

// SortedMonths returns the breakdown's month keys in lexicographic order,
// which for YYYY-MM keys coincides with chronological order.
func SortedMonths(monthly map[string]MonthTotals) []string {
	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}
