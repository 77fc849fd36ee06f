package domain

import (
	"errors"
	"math"
	"strings"

	"cloud.google.com/go/civil"
)

// TransactionType fixes the sign a transaction contributes when aggregating:
// income adds to the balance, expense subtracts from it.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Categories allowed per transaction type. The entry form constrains the
// choice; the datastore does not re-check membership.
var (
	IncomeCategories  = []string{"Salary", "Freelance", "Investment", "Business", "Other Income"}
	ExpenseCategories = []string{"Food", "Transport", "Housing", "Entertainment", "Healthcare", "Shopping", "Other Expense"}
)

var (
	ErrInvalidType     = errors.New("type must be \"income\" or \"expense\"")
	ErrInvalidAmount   = errors.New("amount must be a non-negative number")
	ErrInvalidCategory = errors.New("category is not allowed for this transaction type")
	ErrInvalidDate     = errors.New("date must be a valid calendar date")
)

// Transaction is a single dated income or expense record owned by one user.
// ID is assigned by the datastore at creation and is immutable afterwards;
// every other field is replaceable via update.
type Transaction struct {
	ID          string
	UserID      string
	Amount      float64
	Type        TransactionType
	Category    string
	Date        civil.Date
	Description string
}

// Valid reports whether t is one of the two known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// CategoriesFor returns the allowed category set for the given type, or nil
// for an unknown type.
func CategoriesFor(t TransactionType) []string {
	switch t {
	case TypeIncome:
		return IncomeCategories
	case TypeExpense:
		return ExpenseCategories
	default:
		return nil
	}
}

// Validate checks the entry-time invariants: a known type, a non-negative
// finite amount, a category from the type's allowed set and a valid date.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount < 0 || math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	category := strings.TrimSpace(t.Category)
	if category == "" {
		return ErrInvalidCategory
	}
	allowed := false
	for _, c := range CategoriesFor(t.Type) {
		if c == category {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidCategory
	}
	if !t.Date.IsValid() {
		return ErrInvalidDate
	}
	return nil
}
