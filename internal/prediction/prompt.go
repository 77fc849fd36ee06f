package prediction

import (
	"fmt"
	"strings"

	"finview/internal/summary"
)

// systemPrompt is the fixed instruction sent as the system turn of every
// prediction request.
const systemPrompt = `You are a financial advisor AI. Analyze the user's transaction history and provide insights about their spending patterns, income trends, and predictions for the next 3-6 months. Be specific, actionable, and encouraging. Focus on:
1. Current financial health
2. Spending patterns and trends
3. Income stability
4. Predicted future income and expenses
5. Recommendations for improvement

Keep the response concise (2-3 paragraphs) and easy to understand.`

// buildUserPrompt renders the aggregates into the user turn: totals, the
// transaction count, and one line per month in chronological order.
func buildUserPrompt(s summary.Summary, count int) string {
	var b strings.Builder

	b.WriteString("Here is my financial data:\n")
	fmt.Fprintf(&b, "- Total Income: $%.2f\n", s.TotalIncome)
	fmt.Fprintf(&b, "- Total Expenses: $%.2f\n", s.TotalExpenses)
	fmt.Fprintf(&b, "- Current Balance: $%.2f\n", s.Balance)
	fmt.Fprintf(&b, "- Number of Transactions: %d\n", count)

	b.WriteString("\nMonthly breakdown:\n")
	for _, month := range summary.SortedMonths(s.Monthly) {
		mt := s.Monthly[month]
		fmt.Fprintf(&b, "%s: Income $%.2f, Expenses $%.2f\n", month, mt.Income, mt.Expenses)
	}

	b.WriteString("\nPlease analyze my financial situation and provide predictions for the next 3-6 months.")
	return b.String()
}
