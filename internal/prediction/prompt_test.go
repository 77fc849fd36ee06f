package prediction

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"finview/internal/summary"
)

func zerologNop() zerolog.Logger {
	return zerolog.Nop()
}

func TestBuildUserPrompt(t *testing.T) {
	s := summary.Aggregate([]summary.Record{
		{Type: "income", Amount: 1000, Date: "2024-01-15"},
		{Type: "expense", Amount: 400, Date: "2024-01-20"},
		{Type: "expense", Amount: 200, Date: "2024-02-01"},
	})

	got := buildUserPrompt(s, 3)

	for _, want := range []string{
		"- Total Income: $1000.00",
		"- Total Expenses: $600.00",
		"- Current Balance: $400.00",
		"- Number of Transactions: 3",
		"2024-01: Income $1000.00, Expenses $400.00",
		"2024-02: Income $0.00, Expenses $200.00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("user prompt missing %q\nprompt:\n%s", want, got)
		}
	}

	// Month lines come in chronological order.
	if strings.Index(got, "2024-01:") > strings.Index(got, "2024-02:") {
		t.Error("month lines are not in chronological order")
	}
}

func TestSystemPromptShape(t *testing.T) {
	if !strings.Contains(systemPrompt, "financial advisor") {
		t.Error("system prompt lost its advisor framing")
	}
	if !strings.Contains(systemPrompt, "3-6 months") {
		t.Error("system prompt lost the 3-6 month outlook")
	}
	if !strings.Contains(systemPrompt, "2-3 paragraphs") {
		t.Error("system prompt lost the length constraint")
	}
}
