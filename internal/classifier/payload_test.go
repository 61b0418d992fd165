package classifier

import (
	"strings"
	"testing"

	"cloud.google.com/go/civil"
)

func TestCleanModelJSON(t *testing.T) {
	want := `{"transactions": [], "confidence": 0.5}`

	tests := []struct {
		name string
		raw  string
	}{
		{"raw JSON", want},
		{"surrounding whitespace", "\n  " + want + "  \n"},
		{"json fence", "```json\n" + want + "\n```"},
		{"bare fence", "```\n" + want + "\n```"},
		{"leading prose", "Here is the result:\n" + want},
		{"trailing prose", want + "\nLet me know if you need anything else."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, want)
			}
		})
	}
}

func TestDecodeOutput(t *testing.T) {
	raw := "```json\n" + `{
		"transactions": [{"type": "expense", "amount": 50, "category": "Office Supplies", "description": "office supplies"}],
		"followUpQuestions": ["Was this paid by card?"],
		"missingInfo": ["payment method"],
		"confidence": 0.92
	}` + "\n```"

	out, err := decodeOutput(raw)
	if err != nil {
		t.Fatalf("decodeOutput failed: %v", err)
	}

	if len(out.Transactions) != 1 {
		t.Fatalf("Transactions = %d, want 1", len(out.Transactions))
	}
	if out.Transactions[0]["type"] != "expense" {
		t.Errorf("type = %v, want expense", out.Transactions[0]["type"])
	}
	if len(out.FollowUpQuestions) != 1 || out.FollowUpQuestions[0] != "Was this paid by card?" {
		t.Errorf("FollowUpQuestions = %v", out.FollowUpQuestions)
	}
	if out.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", out.Confidence)
	}
}

func TestDecodeOutput_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not json at all", "[1, 2, 3"} {
		if _, err := decodeOutput(raw); err == nil {
			t.Errorf("decodeOutput(%q) expected error, got nil", raw)
		}
	}
}

func TestDecodeOutput_ClampsConfidence(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`{"confidence": -0.5}`, 0},
		{`{"confidence": 1.7}`, 1},
		{`{"confidence": 0.5}`, 0.5},
	}

	for _, tt := range tests {
		out, err := decodeOutput(tt.raw)
		if err != nil {
			t.Fatalf("decodeOutput(%q) failed: %v", tt.raw, err)
		}
		if out.Confidence != tt.want {
			t.Errorf("Confidence = %v, want %v", out.Confidence, tt.want)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	prompt := systemPrompt("biz-42", civil.Date{Year: 2025, Month: 6, Day: 15})

	for _, fragment := range []string{
		"biz-42",
		"2025-06-15",
		"expense",
		"income",
		"asset",
		"followUpQuestions",
		"confidence",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("Prompt missing %q", fragment)
		}
	}
}

func TestDegraded(t *testing.T) {
	out := Degraded()

	if len(out.Transactions) != 0 {
		t.Errorf("Transactions = %v, want none", out.Transactions)
	}
	if out.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", out.Confidence)
	}
	if len(out.FollowUpQuestions) != 1 || out.FollowUpQuestions[0] != RephraseQuestion {
		t.Errorf("FollowUpQuestions = %v, want the rephrase question", out.FollowUpQuestions)
	}
}
