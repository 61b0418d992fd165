package extraction

import (
	"fmt"
	"strings"

	"github.com/dvloznov/bizledger/internal/domain"
)

// composeSummary renders the outcome as the natural-language reply shown to
// the user. Raw error detail never appears here; it is logged instead.
func composeSummary(o *Outcome) string {
	var b strings.Builder

	if o.PersistedCount > 0 {
		plural := ""
		if o.PersistedCount > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "I've successfully saved %d transaction%s to your business records:\n\n",
			o.PersistedCount, plural)

		for i, rec := range o.PersistedRecords {
			fmt.Fprintf(&b, "%d. %s: $%s for %s\n",
				i+1, kindLabel(rec.Kind()), rec.Money().StringFixed(2), rec.Label())
		}

		if len(o.FollowUpQuestions) > 0 {
			b.WriteString("\nI have a few questions to help categorize this better:\n")
			for i, q := range o.FollowUpQuestions {
				fmt.Fprintf(&b, "%d. %s\n", i+1, q)
			}
		}
	} else {
		b.WriteString("I wasn't able to save any transactions. " +
			"Could you provide more details about the transaction, such as the amount and what it was for?")
		if len(o.FollowUpQuestions) > 0 {
			b.WriteString("\n")
			for i, q := range o.FollowUpQuestions {
				fmt.Fprintf(&b, "\n%d. %s", i+1, q)
			}
		}
	}

	if o.Confidence < ConfidenceThreshold {
		b.WriteString("\n\nI wasn't completely confident about this categorization. " +
			"You can edit or verify these transactions in your dashboard.")
	}

	return b.String()
}

func kindLabel(k domain.Kind) string {
	switch k {
	case domain.KindExpense:
		return "Expense"
	case domain.KindIncome:
		return "Income"
	default:
		return "Asset"
	}
}
