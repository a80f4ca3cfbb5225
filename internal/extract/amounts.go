package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// amountPattern matches monetary figures with an optional currency prefix,
// thousands separators, and decimals: "£1,200", "600", "250.50".
var amountPattern = regexp.MustCompile(`(?:£|\$|€)?\s*(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`)

// AmountsExtractor pulls monthly paying and affordable amounts out of an
// utterance. The two-number convention follows the natural phrasing of the
// question ("how much are you paying, and how much could you afford"): the
// first figure is the paying amount, the second the affordable amount. A lone
// figure is disambiguated by nearby wording and accumulated across turns via
// the slots already held in the conversation state.
type AmountsExtractor struct{}

// Extract implements Extractor.
func (e *AmountsExtractor) Extract(utterance string, ctx Context) Result {
	amounts := parseAmounts(utterance)
	if len(amounts) == 0 {
		return Result{}
	}

	var slots models.Slots
	switch {
	case len(amounts) >= 2:
		slots.PayingAmount = amounts[0]
		slots.HasPaying = true
		slots.AffordableAmount = amounts[1]
		slots.HasAffordable = true
	default:
		lower := strings.ToLower(utterance)
		switch {
		case strings.Contains(lower, "afford"):
			slots.AffordableAmount = amounts[0]
			slots.HasAffordable = true
		case strings.Contains(lower, "pay"):
			slots.PayingAmount = amounts[0]
			slots.HasPaying = true
		case !ctx.Current.HasPaying:
			slots.PayingAmount = amounts[0]
			slots.HasPaying = true
		default:
			slots.AffordableAmount = amounts[0]
			slots.HasAffordable = true
		}
	}

	merged := ctx.Current.Merge(slots)
	satisfied := merged.HasPaying && merged.HasAffordable
	hint := ""
	if !satisfied {
		if merged.HasPaying {
			hint = "Thanks. And roughly how much could you afford to pay each month?"
		} else {
			hint = "Got it. And how much are you currently paying each month?"
		}
	}
	return Result{Satisfied: satisfied, Slots: slots, Hint: hint}
}

func parseAmounts(text string) []float64 {
	matches := amountPattern.FindAllStringSubmatch(text, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		raw := strings.ReplaceAll(m[0], ",", "")
		raw = strings.TrimLeft(raw, "£$€ \t")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
