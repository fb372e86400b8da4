// Package advice maps a forecast outcome and a user's tone preference to a
// message-selection key. The message bodies live in an external catalog;
// this package only decides which entry to show.
package advice

import (
	"fmt"

	"github.com/gilppon/kaikebu/internal/core"
	"github.com/gilppon/kaikebu/internal/forecast"
)

// Key identifies one message in the catalog, e.g.
// "friendly.danger.exhausted" or "strict.util.over".
type Key string

// SelectKey picks the message key for a forecast result. The exhaustion
// variants only apply under danger: "exhausted" when the budget is already
// gone, "countdown" when it will run out before month end.
func SelectKey(tone core.Tone, severity forecast.Severity, daysUntilExhausted *int) Key {
	if !tone.Valid() {
		tone = core.Friendly
	}

	suffix := string(severity)
	if severity == forecast.SeverityDanger && daysUntilExhausted != nil {
		if *daysUntilExhausted == 0 {
			suffix = "danger.exhausted"
		} else {
			suffix = "danger.countdown"
		}
	}
	return Key(fmt.Sprintf("%s.%s", tone, suffix))
}

// UtilizationKey picks the message key for the budget-status card, tiered
// on percentage of budget spent. The tiers mirror the display thresholds:
// comfortable below 50, cruising below 80, warning below 100, over at and
// beyond 100.
func UtilizationKey(tone core.Tone, percent float64) Key {
	if !tone.Valid() {
		tone = core.Friendly
	}

	var tier string
	switch {
	case percent < 50:
		tier = "low"
	case percent < 80:
		tier = "mid"
	case percent < 100:
		tier = "high"
	default:
		tier = "over"
	}
	return Key(fmt.Sprintf("%s.util.%s", tone, tier))
}
