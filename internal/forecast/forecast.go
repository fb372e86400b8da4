// Package forecast projects a month-end balance from month-to-date
// spending with a plain linear model: spend so far divided by elapsed
// days, extrapolated over the rest of the month. No trend smoothing, no
// weekday seasonality. The exact formulas matter; dashboards and alerts
// are driven directly by these numbers.
package forecast

import (
	"math"

	"github.com/gilppon/kaikebu/internal/core"
)

// Severity classifies the projected month-end outcome.
type Severity string

const (
	// SeverityInsufficientData means no budget exists for the month, so
	// the projection has nothing to compare against.
	SeverityInsufficientData Severity = "insufficient-data"
	SeverityOK               Severity = "ok"
	SeverityDanger           Severity = "danger"
)

// Projection is the forecast for one (scope, month) at a point in the
// month.
type Projection struct {
	DailyAverage     float64  `json:"dailyAverage"`
	RemainingDays    int      `json:"remainingDays"`
	ProjectedTotal   float64  `json:"projectedTotal"`
	ProjectedBalance float64  `json:"projectedBalance"`
	Severity         Severity `json:"severity"`

	// DaysUntilExhausted is the number of days until the budget runs out
	// at the current pace: 0 when already exhausted, nil when the budget
	// outlasts the month or no pace can be computed.
	DaysUntilExhausted *int `json:"daysUntilExhausted,omitempty"`
}

// Project runs the linear extrapolation. dayOfMonth is 1-based; a value of
// 0 yields a zero daily average rather than a division fault, so a
// projection on an empty month is just the spend itself.
func Project(spent, budgetTotal core.Money, dayOfMonth, daysInMonth int) Projection {
	var dailyAverage float64
	if dayOfMonth > 0 {
		dailyAverage = float64(spent.Units) / float64(dayOfMonth)
	}
	remainingDays := daysInMonth - dayOfMonth
	projectedTotal := float64(spent.Units) + dailyAverage*float64(remainingDays)
	projectedBalance := float64(budgetTotal.Units) - projectedTotal

	p := Projection{
		DailyAverage:     dailyAverage,
		RemainingDays:    remainingDays,
		ProjectedTotal:   projectedTotal,
		ProjectedBalance: projectedBalance,
	}

	switch {
	case budgetTotal.Units == 0:
		p.Severity = SeverityInsufficientData
	case projectedTotal > float64(budgetTotal.Units):
		p.Severity = SeverityDanger
	default:
		p.Severity = SeverityOK
	}

	if budgetTotal.Units > 0 && dailyAverage > 0 {
		remainingBudget := budgetTotal.Units - spent.Units
		if remainingBudget <= 0 {
			zero := 0
			p.DaysUntilExhausted = &zero
		} else {
			daysLeft := float64(remainingBudget) / dailyAverage
			if daysLeft < float64(remainingDays) {
				d := int(math.Floor(daysLeft))
				p.DaysUntilExhausted = &d
			}
		}
	}

	return p
}
