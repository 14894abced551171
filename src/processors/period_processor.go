package processors

import (
	"fmt"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// MaxAnchorPoints caps the number of sample dates in a time series, which
// bounds the number of external price lookups per request.
const MaxAnchorPoints = 24

// ResolveWindows turns requested month-spans into concrete date ranges
// ending at the as-of date.
func ResolveWindows(monthsSpans []int, asOf time.Time) []models.PeriodWindow {
	asOf = utils.DateOnly(asOf)
	windows := make([]models.PeriodWindow, 0, len(monthsSpans))
	for _, m := range monthsSpans {
		if m <= 0 {
			continue
		}
		windows = append(windows, models.PeriodWindow{
			Label: fmt.Sprintf("%dm", m),
			Start: asOf.AddDate(0, -m, 0).AddDate(0, 0, 1),
			End:   asOf,
		})
	}
	return windows
}

// ResolvePreset resolves a period preset into a concrete window.
// origin is the earliest transaction date across all of the user's assets;
// it is only consulted for the "origin" preset.
func ResolvePreset(preset string, asOf, origin time.Time) (models.PeriodWindow, error) {
	asOf = utils.DateOnly(asOf)
	switch preset {
	case "mtd":
		return models.PeriodWindow{
			Label: "mtd",
			Start: time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC),
			End:   asOf,
		}, nil
	case "ytd":
		return models.PeriodWindow{
			Label: "ytd",
			Start: utils.FirstBusinessDayOfYear(asOf),
			End:   asOf,
		}, nil
	case "12m":
		return models.PeriodWindow{
			Label: "12m",
			Start: asOf.AddDate(0, -12, 0).AddDate(0, 0, 1),
			End:   asOf,
		}, nil
	case "origin":
		start := utils.DateOnly(origin)
		if start.IsZero() || start.After(asOf) {
			start = asOf
		}
		return models.PeriodWindow{Label: "origin", Start: start, End: asOf}, nil
	default:
		return models.PeriodWindow{}, fmt.Errorf("unknown period preset %q", preset)
	}
}

// AnchorDates samples a window at up to maxPoints dates. Both ends are
// always included; intermediate anchors are evenly spaced in days.
func AnchorDates(start, end time.Time, maxPoints int) []time.Time {
	start = utils.DateOnly(start)
	end = utils.DateOnly(end)
	if maxPoints < 2 {
		maxPoints = 2
	}
	if !start.Before(end) {
		return []time.Time{end}
	}

	totalDays := utils.DaysBetween(start, end)
	if totalDays <= maxPoints-1 {
		anchors := make([]time.Time, 0, totalDays+1)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			anchors = append(anchors, d)
		}
		return anchors
	}

	step := totalDays / (maxPoints - 1)
	if totalDays%(maxPoints-1) != 0 {
		step++
	}
	anchors := []time.Time{start}
	for d := start.AddDate(0, 0, step); d.Before(end); d = d.AddDate(0, 0, step) {
		anchors = append(anchors, d)
	}
	return append(anchors, end)
}
