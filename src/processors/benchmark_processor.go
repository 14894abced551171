package processors

import (
	"math"
	"sort"
	"time"

	"github.com/techhub5500/Yield-sub002/src/models"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// MonthlyReturnTable indexes monthly percentage returns by year and month.
// This is the raw shape of the CDI and Ibovespa series.
type MonthlyReturnTable map[int]map[time.Month]float64

// RateEpisode is one entry of a variable-rate history (Selic): an annual
// rate valid from Date until superseded by the next episode.
type RateEpisode struct {
	Date          time.Time
	AnnualRatePct float64
}

// PriceMap maps ISO dates (YYYY-MM-DD) to daily close prices.
type PriceMap map[string]float64

// CompoundMonthlyTable builds a cumulative-return series over the anchors
// by geometrically compounding the monthly percentages from the first
// anchor's month through each anchor's month. Months missing from the
// table compound as zero.
func CompoundMonthlyTable(table MonthlyReturnTable, anchors []time.Time) models.Series {
	series := make(models.Series, 0, len(anchors))
	if len(anchors) == 0 {
		return series
	}
	startYear, startMonth := utils.MonthKey(anchors[0])
	for _, anchor := range anchors {
		factor := 1.0
		y, m := startYear, startMonth
		for {
			if pct, ok := table[y][m]; ok {
				factor *= 1 + pct/100
			}
			ay, am := utils.MonthKey(anchor)
			if y == ay && m == am {
				break
			}
			m++
			if m > time.December {
				m = time.January
				y++
			}
		}
		series = append(series, models.SeriesPoint{
			Date:              anchor,
			CumulativePercent: (factor - 1) * 100,
		})
	}
	return series
}

// CompoundEpisodicRate builds a cumulative-return series from a variable
// annual-rate history. Each episode's rate applies from its date until the
// next episode; within a sub-interval the return compounds as
// (1+annual/100)^(days/365).
func CompoundEpisodicRate(episodes []RateEpisode, anchors []time.Time) models.Series {
	series := make(models.Series, 0, len(anchors))
	if len(anchors) == 0 {
		return series
	}
	sorted := make([]RateEpisode, len(episodes))
	copy(sorted, episodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	start := utils.DateOnly(anchors[0])
	for _, anchor := range anchors {
		series = append(series, models.SeriesPoint{
			Date:              anchor,
			CumulativePercent: (episodicFactor(sorted, start, utils.DateOnly(anchor)) - 1) * 100,
		})
	}
	return series
}

func episodicFactor(episodes []RateEpisode, start, end time.Time) float64 {
	if !start.Before(end) || len(episodes) == 0 {
		return 1
	}
	factor := 1.0
	cursor := start
	for cursor.Before(end) {
		rate, nextChange := rateAt(episodes, cursor)
		segmentEnd := end
		if nextChange != nil && nextChange.Before(end) {
			segmentEnd = *nextChange
		}
		days := float64(utils.DaysBetween(cursor, segmentEnd))
		factor *= math.Pow(1+rate/100, days/365)
		cursor = segmentEnd
	}
	return factor
}

// rateAt returns the annual rate effective on a date and the date of the
// next rate change, if any. Dates before the first episode carry the first
// episode's rate.
func rateAt(episodes []RateEpisode, on time.Time) (float64, *time.Time) {
	rate := episodes[0].AnnualRatePct
	for i := range episodes {
		if episodes[i].Date.After(on) {
			next := episodes[i].Date
			return rate, &next
		}
		rate = episodes[i].AnnualRatePct
	}
	return rate, nil
}

// PriceRatioSeries builds a cumulative-return series as the plain ratio of
// each anchor's price to the first anchor's price, using weekend-adjusted
// nearest-price lookup.
func PriceRatioSeries(history PriceMap, anchors []time.Time) models.Series {
	series := make(models.Series, 0, len(anchors))
	if len(anchors) == 0 {
		return series
	}
	base, ok := NearestPrice(history, anchors[0])
	if !ok || base <= 0 {
		return FlatSeries(anchors)
	}
	for _, anchor := range anchors {
		price, ok := NearestPrice(history, anchor)
		pct := 0.0
		if ok && price > 0 {
			pct = (price/base - 1) * 100
		}
		series = append(series, models.SeriesPoint{Date: anchor, CumulativePercent: pct})
	}
	return series
}

// FlatSeries is the degraded fallback when benchmark data cannot be
// fetched: a zero series over the same anchors, so the widget still renders.
func FlatSeries(anchors []time.Time) models.Series {
	series := make(models.Series, 0, len(anchors))
	for _, anchor := range anchors {
		series = append(series, models.SeriesPoint{Date: anchor})
	}
	return series
}

// NearestPrice finds the closing price for a date, adjusting weekends
// (Saturday to the prior Friday, Sunday to the next Monday) and then
// scanning backwards up to a week for the nearest earlier trading day.
func NearestPrice(history PriceMap, on time.Time) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}
	day := utils.AdjustWeekend(utils.DateOnly(on))
	for i := 0; i <= 7; i++ {
		key := day.AddDate(0, 0, -i).Format(utils.ISODateFormat)
		if price, ok := history[key]; ok && price > 0 {
			return price, true
		}
	}
	return 0, false
}
