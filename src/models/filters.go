package models

import (
	"fmt"
	"time"
)

// QueryFilters narrows the data a metric handler operates on. All fields
// are optional; zero values mean "no restriction".
type QueryFilters struct {
	Currencies    []string     `json:"currencies,omitempty"`
	AssetClasses  []AssetClass `json:"asset_classes,omitempty"`
	Statuses      []string     `json:"statuses,omitempty"`
	AccountIDs    []string     `json:"account_ids,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	PeriodsMonths []int        `json:"periods_months,omitempty"`
	PeriodPreset  string       `json:"period_preset,omitempty"`
	GroupBy       string       `json:"group_by,omitempty"`
	AsOf          string       `json:"as_of,omitempty"`
}

// Validate checks filter shapes. Unknown asset classes, non-positive month
// spans and malformed as-of dates are hard errors (the only kind of request
// failure the query surface produces).
func (f *QueryFilters) Validate() error {
	for _, c := range f.AssetClasses {
		if !ValidAssetClass(c) {
			return fmt.Errorf("unknown asset class %q", c)
		}
	}
	for _, m := range f.PeriodsMonths {
		if m <= 0 {
			return fmt.Errorf("periods_months entries must be positive, got %d", m)
		}
	}
	switch f.PeriodPreset {
	case "", "mtd", "ytd", "12m", "origin":
	default:
		return fmt.Errorf("unknown period preset %q", f.PeriodPreset)
	}
	if f.AsOf != "" {
		if _, err := time.Parse("2006-01-02", f.AsOf); err != nil {
			return fmt.Errorf("as_of must be an ISO date (YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

// ResolveAsOf returns the explicit as-of date or now() truncated to a day.
func (f *QueryFilters) ResolveAsOf(now time.Time) time.Time {
	if f.AsOf != "" {
		if d, err := time.Parse("2006-01-02", f.AsOf); err == nil {
			return d
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// MatchAsset reports whether an asset passes the list filters.
func (f *QueryFilters) MatchAsset(a *Asset) bool {
	if len(f.Currencies) > 0 && !containsString(f.Currencies, a.Currency) {
		return false
	}
	if len(f.Statuses) > 0 && !containsString(f.Statuses, a.Status) {
		return false
	}
	if len(f.AccountIDs) > 0 && !containsString(f.AccountIDs, a.AccountID) {
		return false
	}
	if len(f.AssetClasses) > 0 {
		found := false
		for _, c := range f.AssetClasses {
			if c == a.AssetClass {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			if containsString(a.Tags, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
