package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWindows(t *testing.T) {
	asOf := day("2025-06-15")

	windows := ResolveWindows([]int{1, 12}, asOf)

	require.Len(t, windows, 2)
	assert.Equal(t, "1m", windows[0].Label)
	assert.Equal(t, day("2025-05-16"), windows[0].Start)
	assert.Equal(t, asOf, windows[0].End)
	assert.Equal(t, day("2024-06-16"), windows[1].Start)
}

func TestResolveWindows_IgnoresNonPositiveSpans(t *testing.T) {
	windows := ResolveWindows([]int{0, -3, 6}, day("2025-06-15"))
	require.Len(t, windows, 1)
	assert.Equal(t, "6m", windows[0].Label)
}

func TestResolvePreset(t *testing.T) {
	asOf := day("2025-06-15")
	origin := day("2023-02-10")

	testCases := []struct {
		preset    string
		wantStart time.Time
	}{
		{"mtd", day("2025-06-01")},
		{"ytd", day("2025-01-01")}, // 2025-01-01 is a Wednesday
		{"12m", day("2024-06-16")},
		{"origin", origin},
	}

	for _, tc := range testCases {
		t.Run(tc.preset, func(t *testing.T) {
			w, err := ResolvePreset(tc.preset, asOf, origin)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStart, w.Start)
			assert.Equal(t, asOf, w.End)
		})
	}
}

func TestResolvePreset_YTDSkipsWeekend(t *testing.T) {
	// 2022-01-01 was a Saturday; the first business day is Monday the 3rd.
	w, err := ResolvePreset("ytd", day("2022-06-15"), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, day("2022-01-03"), w.Start)
}

func TestResolvePreset_OriginWithoutTransactions(t *testing.T) {
	asOf := day("2025-06-15")
	w, err := ResolvePreset("origin", asOf, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, asOf, w.Start)
}

func TestResolvePreset_Unknown(t *testing.T) {
	_, err := ResolvePreset("5y", day("2025-06-15"), time.Time{})
	assert.Error(t, err)
}

func TestAnchorDates_ShortWindowIsDaily(t *testing.T) {
	anchors := AnchorDates(day("2025-01-01"), day("2025-01-10"), MaxAnchorPoints)

	require.Len(t, anchors, 10)
	assert.Equal(t, day("2025-01-01"), anchors[0])
	assert.Equal(t, day("2025-01-10"), anchors[len(anchors)-1])
}

func TestAnchorDates_LongWindowIsCapped(t *testing.T) {
	anchors := AnchorDates(day("2020-01-01"), day("2025-01-01"), MaxAnchorPoints)

	assert.LessOrEqual(t, len(anchors), MaxAnchorPoints)
	assert.GreaterOrEqual(t, len(anchors), 2)
	assert.Equal(t, day("2020-01-01"), anchors[0])
	assert.Equal(t, day("2025-01-01"), anchors[len(anchors)-1])

	for i := 1; i < len(anchors); i++ {
		assert.True(t, anchors[i].After(anchors[i-1]), "anchors must be strictly increasing")
	}
}

func TestAnchorDates_DegenerateWindow(t *testing.T) {
	anchors := AnchorDates(day("2025-01-01"), day("2025-01-01"), MaxAnchorPoints)
	require.Len(t, anchors, 1)
	assert.Equal(t, day("2025-01-01"), anchors[0])
}
