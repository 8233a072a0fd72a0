package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, msk)
}

func TestRollingWindowExpand(t *testing.T) {
	today := day(2026, 9, 1)
	dates := RollingWindow{Days: 3}.Expand(today)

	require.Len(t, dates, 3)
	assert.Equal(t, today, dates[0])
	assert.Equal(t, day(2026, 9, 3), dates[2])
}

func TestSpecificDateExpand(t *testing.T) {
	today := day(2026, 9, 1)

	assert.Equal(t, []time.Time{day(2026, 9, 5)}, SpecificDate{Date: day(2026, 9, 5)}.Expand(today))
	assert.Equal(t, []time.Time{today}, SpecificDate{Date: today}.Expand(today))
	assert.Empty(t, SpecificDate{Date: day(2026, 8, 31)}.Expand(today), "past date expands to nothing")
}

func TestPredicateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pred DatePredicate
		json string
	}{
		{"range", RollingWindow{Days: 10}, `{"type":"range","value":10}`},
		{"specific", SpecificDate{Date: day(2026, 9, 5)}, `{"type":"specific","value":"2026-09-05"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := MarshalPredicate(tt.pred)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(encoded))

			decoded, err := UnmarshalPredicate(encoded, msk)
			require.NoError(t, err)
			assert.Equal(t, tt.pred.Describe(), decoded.Describe())
			assert.Equal(t, tt.pred.Expand(day(2026, 9, 1)), decoded.Expand(day(2026, 9, 1)))
		})
	}
}

func TestUnmarshalPredicateRejectsBadInput(t *testing.T) {
	for _, raw := range []string{
		`{"type":"range","value":0}`,
		`{"type":"range","value":-5}`,
		`{"type":"specific","value":"05.09.2026"}`,
		`{"type":"weekly","value":1}`,
		`not json`,
	} {
		_, err := UnmarshalPredicate([]byte(raw), msk)
		assert.Error(t, err, "input %s", raw)
	}
}

func TestHourLabels(t *testing.T) {
	sub := Subscription{Hour: 9}
	assert.Equal(t, []string{"09:00"}, sub.HourLabels())
	assert.Equal(t, "09:00", sub.HourDescribe())

	wildcard := Subscription{Hour: AnyHour}
	labels := wildcard.HourLabels()
	require.Len(t, labels, LastHour-FirstHour+1)
	assert.Equal(t, "07:00", labels[0])
	assert.Equal(t, "23:00", labels[len(labels)-1])
	assert.Equal(t, "Любое время", wildcard.HourDescribe())
}

func TestSortedCourtTypes(t *testing.T) {
	in := []string{"б", "а"}
	out := SortedCourtTypes(in)
	assert.Equal(t, []string{"а", "б"}, out)
	assert.Equal(t, []string{"б", "а"}, in, "input stays untouched")
}
