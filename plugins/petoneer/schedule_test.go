package petoneer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSchedule(t *testing.T) {
	cases := []struct {
		packed int
		want   TimeOfDay
	}{
		{0, Midnight},
		{1, TimeOfDay{Minute: 1}},
		{90, TimeOfDay{Hour: 1, Minute: 30}},
		{720, TimeOfDay{Hour: 12}},
		{1439, TimeOfDay{Hour: 23, Minute: 59}},
		{1440, Midnight},
		{5000, Midnight},
		{-5, Midnight},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DecodeSchedule(tc.packed), "packed %d", tc.packed)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for packed := 0; packed <= MaxPackedMinutes; packed++ {
		require.Equal(t, packed, EncodeSchedule(DecodeSchedule(packed)))
	}
}

func TestEncodeScheduleDropsSeconds(t *testing.T) {
	assert.Equal(t, 61, EncodeSchedule(TimeOfDay{Hour: 1, Minute: 1, Second: 59}))
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("07:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7, Minute: 30}, got)

	got, err = ParseTimeOfDay("23:59:58")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59, Second: 58}, got)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("noon")
	assert.Error(t, err)
}

func TestTimeOfDayOf(t *testing.T) {
	ts := time.Date(2024, 3, 1, 18, 4, 5, 0, time.UTC)
	assert.Equal(t, TimeOfDay{Hour: 18, Minute: 4, Second: 5}, TimeOfDayOf(ts))
	assert.Equal(t, "18:04:05", TimeOfDayOf(ts).String())
}

func TestTimeOfDayValid(t *testing.T) {
	assert.True(t, TimeOfDay{Hour: 23, Minute: 59, Second: 59}.Valid())
	assert.False(t, TimeOfDay{Hour: 24}.Valid())
	assert.False(t, TimeOfDay{Minute: -1}.Valid())
}

func TestWindowContains(t *testing.T) {
	w := DecodeWindow(480, 1200) // 08:00-20:00

	assert.False(t, w.Contains(TimeOfDay{Hour: 7, Minute: 59, Second: 59}))
	assert.True(t, w.Contains(TimeOfDay{Hour: 8}), "start is inclusive")
	assert.True(t, w.Contains(TimeOfDay{Hour: 19, Minute: 59, Second: 59}))
	assert.False(t, w.Contains(TimeOfDay{Hour: 20}), "end is exclusive")
}

func TestWindowContainsReferenceValues(t *testing.T) {
	w := Window{Start: TimeOfDay{Hour: 10}, End: TimeOfDay{Hour: 14}}
	cases := []struct {
		now  TimeOfDay
		want bool
	}{
		{TimeOfDay{Hour: 12}, true},
		{TimeOfDay{Hour: 9}, false},
		{TimeOfDay{Hour: 14}, false},
		{TimeOfDay{Hour: 10}, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, w.Contains(tc.now), "now %s", tc.now)
	}
}

func TestWindowCrossingMidnightContainsNothing(t *testing.T) {
	w := DecodeWindow(1320, 360) // 22:00-06:00
	for _, now := range []TimeOfDay{{Hour: 23}, {Hour: 2}, {Hour: 12}, Midnight} {
		assert.False(t, w.Contains(now), "now %s", now)
	}
}

func TestWindowPacked(t *testing.T) {
	w := Window{Start: TimeOfDay{Hour: 6, Minute: 15}, End: TimeOfDay{Hour: 21, Minute: 45}}
	assert.Equal(t, [2]int{375, 1305}, w.Packed())
	assert.Equal(t, "06:15:00-21:45:00", w.String())
}

func TestWindowJSON(t *testing.T) {
	data, err := json.Marshal(DecodeWindow(60, 120))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"01:00:00","end":"02:00:00"}`, string(data))

	var w Window
	require.NoError(t, json.Unmarshal([]byte(`{"start":"03:00","end":"04:30:00"}`), &w))
	assert.Equal(t, [2]int{180, 270}, w.Packed())
}

func TestLEDWindowApplies(t *testing.T) {
	assert.True(t, ledWindowApplies(0, 1439))
	assert.True(t, ledWindowApplies(1320, 360))
	assert.False(t, ledWindowApplies(0, 0))
	assert.False(t, ledWindowApplies(600, 600))
	assert.False(t, ledWindowApplies(-1, 600))
	assert.False(t, ledWindowApplies(0, 1440))
}
