package petoneer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaterLevelLabels(t *testing.T) {
	cases := []struct {
		code    int
		label   string
		percent string
	}{
		{0, "Empty", "0%"},
		{1, "Low", "25%"},
		{2, "Adequate", "50%"},
		{3, "Good", "75%"},
		{4, "Full", "100%"},
		{5, InvalidWaterLevel, InvalidWaterLevel},
		{-1, InvalidWaterLevel, InvalidWaterLevel},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, WaterLevelLabel(tc.code), "code %d", tc.code)
		assert.Equal(t, tc.percent, WaterLevelPercent(tc.code), "code %d", tc.code)
	}
}

func TestWaterQualityLabel(t *testing.T) {
	cases := map[int]string{
		-3:  InvalidTDS,
		0:   InvalidTDS,
		1:   "Excellent",
		50:  "Excellent",
		51:  "Drinkable",
		100: "Drinkable",
		101: "Undrinkable",
		900: "Undrinkable",
	}
	for tds, want := range cases {
		assert.Equal(t, want, WaterQualityLabel(tds), "tds %d", tds)
	}
}

func TestPumpPowerLabel(t *testing.T) {
	assert.Equal(t, "Off", PumpPowerLabel(0))
	assert.Equal(t, "On", PumpPowerLabel(1))
	assert.Equal(t, InvalidPumpSwitch, PumpPowerLabel(2))
}

func TestLEDState(t *testing.T) {
	noon := TimeOfDay{Hour: 12}
	allDay := [2]int{0, MaxPackedMinutes}

	cases := []struct {
		name    string
		led     int
		ledMode int
		section [2]int
		ok      bool
		want    string
	}{
		{"off", 0, 1, allDay, true, LEDOff},
		{"off ignores window", 0, 0, [2]int{0, 1439}, true, LEDOff},
		{"lit inside window", 1, 1, allDay, true, LEDDimmed},
		{"mode 10 forces on", 0, 10, allDay, true, LEDDimmed},
		{"mode 10 without window", 0, 10, [2]int{}, false, LEDOn},
		{"outside window", 1, 1, [2]int{1200, 1380}, true, LEDOn},
		{"equal endpoints", 1, 1, [2]int{600, 600}, true, LEDOn},
		{"out of range endpoint", 1, 1, [2]int{0, 2000}, true, LEDOn},
		{"no section", 1, 1, [2]int{}, false, LEDOn},
		{"crossing midnight", 1, 1, [2]int{1320, 360}, true, LEDOn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LEDState(tc.led, tc.ledMode, tc.section, tc.ok, noon))
		})
	}
}

func TestLEDStateWindowEdges(t *testing.T) {
	section := [2]int{600, 720} // 10:00-12:00
	assert.Equal(t, LEDDimmed, LEDState(1, 1, section, true, TimeOfDay{Hour: 10}))
	assert.Equal(t, LEDOn, LEDState(1, 1, section, true, TimeOfDay{Hour: 12}))
}
