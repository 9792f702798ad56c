package petoneer

// Sentinel labels returned for codes outside the known tables.
const (
	InvalidWaterLevel = "Invalid Water Level Value!"
	InvalidTDS        = "Invalid TDS Level Provided!"
	InvalidPumpSwitch = "Invalid Pump Switch Value!"
)

const (
	ledModeForcedOn = 10
	tdsExcellentMax = 50
	tdsDrinkableMax = 100
)

// LED states.
const (
	LEDOff    = "Off"
	LEDOn     = "On"
	LEDDimmed = "Dimmed"
)

var waterLevelLabels = map[int]string{
	0: "Empty",
	1: "Low",
	2: "Adequate",
	3: "Good",
	4: "Full",
}

var waterLevelPercents = map[int]string{
	0: "0%",
	1: "25%",
	2: "50%",
	3: "75%",
	4: "100%",
}

var pumpPowerLabels = map[int]string{
	0: "Off",
	1: "On",
}

func WaterLevelLabel(code int) string {
	if label, ok := waterLevelLabels[code]; ok {
		return label
	}
	return InvalidWaterLevel
}

func WaterLevelPercent(code int) string {
	if label, ok := waterLevelPercents[code]; ok {
		return label
	}
	return InvalidWaterLevel
}

// WaterQualityLabel grades a TDS reading in ppm. Bounds are inclusive.
func WaterQualityLabel(tds int) string {
	switch {
	case tds <= 0:
		return InvalidTDS
	case tds <= tdsExcellentMax:
		return "Excellent"
	case tds <= tdsDrinkableMax:
		return "Drinkable"
	default:
		return "Undrinkable"
	}
}

func PumpPowerLabel(switchCode int) string {
	if label, ok := pumpPowerLabels[switchCode]; ok {
		return label
	}
	return InvalidPumpSwitch
}

// LEDLit reports whether the LED ring is powered. Mode 10 forces it on.
func LEDLit(led, ledMode int) bool {
	return led == 1 || ledMode == ledModeForcedOn
}

// LEDState resolves the effective LED state. section is the packed dimming
// window; pass ok=false when the device reported none.
func LEDState(led, ledMode int, section [2]int, ok bool, now TimeOfDay) string {
	if !LEDLit(led, ledMode) {
		return LEDOff
	}
	if !ok || !ledWindowApplies(section[0], section[1]) {
		return LEDOn
	}
	if DecodeWindow(section[0], section[1]).Contains(now) {
		return LEDDimmed
	}
	return LEDOn
}
