package petoneer

import (
	"fmt"
	"strings"
)

// LEDMode is a preset for the LED ring.
type LEDMode int

const (
	LEDModeOff LEDMode = iota
	LEDModeFull
	LEDModeDimmed
)

func (m LEDMode) String() string {
	switch m {
	case LEDModeOff:
		return "off"
	case LEDModeFull:
		return "full"
	case LEDModeDimmed:
		return "dimmed"
	default:
		return fmt.Sprintf("LEDMode(%d)", int(m))
	}
}

// ParseLEDMode accepts off, full or dimmed.
func ParseLEDMode(value string) (LEDMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "off":
		return LEDModeOff, nil
	case "full", "on":
		return LEDModeFull, nil
	case "dimmed", "dim":
		return LEDModeDimmed, nil
	default:
		return 0, fmt.Errorf("unknown LED mode %q (want off|full|dimmed)", value)
	}
}

// fields returns the request fields for the preset. The dimmed preset dims
// all day; full uses an empty section so no window applies.
func (m LEDMode) fields() (map[string]any, bool) {
	switch m {
	case LEDModeOff:
		return map[string]any{"ledmode": 0, "section": [2]int{0, MaxPackedMinutes}, "led": 0}, true
	case LEDModeFull:
		return map[string]any{"ledmode": 1, "section": [2]int{0, 0}, "led": 1}, true
	case LEDModeDimmed:
		return map[string]any{"ledmode": 1, "section": [2]int{0, MaxPackedMinutes}, "led": 1}, true
	default:
		return nil, false
	}
}
