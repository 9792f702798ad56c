package petoneer

import "time"

// Device is a fountain registered to the account.
type Device struct {
	Serial string         `json:"sn"`
	Name   string         `json:"name,omitempty"`
	Raw    map[string]any `json:"-"`
}

// Label returns the device name, or its serial when unnamed.
func (d Device) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Serial
}

// Telemetry is the raw device detail record. Keys the device did not report
// decode to zero; Section is only meaningful when HasSection is set.
// Malformed lists keys that were present but not numeric.
type Telemetry struct {
	Serial     string
	Time       int64
	Level      int
	TDS        int
	Switch     int
	LED        int
	LEDMode    int
	Section    [2]int
	HasSection bool
	FilterTime int64
	WaterTime  int64
	MotorTime  int64
	Malformed  []string
	Raw        map[string]any
}

// PumpSchedule is the pump run-hours record. A missing "time" key means no
// schedule is configured.
type PumpSchedule struct {
	Window    [2]int
	HasWindow bool
	Enabled   bool
	Raw       map[string]any
}

// WaterLevel is the classified water level.
type WaterLevel struct {
	Value   int    `json:"value"`
	Percent string `json:"percent"`
	Label   string `json:"label"`
}

// WaterQuality is the classified TDS reading.
type WaterQuality struct {
	TDS   int    `json:"tds"`
	Label string `json:"label"`
}

type WaterStatus struct {
	Level           WaterLevel    `json:"level"`
	Quality         WaterQuality  `json:"quality"`
	ChangeRequired  bool          `json:"change_required"`
	ChangeRemaining RemainingLife `json:"change_remaining"`
}

type FilterStatus struct {
	ChangeRequired  bool          `json:"change_required"`
	ChangeRemaining RemainingLife `json:"change_remaining"`
}

type PumpStatus struct {
	On                bool          `json:"on"`
	Power             string        `json:"power"`
	Scheduled         bool          `json:"scheduled"`
	Schedule          Window        `json:"schedule"`
	CleaningRequired  bool          `json:"cleaning_required"`
	CleaningRemaining RemainingLife `json:"cleaning_remaining"`
}

type LEDStatus struct {
	On        bool   `json:"on"`
	Dimmed    bool   `json:"dimmed"`
	Scheduled bool   `json:"scheduled"`
	Schedule  Window `json:"schedule"`
	State     string `json:"state"`
}

// DeviceStatus is a derived snapshot of one telemetry record. It is never
// updated in place; a refresh produces a new value.
type DeviceStatus struct {
	Serial     string       `json:"serial"`
	DeviceTime time.Time    `json:"device_time"`
	Water      WaterStatus  `json:"water"`
	Filter     FilterStatus `json:"filter"`
	Pump       PumpStatus   `json:"pump"`
	LED        LEDStatus    `json:"led"`
}
