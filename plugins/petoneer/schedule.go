package petoneer

import (
	"fmt"
	"time"
)

const (
	minutesPerDay = 24 * 60
	// MaxPackedMinutes is the last valid packed schedule value (23:59).
	MaxPackedMinutes = minutesPerDay - 1
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Midnight is 00:00:00. The fountain also uses it for "no schedule".
var Midnight = TimeOfDay{}

// TimeOfDayOf returns the wall-clock part of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q (want HH:MM)", value)
}

// Valid reports whether t is a real wall-clock time.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 &&
		t.Minute >= 0 && t.Minute <= 59 &&
		t.Second >= 0 && t.Second <= 59
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.seconds() < other.seconds()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DecodeSchedule converts packed minutes-since-midnight into a TimeOfDay.
// Zero and out-of-range values both decode to Midnight; callers that need to
// tell "midnight" from "unset" must look at the enable flag or key presence.
func DecodeSchedule(packed int) TimeOfDay {
	if packed == 0 {
		return Midnight
	}
	hours := floorDiv(packed, 60)
	minutes := packed - hours*60
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return Midnight
	}
	return TimeOfDay{Hour: hours, Minute: minutes}
}

// EncodeSchedule packs t into minutes since midnight. Seconds are dropped.
func EncodeSchedule(t TimeOfDay) int {
	return t.Hour*60 + t.Minute
}

// ValidPacked reports whether packed lies in [0, MaxPackedMinutes].
func ValidPacked(packed int) bool {
	return packed >= 0 && packed <= MaxPackedMinutes
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Window is a daily start/end pair such as the LED dimming hours or the pump
// run hours.
type Window struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// DecodeWindow builds a Window from a packed start/end pair.
func DecodeWindow(start, end int) Window {
	return Window{Start: DecodeSchedule(start), End: DecodeSchedule(end)}
}

// Packed returns the window as the vendor's [start, end] pair.
func (w Window) Packed() [2]int {
	return [2]int{EncodeSchedule(w.Start), EncodeSchedule(w.End)}
}

// Contains reports start <= now < end. Windows crossing midnight
// (start after end) are not supported and never contain anything.
func (w Window) Contains(now TimeOfDay) bool {
	return !now.Before(w.Start) && now.Before(w.End)
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// ledWindowApplies reports whether a packed LED dimming section describes a
// usable window. Equal endpoints mean "no dimming".
func ledWindowApplies(start, end int) bool {
	return start != end && ValidPacked(start) && ValidPacked(end)
}
