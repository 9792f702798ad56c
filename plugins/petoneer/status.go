package petoneer

import "time"

// Assemble derives a DeviceStatus using the local time zone for the device
// clock. schedule may be nil when the pump schedule was not fetched.
func Assemble(t Telemetry, schedule *PumpSchedule) DeviceStatus {
	return AssembleIn(time.Local, t, schedule)
}

// AssembleIn derives a DeviceStatus, reading the device clock in loc.
func AssembleIn(loc *time.Location, t Telemetry, schedule *PumpSchedule) DeviceStatus {
	if loc == nil {
		loc = time.Local
	}
	deviceTime := time.Unix(t.Time, 0).In(loc)
	now := TimeOfDayOf(deviceTime)

	water := ComputeRemainingLife(t.Time, t.WaterTime, WaterChangeInterval)
	filter := ComputeRemainingLife(t.Time, t.FilterTime, FilterChangeInterval)
	pumpClean := ComputeRemainingLife(t.Time, t.MotorTime, PumpCleanInterval)

	return DeviceStatus{
		Serial:     t.Serial,
		DeviceTime: deviceTime,
		Water: WaterStatus{
			Level: WaterLevel{
				Value:   t.Level,
				Percent: WaterLevelPercent(t.Level),
				Label:   WaterLevelLabel(t.Level),
			},
			Quality: WaterQuality{
				TDS:   t.TDS,
				Label: WaterQualityLabel(t.TDS),
			},
			ChangeRequired:  water.Due(),
			ChangeRemaining: water,
		},
		Filter: FilterStatus{
			ChangeRequired:  filter.Due(),
			ChangeRemaining: filter,
		},
		Pump: pumpStatus(t, schedule, now, pumpClean),
		LED:  ledStatus(t, now),
	}
}

func pumpStatus(t Telemetry, schedule *PumpSchedule, now TimeOfDay, cleaning RemainingLife) PumpStatus {
	status := PumpStatus{
		Power:             PumpPowerLabel(t.Switch),
		CleaningRequired:  cleaning.Due(),
		CleaningRemaining: cleaning,
	}
	if schedule != nil && schedule.HasWindow {
		status.Schedule = DecodeWindow(schedule.Window[0], schedule.Window[1])
		status.Scheduled = schedule.Enabled
	}

	switch {
	case t.Switch != 1:
		status.On = false
	case status.Scheduled:
		status.On = status.Schedule.Contains(now)
	default:
		status.On = true
	}
	return status
}

func ledStatus(t Telemetry, now TimeOfDay) LEDStatus {
	state := LEDState(t.LED, t.LEDMode, t.Section, t.HasSection, now)
	status := LEDStatus{
		On:        state != LEDOff,
		Dimmed:    state == LEDDimmed,
		Scheduled: t.HasSection,
		State:     state,
	}
	if t.HasSection {
		status.Schedule = DecodeWindow(t.Section[0], t.Section[1])
	}
	return status
}
