package petoneer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTelemetry decodes a device detail record.
func ParseTelemetry(data []byte) (Telemetry, error) {
	record, err := decodeRecord(data)
	if err != nil {
		return Telemetry{}, fmt.Errorf("decode telemetry: %w", err)
	}
	return TelemetryFromRecord(record), nil
}

// invalidCode replaces a classified reading that was present but not a
// number, so it maps to the invalid label instead of a real one.
const invalidCode = -1

// TelemetryFromRecord reads the known keys out of an untyped record.
// Absent values read as zero. Level, TDS and switch values that are present
// but not numeric read as -1 and are listed in Malformed; other malformed
// values read as zero and are listed too.
func TelemetryFromRecord(record map[string]any) Telemetry {
	r := fieldReader{record: record}
	t := Telemetry{
		Serial:     stringField(record, "sn"),
		Time:       r.readInt64("time", 0),
		Level:      r.readInt("level", invalidCode),
		TDS:        r.readInt("tds", invalidCode),
		Switch:     r.readInt("switch", invalidCode),
		LED:        r.readInt("led", 0),
		LEDMode:    r.readInt("ledmode", 0),
		FilterTime: r.readInt64("filtertime", 0),
		WaterTime:  r.readInt64("watertime", 0),
		MotorTime:  r.readInt64("motortime", 0),
		Raw:        record,
	}
	t.Section, t.HasSection = pairField(record, "section")
	t.Malformed = r.malformed
	return t
}

// fieldReader reads numeric keys and remembers the ones it could not parse.
type fieldReader struct {
	record    map[string]any
	malformed []string
}

func (r *fieldReader) readInt64(key string, onMalformed int64) int64 {
	value, present := r.record[key]
	if !present || value == nil {
		return 0
	}
	n, ok := toInt64(value)
	if !ok {
		r.malformed = append(r.malformed, key)
		return onMalformed
	}
	return n
}

func (r *fieldReader) readInt(key string, onMalformed int) int {
	return int(r.readInt64(key, int64(onMalformed)))
}

// ParsePumpSchedule decodes a pump schedule record.
func ParsePumpSchedule(data []byte) (PumpSchedule, error) {
	record, err := decodeRecord(data)
	if err != nil {
		return PumpSchedule{}, fmt.Errorf("decode pump schedule: %w", err)
	}
	return PumpScheduleFromRecord(record), nil
}

func PumpScheduleFromRecord(record map[string]any) PumpSchedule {
	s := PumpSchedule{
		Enabled: intField(record, "en") == 1,
		Raw:     record,
	}
	s.Window, s.HasWindow = pairField(record, "time")
	return s
}

func decodeRecord(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	if record == nil {
		record = map[string]any{}
	}
	return record, nil
}

func stringField(record map[string]any, key string) string {
	switch v := record[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func intField(record map[string]any, key string) int {
	value, _ := toInt64(record[key])
	return int(value)
}

func pairField(record map[string]any, key string) ([2]int, bool) {
	items, ok := record[key].([]any)
	if !ok || len(items) < 2 {
		return [2]int{}, false
	}
	start, ok := toInt64(items[0])
	if !ok {
		return [2]int{}, false
	}
	end, ok := toInt64(items[1])
	if !ok {
		return [2]int{}, false
	}
	return [2]int{int(start), int(end)}, true
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int64(math.Trunc(f)), true
	case float64:
		return int64(math.Trunc(v)), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
