package tracker

import (
	"errors"
	"strconv"
	"time"

	"github.com/dreamware/loctrack/internal/value"
)

// DefaultDeviceName is used when an update omits device_name or sends a
// non-text value for it.
const DefaultDeviceName = "Unknown Device"

// ErrInvalidReport is returned by NewReport when the update is not a
// mapping or lacks numeric latitude and longitude.
var ErrInvalidReport = errors.New("tracker: update must be an object with numeric latitude and longitude")

// Report is one location sample. Reports are values: the state keeps its
// own copies and never mutates one after construction.
type Report struct {
	Latitude   float64
	Longitude  float64
	Accuracy   *float64 // nil when the device did not send one
	Timestamp  string   // whole seconds since the Unix epoch, server-assigned
	DeviceName string
}

// NewReport validates an update body and stamps it with at.
// Any timestamp in the update is ignored.
func NewReport(update value.Value, at time.Time) (Report, error) {
	if _, ok := update.AsMapping(); !ok {
		return Report{}, ErrInvalidReport
	}

	lat, latOK := numberField(update, "latitude")
	lng, lngOK := numberField(update, "longitude")
	if !latOK || !lngOK {
		return Report{}, ErrInvalidReport
	}

	r := Report{
		Latitude:   lat,
		Longitude:  lng,
		Timestamp:  strconv.FormatInt(at.Unix(), 10),
		DeviceName: DefaultDeviceName,
	}
	if acc, ok := numberField(update, "accuracy"); ok {
		r.Accuracy = &acc
	}
	if name, ok := textField(update, "device_name"); ok {
		r.DeviceName = name
	}
	return r, nil
}

// clone returns a copy of r that shares no memory with it.
func (r Report) clone() Report {
	if r.Accuracy != nil {
		acc := *r.Accuracy
		r.Accuracy = &acc
	}
	return r
}

// Value renders r as a mapping. A missing accuracy becomes null.
func (r Report) Value() value.Value {
	accuracy := value.Null()
	if r.Accuracy != nil {
		accuracy = value.Number(*r.Accuracy)
	}
	return value.Mapping(map[string]value.Value{
		"latitude":    value.Number(r.Latitude),
		"longitude":   value.Number(r.Longitude),
		"accuracy":    accuracy,
		"timestamp":   value.Text(r.Timestamp),
		"device_name": value.Text(r.DeviceName),
	})
}

// ReportFromValue is the inverse of Report.Value. Unlike NewReport it
// requires timestamp and device_name, since stored entries always have them.
func ReportFromValue(v value.Value) (Report, bool) {
	lat, ok := numberField(v, "latitude")
	if !ok {
		return Report{}, false
	}
	lng, ok := numberField(v, "longitude")
	if !ok {
		return Report{}, false
	}
	ts, ok := textField(v, "timestamp")
	if !ok {
		return Report{}, false
	}
	name, ok := textField(v, "device_name")
	if !ok {
		return Report{}, false
	}

	r := Report{Latitude: lat, Longitude: lng, Timestamp: ts, DeviceName: name}
	if acc, ok := numberField(v, "accuracy"); ok {
		r.Accuracy = &acc
	}
	return r, true
}

func numberField(v value.Value, key string) (float64, bool) {
	field, ok := v.Get(key)
	if !ok {
		return 0, false
	}
	return field.AsNumber()
}

func textField(v value.Value, key string) (string, bool) {
	field, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return field.AsText()
}
