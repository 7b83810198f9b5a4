package openstack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimestamp is returned for timestamps in none of the known layouts.
var ErrInvalidTimestamp = errors.New("unrecognized timestamp")

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Time is a timestamp as emitted by OpenStack services, which do not agree
// on a format. Values without a zone are taken as UTC.
type Time struct {
	time.Time
}

// ParseTime parses value with the layouts Nova, Cinder, Octavia and
// Designate use.
func ParseTime(value string) (Time, error) {
	for _, layout := range timeLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return Time{Time: parsed}, nil
		}
	}

	return Time{}, fmt.Errorf("%w %q", ErrInvalidTimestamp, value)
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Time{}

		return nil
	}

	var value string

	err := json.Unmarshal(data, &value)
	if err != nil {
		return err
	}

	if value == "" {
		*t = Time{}

		return nil
	}

	parsed, err := ParseTime(value)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t Time) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil //nolint:nilnil // null timestamp
	}

	return t.UTC().Format(time.RFC3339), nil
}
