package licenses

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"

	"github.com/benedict-erwin/license-console/pkg/utils"
)

// LocalDateTime is the zone-less layout the license server writes
const LocalDateTime = "2006-01-02T15:04:05.999999999"

var timestampLayouts = []string{time.RFC3339Nano, LocalDateTime, time.DateOnly}

// Timestamp is a license date as the API sends it. RFC 3339, zone-less local
// date-times and bare dates are understood; anything else is kept verbatim
// for display and sent back unchanged.
type Timestamp struct {
	time.Time
	layout string
	raw    string
}

// NewTimestamp wraps t for sending; it is written as a zone-less local date-time
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// ParseTimestamp reads s with the first matching layout. Zone-less values are
// read in the application timezone.
func ParseTimestamp(s string) (*Timestamp, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, utils.GetLocation()); err == nil {
			return &Timestamp{Time: t, layout: layout}, true
		}
	}
	return &Timestamp{raw: s}, false
}

// Display renders the timestamp for humans, "-" when absent
func (t *Timestamp) Display() string {
	switch {
	case t == nil:
		return "-"
	case t.raw != "":
		return t.raw
	case t.IsZero():
		return "-"
	default:
		return utils.FormatTime(t.Time)
	}
}

// DateInput is the date part in the application timezone, empty when unknown
func (t *Timestamp) DateInput() string {
	if t == nil || t.raw != "" || t.IsZero() {
		return ""
	}
	return t.In(utils.GetLocation()).Format(time.DateOnly)
}

// UnmarshalJSON never fails on a string value
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, _ := ParseTimestamp(s)
	*t = *parsed
	return nil
}

// MarshalJSON writes the value back in the layout it arrived in
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t.raw != "":
		return json.Marshal(t.raw)
	case t.layout != "":
		return json.Marshal(t.Format(t.layout))
	default:
		return json.Marshal(t.In(utils.GetLocation()).Format(LocalDateTime))
	}
}
