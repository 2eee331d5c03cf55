package sources

import (
	"bytes"
	"encoding/json"
	"time"
)

// Timestamp decodes an RFC 3339 time field. null, "" and the zero time all
// decode to an absent value. Times are rounded to the microsecond, the
// precision the device table keeps.
type Timestamp struct {
	t     time.Time
	valid bool
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*ts = Timestamp{}
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	if t.IsZero() {
		*ts = Timestamp{}
		return nil
	}
	*ts = Timestamp{t: t.UTC().Round(time.Microsecond), valid: true}
	return nil
}

// Ptr returns the time, or nil when absent.
func (ts Timestamp) Ptr() *time.Time {
	if !ts.valid {
		return nil
	}
	t := ts.t
	return &t
}
