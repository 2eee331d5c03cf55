package reconcile

import (
	"strconv"
	"strings"
	"time"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
)

// Status classifies an incoming device against its stored counterpart.
type Status int

const (
	StatusNew Status = iota
	StatusChanged
	StatusUnchanged
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusChanged:
		return "changed"
	case StatusUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// ChangeOutcome is the result of DetectChange. DiffText is only set when
// Status is StatusChanged.
type ChangeOutcome struct {
	Status   Status
	DiffText string
}

// HasDiff reports whether the outcome carries diff text to record.
func (o ChangeOutcome) HasDiff() bool {
	return o.Status == StatusChanged
}

// fieldRule describes one reconciled field. Rules are evaluated in slice
// order, which is also the order of fragments in the diff text.
type fieldRule struct {
	name    string
	changed func(in, stored *model.Device) bool
	value   func(d *model.Device) string
}

var fieldRules = []fieldRule{
	{
		name: "LastEnrollment",
		// Enrollment only ever moves forward. Compared at the microsecond
		// precision the device table stores.
		changed: func(in, stored *model.Device) bool {
			if in.LastEnrollment == nil {
				return false
			}
			if stored.LastEnrollment == nil {
				return true
			}
			return in.LastEnrollment.Round(time.Microsecond).After(stored.LastEnrollment.Round(time.Microsecond))
		},
		value: func(d *model.Device) string { return formatTime(d.LastEnrollment) },
	},
	{
		name:    "UserId",
		changed: func(in, stored *model.Device) bool { return in.UserID != stored.UserID },
		value:   func(d *model.Device) string { return strconv.FormatUint(uint64(d.UserID), 10) },
	},
	stringRule("DeviceName", func(d *model.Device) string { return d.DeviceName }),
	stringRule("OsVersion", func(d *model.Device) string { return d.OsVersion }),
	stringRule("SerialNumber", func(d *model.Device) string { return d.SerialNumber }),
	stringRule("Manufacturer", func(d *model.Device) string { return d.Manufacturer }),
}

func stringRule(name string, get func(d *model.Device) string) fieldRule {
	return fieldRule{
		name:    name,
		changed: func(in, stored *model.Device) bool { return get(in) != get(stored) },
		value:   get,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// DetectChange compares an incoming device with the stored record for the
// same natural key. A nil stored record means the device is new.
func DetectChange(incoming, stored *model.Device) ChangeOutcome {
	if stored == nil {
		return ChangeOutcome{Status: StatusNew}
	}

	var fragments []string
	for _, rule := range fieldRules {
		if !rule.changed(incoming, stored) {
			continue
		}
		fragments = append(fragments, rule.name+":"+rule.value(stored)+"=>"+rule.value(incoming))
	}
	if len(fragments) == 0 {
		return ChangeOutcome{Status: StatusUnchanged}
	}

	return ChangeOutcome{
		Status:   StatusChanged,
		DiffText: model.TruncateChangeText(strings.Join(fragments, ", ")),
	}
}
