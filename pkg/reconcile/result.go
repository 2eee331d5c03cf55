package reconcile

import "fmt"

// Stage names the step of per-device reconciliation that failed.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageResolve   Stage = "resolve"
	StageLookup    Stage = "lookup"
	StageInsert    Stage = "insert"
	StageUpdate    Stage = "update"
	StageChangeLog Stage = "changelog"
)

// RecordError identifies a device that could not be reconciled.
type RecordError struct {
	DeviceID  string `json:"device_id"`
	CompanyID uint   `json:"company_id"`
	Stage     Stage  `json:"stage"`
	Err       error  `json:"-"`
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("device %q of company %d: %s: %v", e.DeviceID, e.CompanyID, e.Stage, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Result summarises one Reconcile call.
type Result struct {
	Inserted  int           `json:"inserted"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Failures  []RecordError `json:"failures,omitempty"`
}

// Total is the number of devices the call attempted.
func (r Result) Total() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Failed
}

// Add accumulates other into r.
func (r *Result) Add(other Result) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
	r.Failed += other.Failed
	r.Failures = append(r.Failures, other.Failures...)
}

// FailedDeviceIDs lists the external ids of the failed devices in arrival order.
func (r Result) FailedDeviceIDs() []string {
	ids := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.DeviceID)
	}
	return ids
}

func (r *Result) record(s Status) {
	switch s {
	case StatusNew:
		r.Inserted++
	case StatusChanged:
		r.Updated++
	case StatusUnchanged:
		r.Unchanged++
	}
}
