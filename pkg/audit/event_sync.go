package audit

import (
	"fmt"
	"strconv"
)

// SyncEvent records one synchronization run.
type SyncEvent struct {
	RunID        string
	Trigger      string // "cli", "api", "schedule"
	Companies    int
	Inserted     int
	Updated      int
	Unchanged    int
	Failed       int
	Skipped      int
	Success      bool
	ErrorMessage string
}

func (e SyncEvent) MessageID() string {
	return "sync"
}

func (e SyncEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("sync %s over %d companies: %d inserted, %d updated, %d unchanged, %d failed",
			e.RunID, e.Companies, e.Inserted, e.Updated, e.Unchanged, e.Failed)
	}
	msg := fmt.Sprintf("sync %s failed", e.RunID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e SyncEvent) Severity() Severity {
	switch {
	case !e.Success:
		return SeverityError
	case e.Failed > 0:
		return SeverityWarning
	}
	return SeverityInfo
}

func (e SyncEvent) Facility() int {
	return FacilityDaemon
}

func (e SyncEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDSync: {
			"run":       e.RunID,
			"companies": strconv.Itoa(e.Companies),
			"inserted":  strconv.Itoa(e.Inserted),
			"updated":   strconv.Itoa(e.Updated),
			"unchanged": strconv.Itoa(e.Unchanged),
			"failed":    strconv.Itoa(e.Failed),
			"skipped":   strconv.Itoa(e.Skipped),
		},
		SDIDAction: {
			"operation": "sync",
			"trigger":   e.Trigger,
			"result":    result,
		},
	}
}
