package audit

import (
	"fmt"
	"strings"
)

// CompanyUpdateEvent records a change to a company and its credentials.
// Fields lists what was changed, never the values.
type CompanyUpdateEvent struct {
	Subject      string
	ClientIP     string
	CompanyID    uint
	Created      bool
	Fields       []string
	Success      bool
	ErrorMessage string
}

func (e CompanyUpdateEvent) MessageID() string {
	return "company"
}

func (e CompanyUpdateEvent) operation() string {
	if e.Created {
		return "create"
	}
	return "update"
}

func (e CompanyUpdateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %sd company %d", e.subject(), e.operation(), e.CompanyID)
	}
	msg := fmt.Sprintf("%s tried to %s company %d", e.subject(), e.operation(), e.CompanyID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e CompanyUpdateEvent) subject() string {
	if e.Subject == "" {
		return "anonymous"
	}
	return e.Subject
}

func (e CompanyUpdateEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e CompanyUpdateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e CompanyUpdateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {
			"company": fmt.Sprintf("%d", e.CompanyID),
			"fields":  strings.Join(e.Fields, ","),
		},
		SDIDClient: {
			"ip":   e.ClientIP,
			"user": e.subject(),
		},
		SDIDAction: {
			"operation": e.operation(),
		},
	}
	if e.Success {
		sd[SDIDAction]["result"] = "success"
	} else {
		sd[SDIDAction]["result"] = "failure"
	}
	return sd
}
