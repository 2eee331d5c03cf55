// Package audit provides audit logging for devicehub operations.
//
// Events are written as RFC5424 syslog lines to stdout and, when
// AUDIT_DATABASE_URL is set, persisted to the audit_messages table.
//
// # Event Types
//
//   - SyncEvent: one synchronization run and its aggregate counts
//   - CompanyUpdateEvent: a company or its credentials changed
//
// # Usage
//
//	audit.Log(audit.SyncEvent{RunID: id, Companies: 3, Success: true})
//
// Set DEVICEHUB_AUDIT_ENABLED=false to disable auditing.
package audit
