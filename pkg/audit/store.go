package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/doodlesbykumbi/devicehub/pkg/db"
)

const insertMessage = `
		INSERT INTO audit_messages (facility, severity, timestamp, hostname, appname, procid, msgid, run_id, company_id, sdata, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

// Store persists audit events to the audit_messages table. Sync events are
// keyed by run_id and company events by company_id so either can be joined
// back to the inventory.
type Store struct {
	db       *sql.DB
	hostname string
	procid   string
	now      func() time.Time
}

// NewStore opens the database named by AUDIT_DATABASE_URL. It returns a nil
// store when the variable is unset.
func NewStore() (*Store, error) {
	dbURL := db.AuditURL()
	if dbURL == "" {
		return nil, nil
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	return NewStoreWithDB(conn), nil
}

// NewStoreWithDB wraps an existing connection.
func NewStoreWithDB(conn *sql.DB) *Store {
	hostname, _ := os.Hostname()
	return &Store{
		db:       conn,
		hostname: hostname,
		procid:   strconv.Itoa(os.Getpid()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes one event.
func (s *Store) Save(ctx context.Context, event Event) error {
	if s.db == nil {
		return nil
	}

	sdataJSON, err := json.Marshal(event.StructuredData())
	if err != nil {
		return err
	}
	runID, companyID := eventKeys(event)

	_, err = s.db.ExecContext(ctx, insertMessage,
		event.Facility(),
		int(event.Severity()),
		s.now(),
		s.hostname,
		AppName,
		s.procid,
		event.MessageID(),
		runID,
		companyID,
		sdataJSON,
		event.Message(),
	)
	return err
}

// eventKeys returns the run and company an event belongs to, NULL where the
// event has none.
func eventKeys(event Event) (runID sql.NullString, companyID sql.NullInt64) {
	switch e := event.(type) {
	case SyncEvent:
		runID = sql.NullString{String: e.RunID, Valid: e.RunID != ""}
	case CompanyUpdateEvent:
		companyID = sql.NullInt64{Int64: int64(e.CompanyID), Valid: e.CompanyID != 0}
	}
	return runID, companyID
}
