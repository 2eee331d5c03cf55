package syncer

import (
	"time"

	"github.com/doodlesbykumbi/devicehub/pkg/reconcile"
)

// Skip reasons reported in PairResult.SkipReason.
const (
	SkipNoCredentials      = "no credentials"
	SkipInvalidCredentials = "invalid credentials"
	SkipFetchFailed        = "fetch failed"
	SkipUnsupported        = "unsupported source"
)

// PairResult is the outcome for one (company, source) pair.
type PairResult struct {
	CompanyID  uint             `json:"company_id"`
	Source     string           `json:"source"`
	Fetched    int              `json:"fetched"`
	Result     reconcile.Result `json:"result"`
	Skipped    bool             `json:"skipped"`
	SkipReason string           `json:"skip_reason,omitempty"`
	Error      string           `json:"error,omitempty"`
	Err        error            `json:"-"`
}

// Summary aggregates one driver run.
type Summary struct {
	RunID      string           `json:"run_id"`
	Trigger    string           `json:"trigger,omitempty"`
	Companies  int              `json:"companies"`
	Pairs      []PairResult     `json:"pairs"`
	Totals     reconcile.Result `json:"totals"`
	Skipped    int              `json:"skipped"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

func (s *Summary) add(p PairResult) {
	s.Pairs = append(s.Pairs, p)
	if p.Skipped {
		s.Skipped++
		return
	}
	s.Totals.Add(p.Result)
}
