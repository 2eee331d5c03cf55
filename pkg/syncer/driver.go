package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/devicehub/pkg/audit"
	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/metrics"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/reconcile"
	"github.com/doodlesbykumbi/devicehub/pkg/sources"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// ErrCompanyArchived is returned when a run targets an archived company.
var ErrCompanyArchived = errors.New("company is archived")

// Reconciler is the part of reconcile.Engine the driver uses.
type Reconciler interface {
	Reconcile(ctx context.Context, companyID uint, devices []model.Device) (reconcile.Result, error)
}

// Config selects the sources to run and how many companies run at once.
type Config struct {
	Sources     []model.SourceKind
	Concurrency int
	Options     sources.Options
}

// Request narrows a run. The zero value runs every active company.
type Request struct {
	CompanyID uint
	Trigger   string
}

// Driver runs reconciliation for every active company and enabled source.
type Driver struct {
	companies store.CompanyStore
	engine    Reconciler
	registry  *sources.Registry
	cfg       Config
	locks     *KeyedMutex
	metrics   *metrics.Collectors
	audit     func(audit.Event)
	now       func() time.Time
	newRunID  func() string
}

type Option func(*Driver)

// WithMetrics records run, fetch and reconciliation metrics on c.
func WithMetrics(c *metrics.Collectors) Option {
	return func(d *Driver) { d.metrics = c }
}

// WithAudit replaces audit.Log as the sink for run events.
func WithAudit(fn func(audit.Event)) Option {
	return func(d *Driver) { d.audit = fn }
}

func NewDriver(companies store.CompanyStore, engine Reconciler, registry *sources.Registry, cfg Config, opts ...Option) *Driver {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	d := &Driver{
		companies: companies,
		engine:    engine,
		registry:  registry,
		cfg:       cfg,
		locks:     NewKeyedMutex(),
		audit:     audit.Log,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run reconciles each selected company against each enabled source. A
// company is locked for the whole of its pass, so overlapping runs in this
// process never reconcile the same company concurrently.
//
// Per-pair problems are reported in the Summary. The error is non-nil only
// when companies can't be loaded, the context ends, or every reconciled
// pair found the store unreachable.
func (d *Driver) Run(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{
		RunID:     d.newRunID(),
		Trigger:   req.Trigger,
		StartedAt: d.now().UTC(),
	}
	ctx = logging.With(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("run_id", summary.RunID)
	})
	log := logging.FromContext(ctx)

	companies, err := d.selectCompanies(ctx, req)
	if err != nil {
		return d.finish(ctx, summary, err)
	}
	summary.Companies = len(companies)
	log.Info().Int("companies", len(companies)).Str("trigger", req.Trigger).Msg("sync started")

	results := make([][]PairResult, len(companies))
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i := range companies {
		company := companies[i]
		g.Go(func() error {
			results[i] = d.runCompany(ctx, &company)
			return nil
		})
	}
	_ = g.Wait()

	var reconciled, unavailable int
	for _, pairs := range results {
		for _, p := range pairs {
			summary.add(p)
			if p.Skipped {
				continue
			}
			reconciled++
			if errors.Is(p.Err, store.ErrUnavailable) {
				unavailable++
			}
		}
	}

	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case reconciled > 0 && unavailable == reconciled:
		err = fmt.Errorf("sync %s: %w", summary.RunID, store.ErrUnavailable)
	}
	return d.finish(ctx, summary, err)
}

func (d *Driver) selectCompanies(ctx context.Context, req Request) ([]model.Company, error) {
	if req.CompanyID != 0 {
		company, err := d.companies.FetchCompany(ctx, req.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("load company %d: %w", req.CompanyID, err)
		}
		if company.Archived {
			return nil, fmt.Errorf("company %d: %w", company.ID, ErrCompanyArchived)
		}
		return []model.Company{*company}, nil
	}

	companies, err := d.companies.ListActiveCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	active := companies[:0]
	for _, c := range companies {
		if !c.Archived {
			active = append(active, c)
		}
	}
	return active, nil
}

func (d *Driver) runCompany(ctx context.Context, company *model.Company) []PairResult {
	unlock := d.locks.Lock(company.ID)
	defer unlock()

	creds := company.Credentials()
	pairs := make([]PairResult, 0, len(d.cfg.Sources))
	for _, kind := range d.cfg.Sources {
		if ctx.Err() != nil {
			break
		}
		if company.CredentialsErr != nil {
			pair := PairResult{CompanyID: company.ID, Source: kind.String()}
			pairs = append(pairs, pair.skip(SkipInvalidCredentials, company.CredentialsErr))
			continue
		}
		pairs = append(pairs, d.runPair(ctx, company.ID, kind, creds))
	}
	if company.CredentialsErr != nil {
		logging.FromContext(ctx).Error().Err(company.CredentialsErr).Uint("company_id", company.ID).
			Msg("company credentials could not be decrypted, skipping company")
	}
	return pairs
}

func (d *Driver) runPair(ctx context.Context, companyID uint, kind model.SourceKind, creds model.Credentials) PairResult {
	pair := PairResult{CompanyID: companyID, Source: kind.String()}
	log := logging.FromContext(ctx).With().Uint("company_id", companyID).Str("source", pair.Source).Logger()

	src, err := d.registry.New(kind, d.cfg.Options)
	if err != nil {
		return pair.skip(SkipUnsupported, err)
	}
	if !src.Configured(creds) {
		log.Debug().Msg("source not configured for company")
		return pair.skip(SkipNoCredentials, nil)
	}

	devices, err := src.FetchDevices(ctx, creds)
	if err != nil {
		fetchErr := &sources.FetchError{Source: kind, CompanyID: companyID, Err: err}
		log.Error().Err(err).Msg("fetch failed, skipping source for this run")
		if d.metrics != nil {
			d.metrics.IncFetchError(pair.Source)
		}
		return pair.skip(SkipFetchFailed, fetchErr)
	}
	pair.Fetched = len(devices)

	res, err := d.engine.Reconcile(ctx, companyID, devices)
	pair.Result = res
	if err != nil {
		pair.Err = err
		pair.Error = err.Error()
	}
	if d.metrics != nil {
		d.metrics.AddReconciled(pair.Source, "inserted", res.Inserted)
		d.metrics.AddReconciled(pair.Source, "updated", res.Updated)
		d.metrics.AddReconciled(pair.Source, "unchanged", res.Unchanged)
		d.metrics.AddReconciled(pair.Source, "failed", res.Failed)
	}

	log.Info().
		Int("fetched", pair.Fetched).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("failed", res.Failed).
		Msg("source reconciled")
	return pair
}

func (p PairResult) skip(reason string, err error) PairResult {
	p.Skipped = true
	p.SkipReason = reason
	if err != nil {
		p.Err = err
		p.Error = err.Error()
	}
	return p
}

func (d *Driver) finish(ctx context.Context, summary Summary, err error) (Summary, error) {
	summary.FinishedAt = d.now().UTC()

	result := "success"
	event := audit.SyncEvent{
		RunID:     summary.RunID,
		Trigger:   summary.Trigger,
		Companies: summary.Companies,
		Inserted:  summary.Totals.Inserted,
		Updated:   summary.Totals.Updated,
		Unchanged: summary.Totals.Unchanged,
		Failed:    summary.Totals.Failed,
		Skipped:   summary.Skipped,
		Success:   err == nil,
	}
	log := logging.FromContext(ctx)
	if err != nil {
		result = "failure"
		event.ErrorMessage = err.Error()
		log.Error().Err(err).Msg("sync failed")
	} else {
		log.Info().
			Int("inserted", summary.Totals.Inserted).
			Int("updated", summary.Totals.Updated).
			Int("unchanged", summary.Totals.Unchanged).
			Int("failed", summary.Totals.Failed).
			Int("skipped", summary.Skipped).
			Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
			Msg("sync finished")
	}

	if d.metrics != nil {
		d.metrics.ObserveRun(result, summary.FinishedAt.Sub(summary.StartedAt))
	}
	if d.audit != nil {
		d.audit(event)
	}
	return summary, err
}
