package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
)

// ErrNoCredentials is returned when a company lacks the credentials a source
// needs. The driver checks Configured first, so adapters only return it when
// called directly.
var ErrNoCredentials = errors.New("no credentials for source")

// Source fetches the devices of one company from a device-management
// platform and maps them onto the canonical model. Each returned device
// carries its owner in Device.SourceUser, or nil when the platform reports
// none.
type Source interface {
	Kind() model.SourceKind
	Configured(creds model.Credentials) bool
	FetchDevices(ctx context.Context, creds model.Credentials) ([]model.Device, error)
}

// Options configures the clients a Source builds for a run.
type Options struct {
	HTTPClient     *http.Client
	GraphBaseURL   string
	GraphAuthority string
	KandjiAPIURL   string

	// MaxRetries is the number of retries after the first attempt of a
	// request.
	MaxRetries uint

	// RetryInitialInterval and RetryMaxElapsed tune the exponential backoff.
	// Zero keeps the defaults.
	RetryInitialInterval time.Duration
	RetryMaxElapsed      time.Duration
}

// Client returns HTTPClient, or http.DefaultClient when unset.
func (o Options) Client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return http.DefaultClient
}

// Factory builds a Source for one run.
type Factory func(opts Options) Source

// Registry maps source kinds to their factories.
type Registry struct {
	factories map[model.SourceKind]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[model.SourceKind]Factory)}
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind model.SourceKind, factory Factory) {
	r.factories[kind] = factory
}

// New builds a fresh Source of the given kind.
func (r *Registry) New(kind model.SourceKind, opts Options) (Source, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("source %s is not registered", kind)
	}
	return factory(opts), nil
}

// Kinds lists the registered kinds in declaration order.
func (r *Registry) Kinds() []model.SourceKind {
	kinds := make([]model.SourceKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// FetchError reports that fetching from one source for one company failed.
type FetchError struct {
	Source    model.SourceKind
	CompanyID uint
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s devices for company %d: %v", e.Source, e.CompanyID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
