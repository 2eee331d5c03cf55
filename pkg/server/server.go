package server

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/doodlesbykumbi/devicehub/pkg/audit"
	"github.com/doodlesbykumbi/devicehub/pkg/config"
	"github.com/doodlesbykumbi/devicehub/pkg/metrics"
	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
	"github.com/doodlesbykumbi/devicehub/pkg/server/middleware"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

// SyncRunner starts a reconciliation run. *syncer.Driver implements it.
type SyncRunner interface {
	Run(ctx context.Context, req syncer.Request) (syncer.Summary, error)
}

type Server struct {
	Stores store.Stores
	Cipher secrets.Cipher
	Config *config.DevicehubConfig
	Router *mux.Router

	// Optional collaborators. Endpoints that need a missing one answer 503.
	Syncer        SyncRunner
	Metrics       *metrics.Collectors
	Gatherer      prometheus.Gatherer
	JWTMiddleware *middleware.JWTAuthenticator
	Audit         func(audit.Event)

	syncing atomic.Bool
	srv     *http.Server
}

func NewServer(
	stores store.Stores,
	cipher secrets.Cipher,
	cfg *config.DevicehubConfig,
	host string,
	port string,
) *Server {

	router := mux.NewRouter()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, handlers.ProxyHeaders(router)),
		Addr:    host + ":" + port,
		// a sync triggered over HTTP runs inside the request
		WriteTimeout: 10 * time.Minute,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Stores: stores,
		Cipher: cipher,
		Config: cfg,
		Router: router,
		Audit:  audit.Log,
		srv:    srv,
	}
}

// Handler returns the full handler chain served by Start.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// TryBeginSync marks a sync as running. ok is false if one already is; the
// caller must call done when its run finishes.
func (s *Server) TryBeginSync() (done func(), ok bool) {
	if !s.syncing.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { s.syncing.Store(false) }, true
}

// Syncing reports whether a sync started through TryBeginSync is running.
func (s *Server) Syncing() bool {
	return s.syncing.Load()
}

func (s *Server) LogAudit(e audit.Event) {
	if s.Audit != nil {
		s.Audit(e)
	}
}
