package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/doodlesbykumbi/devicehub/pkg/config"
	"github.com/doodlesbykumbi/devicehub/pkg/identity"
	"github.com/doodlesbykumbi/devicehub/pkg/metrics"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/reconcile"
	"github.com/doodlesbykumbi/devicehub/pkg/server"
	"github.com/doodlesbykumbi/devicehub/pkg/server/endpoints"
	"github.com/doodlesbykumbi/devicehub/pkg/server/middleware"
	"github.com/doodlesbykumbi/devicehub/pkg/sources"
	"github.com/doodlesbykumbi/devicehub/pkg/sources/all"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

// ServerInstance is an in-process devicehub server for one scenario.
type ServerInstance struct {
	Server *server.Server
	URL    string
	http   *httptest.Server
}

// StartServer wires a server against the shared database with only the
// Kandji source enabled.
func StartServer(tc *TestContext) *ServerInstance {
	cfg, _ := config.LoadFile("")
	reg := prometheus.NewRegistry()
	collectors := metrics.New().MustRegister(reg)

	engine := reconcile.NewEngine(tc.Stores, identity.NewResolver(tc.Stores.Users))
	driver := syncer.NewDriver(tc.Stores.Companies, engine, all.Registry(), syncer.Config{
		Sources:     []model.SourceKind{model.SourceKandji},
		Concurrency: 2,
		Options:     sources.Options{MaxRetries: 0},
	}, syncer.WithMetrics(collectors))

	s := server.NewServer(tc.Stores, tc.Cipher, cfg, "127.0.0.1", "0")
	s.Syncer = driver
	s.Metrics = collectors
	s.Gatherer = reg
	s.JWTMiddleware = middleware.NewJWTAuthenticator(tc.SigningKey, endpoints.PublicPaths...)
	endpoints.RegisterAll(s)

	ts := httptest.NewServer(s.Handler())
	return &ServerInstance{Server: s, URL: ts.URL, http: ts}
}

func (si *ServerInstance) Stop() {
	si.http.Close()
}

// FakeKandji serves /api/v1/devices from an in-memory list.
type FakeKandji struct {
	URL string

	mu      sync.Mutex
	devices []map[string]any
	srv     *httptest.Server
}

func NewFakeKandji() *FakeKandji {
	f := &FakeKandji{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	f.URL = f.srv.URL
	return f
}

func (f *FakeKandji) SetDevices(devices []map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = devices
}

// Upsert replaces the device with the same device_id or appends it.
func (f *FakeKandji) Upsert(device map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.devices {
		if d["device_id"] == device["device_id"] {
			f.devices[i] = device
			return
		}
	}
	f.devices = append(f.devices, device)
}

func (f *FakeKandji) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/devices" {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	devices := f.devices
	f.mu.Unlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset > len(devices) {
		offset = len(devices)
	}
	page := devices[offset:]
	if page == nil {
		page = []map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func (f *FakeKandji) Close() {
	f.srv.Close()
}
