package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/devicehub/pkg/audit"
	"github.com/doodlesbykumbi/devicehub/pkg/metrics"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/server"
	"github.com/doodlesbykumbi/devicehub/pkg/server/middleware"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
	"github.com/doodlesbykumbi/devicehub/pkg/store/mocks"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

type testServer struct {
	*server.Server
	stores *mocks.Stores

	mu     sync.Mutex
	events []audit.Event
}

func (ts *testServer) lastEvent(t *testing.T) audit.Event {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.events)
	return ts.events[len(ts.events)-1]
}

func newTestServer(t *testing.T, configure ...func(*server.Server)) *testServer {
	t.Helper()
	stores := mocks.NewStores()
	s := server.NewServer(stores.Stores(), nil, nil, "127.0.0.1", "0")
	ts := &testServer{Server: s, stores: stores}
	s.Audit = func(e audit.Event) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		ts.events = append(ts.events, e)
	}
	for _, fn := range configure {
		fn(s)
	}
	RegisterAll(s)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func decodeInfo(t *testing.T, w *httptest.ResponseRecorder) ResponseInfo {
	t.Helper()
	var info ResponseInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info), w.Body.String())
	return info
}

func TestStatus(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ts := newTestServer(t)
		ts.stores.Health.On("CheckConnectivity", mock.Anything).Return(nil)

		w := ts.do(httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		assert.JSONEq(t, `{"status":"ok","syncing":false}`, w.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		ts := newTestServer(t)
		ts.stores.Health.On("CheckConnectivity", mock.Anything).Return(store.ErrUnavailable)

		w := ts.do(httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "database connectivity check failed")
	})
}

func TestListDevices(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Devices.On("ListDevices", mock.Anything, uint(7)).
		Return([]model.Device{{ID: 1, DeviceID: "D1", CompanyID: 7, DeviceName: "Laptop-A"}}, nil)
	ts.stores.Devices.On("ListDevices", mock.Anything, uint(0)).Return(nil, nil)

	w := ts.do(httptest.NewRequest("GET", "/devices?company_id=7", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var devices []model.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "Laptop-A", devices[0].DeviceName)

	w = ts.do(httptest.NewRequest("GET", "/devices", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = ts.do(httptest.NewRequest("GET", "/devices?company_id=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid company_id", decodeInfo(t, w).Message)
}

func TestListDevices_StoreUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Devices.On("ListDevices", mock.Anything, uint(0)).Return(nil, store.ErrUnavailable)

	w := ts.do(httptest.NewRequest("GET", "/devices", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeviceChangeLog(t *testing.T) {
	ts := newTestServer(t)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ts.stores.ChangeLog.On("ListChangeLog", mock.Anything, uint(3)).
		Return([]model.DeviceChangeLog{{ID: 1, DeviceID: 3, UpdateTime: at, UpdateText: "DeviceName:A=>B"}}, nil)

	w := ts.do(httptest.NewRequest("GET", "/devices/3/changelog", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"update_text":"DeviceName:A=>B"`)

	w = ts.do(httptest.NewRequest("GET", "/devices/x/changelog", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Users.On("ListUsers", mock.Anything, uint(2)).
		Return([]model.User{{ID: 5, CompanyID: 2, ExternalRef: "U9"}}, nil)

	w := ts.do(httptest.NewRequest("GET", "/users?company_id=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"external_ref":"U9"`)
}

func twoCompanies() []model.Company {
	return []model.Company{
		{ID: 1, Name: "Acme", KandjiAPIKey: []byte("k")},
		{ID: 2, Name: "Globex", GraphTenantID: []byte("t"), GraphClientID: []byte("c"), GraphClientSecret: []byte("s")},
	}
}

func TestListCompanies(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Companies.On("ListCompanies", mock.Anything).Return(twoCompanies(), nil)

	w := ts.do(httptest.NewRequest("GET", "/companies?company_id=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out []model.CompanySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Globex", out[0].Name)
	assert.True(t, out[0].HasClientSecret)
	assert.False(t, out[0].HasKandjiAPIKey)
	assert.NotContains(t, w.Body.String(), `"s"`)

	w = ts.do(httptest.NewRequest("GET", "/companies", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 2)
}

func TestSaveCompany_Create(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Companies.On("SaveCompany", mock.Anything, mock.MatchedBy(func(c *model.Company) bool {
		return c.ID == 0 && c.Name == "Acme" && string(c.KandjiAPIKey) == "k"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Company).ID = 9
	}).Return(true, nil)

	req := httptest.NewRequest("POST", "/companies", strings.NewReader(`{"name":"Acme","kandji_api_key":"k"}`))
	req.RemoteAddr = "10.0.0.1:5555"
	w := ts.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	info := decodeInfo(t, w)
	assert.Equal(t, "Company added successfully!", info.Message)
	assert.Equal(t, map[string]interface{}{"id": float64(9)}, info.Details)

	ev, ok := ts.lastEvent(t).(audit.CompanyUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, uint(9), ev.CompanyID)
	assert.True(t, ev.Created)
	assert.True(t, ev.Success)
	assert.Equal(t, "10.0.0.1", ev.ClientIP)
	assert.Equal(t, []string{"name", "kandji_api_key"}, ev.Fields)
}

func TestSaveCompany_UpdateKeepsAbsentFields(t *testing.T) {
	ts := newTestServer(t)
	existing := &model.Company{ID: 4, Name: "Old", GraphClientSecret: []byte("old-secret")}
	ts.stores.Companies.On("FetchCompany", mock.Anything, uint(4)).Return(existing, nil)
	ts.stores.Companies.On("SaveCompany", mock.Anything, mock.MatchedBy(func(c *model.Company) bool {
		return c.ID == 4 && c.Name == "New" && string(c.GraphClientSecret) == "old-secret" && c.Archived
	})).Return(false, nil)

	w := ts.do(httptest.NewRequest("POST", "/companies", strings.NewReader(`{"id":4,"name":"New","archived":true}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Company updated successfully!", decodeInfo(t, w).Message)
	ts.stores.Companies.AssertExpectations(t)
}

func TestSaveCompany_Failures(t *testing.T) {
	t.Run("bad body", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(httptest.NewRequest("POST", "/companies", strings.NewReader(`{"name":`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store error is audited", func(t *testing.T) {
		ts := newTestServer(t)
		ts.stores.Companies.On("SaveCompany", mock.Anything, mock.Anything).Return(false, model.ErrNoCipher)

		w := ts.do(httptest.NewRequest("POST", "/companies", strings.NewReader(`{"name":"Acme","kandji_api_key":"k"}`)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "save company failed", decodeInfo(t, w).Message)

		ev := ts.lastEvent(t).(audit.CompanyUpdateEvent)
		assert.False(t, ev.Success)
		assert.Contains(t, ev.ErrorMessage, "no credential cipher")
	})
}

func TestLegacyGetDevices(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Devices.On("ListDevices", mock.Anything, uint(7)).Return([]model.Device{{ID: 1, DeviceID: "D1"}}, nil)

	w := ts.do(httptest.NewRequest("GET", "/data/GetDevices?CompanyId=7", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"device_id":"D1"`)

	w = ts.do(httptest.NewRequest("GET", "/data/GetDevices?CompanyId=x", nil))
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeInfo(t, w)
	assert.Equal(t, "GET: GetDevices failed", info.Message)
	assert.Contains(t, info.Details, "ErrorText")
}

func TestLegacyGetCompany(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Companies.On("ListCompanies", mock.Anything).Return(twoCompanies(), nil)

	w := ts.do(httptest.NewRequest("GET", "/data/GetCompany?CompanyId=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kandji_api_key":true`)
	assert.NotContains(t, w.Body.String(), "Globex")
}

func TestLegacySaveCompany(t *testing.T) {
	ts := newTestServer(t)
	ts.stores.Companies.On("FetchCompany", mock.Anything, uint(4)).Return(nil, store.ErrNotFound)
	ts.stores.Companies.On("SaveCompany", mock.Anything, mock.MatchedBy(func(c *model.Company) bool {
		return c.ID == 0 && c.Name == "Acme" && string(c.GraphTenantID) == "tenant" && c.Archived
	})).Return(true, nil)

	req := httptest.NewRequest("POST", "/data/SaveCompany", nil)
	req.Header.Set("CompanyId", "4")
	req.Header.Set("CompanyName", "Acme")
	req.Header.Set("TenantId", "tenant")
	req.Header.Set("Archived", "true")
	w := ts.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Company added successfully!", decodeInfo(t, w).Message)

	ev := ts.lastEvent(t).(audit.CompanyUpdateEvent)
	assert.Equal(t, []string{"name", "graph_tenant_id", "archived"}, ev.Fields)

	bad := httptest.NewRequest("POST", "/data/SaveCompany", nil)
	bad.Header.Set("Archived", "maybe")
	w = ts.do(bad)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "POST: SaveCompany failed", decodeInfo(t, w).Message)
}

func TestLegacyUnknownAction(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest("GET", "/data/SaveCompany", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type blockingSyncer struct {
	started chan syncer.Request
	release chan struct{}
	err     error
}

func (b *blockingSyncer) Run(ctx context.Context, req syncer.Request) (syncer.Summary, error) {
	b.started <- req
	<-b.release
	return syncer.Summary{RunID: "run-1", Trigger: req.Trigger, Companies: 1}, b.err
}

func TestSync(t *testing.T) {
	runner := &blockingSyncer{started: make(chan syncer.Request, 1), release: make(chan struct{})}
	ts := newTestServer(t, func(s *server.Server) { s.Syncer = runner })

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- ts.do(httptest.NewRequest("POST", "/sync", strings.NewReader(`{"company_id":3}`)))
	}()

	req := <-runner.started
	assert.Equal(t, syncer.Request{CompanyID: 3, Trigger: "api"}, req)
	assert.True(t, ts.Syncing())

	w := ts.do(httptest.NewRequest("POST", "/sync", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "sync already in progress", decodeInfo(t, w).Message)

	close(runner.release)
	w = <-first
	require.Equal(t, http.StatusOK, w.Code)
	var summary syncer.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.False(t, ts.Syncing())
}

func TestSync_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(httptest.NewRequest("POST", "/sync", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"archived company", syncer.ErrCompanyArchived, http.StatusConflict},
		{"unknown company", store.ErrNotFound, http.StatusNotFound},
		{"store down", store.ErrUnavailable, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &blockingSyncer{started: make(chan syncer.Request, 1), release: make(chan struct{}), err: tt.err}
			close(runner.release)
			ts := newTestServer(t, func(s *server.Server) { s.Syncer = runner })

			w := ts.do(httptest.NewRequest("POST", "/sync?company_id=5", nil))
			assert.Equal(t, tt.code, w.Code)
			info := decodeInfo(t, w)
			assert.Equal(t, "sync failed", info.Message)
			assert.Equal(t, syncer.Request{CompanyID: 5, Trigger: "api"}, <-runner.started)
			assert.False(t, ts.Syncing())
		})
	}
}

func TestAuthentication(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	ts := newTestServer(t, func(s *server.Server) {
		s.JWTMiddleware = middleware.NewJWTAuthenticator(key, PublicPaths...)
	})
	ts.stores.Health.On("CheckConnectivity", mock.Anything).Return(nil)
	ts.stores.Users.On("ListUsers", mock.Anything, uint(0)).Return([]model.User{}, nil)

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest("GET", "/", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(httptest.NewRequest("GET", "/users", nil)).Code)

	token, err := middleware.IssueToken(key, "ops", time.Hour, time.Now())
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, ts.do(req).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	ts := newTestServer(t, func(s *server.Server) {
		s.Metrics = metrics.New().MustRegister(reg)
		s.Gatherer = reg
	})
	ts.stores.Devices.On("ListDevices", mock.Anything, uint(0)).Return([]model.Device{}, nil)

	require.Equal(t, http.StatusOK, ts.do(httptest.NewRequest("GET", "/devices", nil)).Code)

	w := ts.do(httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `devicehub_http_requests_total{method="GET",route="/devices",status="200"} 1`)
}
