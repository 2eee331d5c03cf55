package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/server"
)

// RegisterLegacyEndpoints registers the /data/{action} gateway routes kept
// for older dashboard clients. Failures are reported with status 200 and a
// ResponseInfo body naming the failed action, as those clients expect.
func RegisterLegacyEndpoints(s *server.Server) {
	s.Router.HandleFunc("/data/{action}", handleLegacy(s)).Methods("GET", "POST")
}

func handleLegacy(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := mux.Vars(r)["action"]

		var (
			payload interface{}
			err     error
		)
		switch {
		case r.Method == http.MethodGet && action == "GetDevices":
			payload, err = legacyDevices(r, s)
		case r.Method == http.MethodGet && action == "GetCompany":
			payload, err = legacyCompanies(r, s)
		case r.Method == http.MethodPost && action == "SaveCompany":
			payload, err = legacySaveCompany(r, s)
		default:
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("%s: %s is not supported", r.Method, action), nil)
			return
		}

		if err != nil {
			respondWithJSON(w, http.StatusOK, newResponseInfo(
				r.Method+": "+action+" failed",
				map[string]string{"ErrorText": err.Error()},
			))
			return
		}
		respondWithJSON(w, http.StatusOK, payload)
	}
}

func legacyCompanyID(r *http.Request) (uint, error) {
	return parseID(r.URL.Query().Get("CompanyId"))
}

func legacyDevices(r *http.Request, s *server.Server) (interface{}, error) {
	companyID, err := legacyCompanyID(r)
	if err != nil {
		return nil, err
	}
	devices, err := s.Stores.Devices.ListDevices(r.Context(), companyID)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []model.Device{}
	}
	return devices, nil
}

func legacyCompanies(r *http.Request, s *server.Server) (interface{}, error) {
	companyID, err := legacyCompanyID(r)
	if err != nil {
		return nil, err
	}
	return summaries(r.Context(), s.Stores.Companies, companyID)
}

// companyFromHeaders reads the SaveCompany headers. Absent headers leave the
// stored value alone.
func companyFromHeaders(h http.Header) (CompanyRequest, error) {
	var req CompanyRequest
	str := func(name string) *string {
		if vals := h.Values(name); len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}

	if raw := str("CompanyId"); raw != nil {
		id, err := parseID(*raw)
		if err != nil {
			return req, fmt.Errorf("CompanyId: %w", err)
		}
		req.ID = &id
	}
	req.Name = str("CompanyName")
	req.GraphClientID = str("ClientId")
	req.GraphClientSecret = str("ClientSecret")
	req.GraphTenantID = str("TenantId")
	req.KandjiAPIKey = str("KandjiApiKey")
	req.KandjiAPIURL = str("KandjiApiUrl")
	if raw := str("Archived"); raw != nil {
		archived, err := strconv.ParseBool(*raw)
		if err != nil {
			return req, fmt.Errorf("Archived: %w", err)
		}
		req.Archived = &archived
	}
	return req, nil
}

func legacySaveCompany(r *http.Request, s *server.Server) (interface{}, error) {
	req, err := companyFromHeaders(r.Header)
	if err != nil {
		return nil, err
	}
	_, created, err := saveAndAudit(r, s, req)
	if err != nil {
		return nil, err
	}
	if created {
		return newResponseInfo(msgCompanyAdded, nil), nil
	}
	return newResponseInfo(msgCompanyUpdated, nil), nil
}
