package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/doodlesbykumbi/devicehub/pkg/audit"
	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/server"
	"github.com/doodlesbykumbi/devicehub/pkg/server/middleware"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

const (
	msgCompanyAdded   = "Company added successfully!"
	msgCompanyUpdated = "Company updated successfully!"
)

// CompanyRequest is a partial company. Nil fields are left unchanged.
type CompanyRequest struct {
	ID                *uint   `json:"id"`
	Name              *string `json:"name"`
	GraphTenantID     *string `json:"graph_tenant_id"`
	GraphClientID     *string `json:"graph_client_id"`
	GraphClientSecret *string `json:"graph_client_secret"`
	KandjiAPIKey      *string `json:"kandji_api_key"`
	KandjiAPIURL      *string `json:"kandji_api_url"`
	Archived          *bool   `json:"archived"`
}

// Fields lists the attributes present in the request, for auditing.
func (p CompanyRequest) Fields() []string {
	var fields []string
	add := func(name string, present bool) {
		if present {
			fields = append(fields, name)
		}
	}
	add("name", p.Name != nil)
	add("graph_tenant_id", p.GraphTenantID != nil)
	add("graph_client_id", p.GraphClientID != nil)
	add("graph_client_secret", p.GraphClientSecret != nil)
	add("kandji_api_key", p.KandjiAPIKey != nil)
	add("kandji_api_url", p.KandjiAPIURL != nil)
	add("archived", p.Archived != nil)
	return fields
}

func (p CompanyRequest) apply(c *model.Company) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	setBytes := func(dst *[]byte, v *string) {
		if v != nil {
			*dst = []byte(*v)
		}
	}
	setBytes(&c.GraphTenantID, p.GraphTenantID)
	setBytes(&c.GraphClientID, p.GraphClientID)
	setBytes(&c.GraphClientSecret, p.GraphClientSecret)
	setBytes(&c.KandjiAPIKey, p.KandjiAPIKey)
	if p.KandjiAPIURL != nil {
		c.KandjiAPIURL = *p.KandjiAPIURL
	}
	if p.Archived != nil {
		c.Archived = *p.Archived
	}
}

// SaveCompany merges p into the stored company with p.ID, or adds a new
// company when p has no id or the id is unknown. New companies get a
// store-assigned id.
func SaveCompany(ctx context.Context, companies store.CompanyStore, p CompanyRequest) (*model.Company, bool, error) {
	company := &model.Company{}
	if p.ID != nil && *p.ID != 0 {
		existing, err := companies.FetchCompany(ctx, *p.ID)
		switch {
		case err == nil:
			company = existing
		case !errors.Is(err, store.ErrNotFound):
			return nil, false, err
		}
	}
	p.apply(company)

	created, err := companies.SaveCompany(ctx, company)
	if err != nil {
		return nil, false, err
	}
	return company, created, nil
}

func RegisterCompaniesEndpoints(s *server.Server) {
	s.Router.HandleFunc("/companies", handleListCompanies(s.Stores.Companies)).Methods("GET")
	s.Router.HandleFunc("/companies", handleSaveCompany(s)).Methods("POST")
}

// summaries returns the credential-free view of the companies, narrowed to
// companyID when it is not 0.
func summaries(ctx context.Context, companies store.CompanyStore, companyID uint) ([]model.CompanySummary, error) {
	list, err := companies.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CompanySummary, 0, len(list))
	for i := range list {
		if companyID != 0 && list[i].ID != companyID {
			continue
		}
		out = append(out, list[i].Summary())
	}
	return out, nil
}

func handleListCompanies(companies store.CompanyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyIDParam(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid company_id", err)
			return
		}

		out, err := summaries(r.Context(), companies, companyID)
		if err != nil {
			respondWithError(w, statusFor(err), "list companies failed", err)
			return
		}
		respondWithJSON(w, http.StatusOK, out)
	}
}

func handleSaveCompany(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompanyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid company body", err)
			return
		}

		company, created, err := saveAndAudit(r, s, req)
		if err != nil {
			respondWithError(w, statusFor(err), "save company failed", err)
			return
		}

		msg := msgCompanyUpdated
		if created {
			msg = msgCompanyAdded
		}
		respondWithJSON(w, http.StatusOK, newResponseInfo(msg, map[string]uint{"id": company.ID}))
	}
}

// saveAndAudit saves the company and records who changed which fields.
func saveAndAudit(r *http.Request, s *server.Server, req CompanyRequest) (*model.Company, bool, error) {
	company, created, err := SaveCompany(r.Context(), s.Stores.Companies, req)

	event := audit.CompanyUpdateEvent{
		Subject:  middleware.SubjectFromContext(r.Context()),
		ClientIP: clientIP(r),
		Created:  created,
		Fields:   req.Fields(),
		Success:  err == nil,
	}
	switch {
	case company != nil:
		event.CompanyID = company.ID
	case req.ID != nil:
		event.CompanyID = *req.ID
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		logging.FromContext(r.Context()).Error().Err(err).Uint("company_id", event.CompanyID).Msg("save company failed")
	}
	s.LogAudit(event)
	return company, created, err
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
