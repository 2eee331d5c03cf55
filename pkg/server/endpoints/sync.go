package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/server"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

// SyncRequest is the optional body of POST /sync.
type SyncRequest struct {
	CompanyID uint `json:"company_id"`
}

func RegisterSyncEndpoints(s *server.Server) {
	s.Router.HandleFunc("/sync", handleSync(s)).Methods("POST")
}

func handleSync(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Syncer == nil {
			respondWithError(w, http.StatusServiceUnavailable, "sync is not configured", nil)
			return
		}

		var req SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "invalid sync body", err)
			return
		}
		if req.CompanyID == 0 {
			id, err := companyIDParam(r)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "invalid company_id", err)
				return
			}
			req.CompanyID = id
		}

		done, ok := s.TryBeginSync()
		if !ok {
			respondWithError(w, http.StatusConflict, "sync already in progress", nil)
			return
		}
		defer done()

		// A client hanging up must not abort the run half way.
		ctx := context.WithoutCancel(r.Context())
		summary, err := s.Syncer.Run(ctx, syncer.Request{CompanyID: req.CompanyID, Trigger: "api"})
		if err != nil {
			logging.FromContext(ctx).Error().Err(err).Str("run_id", summary.RunID).Msg("sync request failed")
			respondWithJSON(w, syncStatus(err), newResponseInfo("sync failed", map[string]interface{}{
				"error_text": err.Error(),
				"summary":    summary,
			}))
			return
		}
		respondWithJSON(w, http.StatusOK, summary)
	}
}

func syncStatus(err error) int {
	if errors.Is(err, syncer.ErrCompanyArchived) {
		return http.StatusConflict
	}
	return statusFor(err)
}
