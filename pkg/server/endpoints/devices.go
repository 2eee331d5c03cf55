package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/server"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

func RegisterDevicesEndpoints(s *server.Server) {
	s.Router.HandleFunc("/devices", handleListDevices(s.Stores.Devices)).Methods("GET")
	s.Router.HandleFunc("/devices/{id:[0-9]+}/changelog", handleDeviceChangeLog(s.Stores.ChangeLog)).Methods("GET")
	s.Router.HandleFunc("/users", handleListUsers(s.Stores.Users)).Methods("GET")
}

func handleListDevices(devices store.DeviceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyIDParam(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid company_id", err)
			return
		}

		list, err := devices.ListDevices(r.Context(), companyID)
		if err != nil {
			logging.FromContext(r.Context()).Error().Err(err).Msg("list devices failed")
			respondWithError(w, statusFor(err), "list devices failed", err)
			return
		}
		if list == nil {
			list = []model.Device{}
		}
		respondWithJSON(w, http.StatusOK, list)
	}
}

func handleDeviceChangeLog(changeLog store.ChangeLogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := parseID(mux.Vars(r)["id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid device id", err)
			return
		}

		entries, err := changeLog.ListChangeLog(r.Context(), deviceID)
		if err != nil {
			respondWithError(w, statusFor(err), "list change log failed", err)
			return
		}
		if entries == nil {
			entries = []model.DeviceChangeLog{}
		}
		respondWithJSON(w, http.StatusOK, entries)
	}
}

func handleListUsers(users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyIDParam(r)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid company_id", err)
			return
		}

		list, err := users.ListUsers(r.Context(), companyID)
		if err != nil {
			respondWithError(w, statusFor(err), "list users failed", err)
			return
		}
		if list == nil {
			list = []model.User{}
		}
		respondWithJSON(w, http.StatusOK, list)
	}
}
