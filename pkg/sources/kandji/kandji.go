// Package kandji fetches devices from the Kandji API using a per-company
// bearer API key.
package kandji

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/sources"
)

const defaultPageSize = 300

// Ensure Source implements sources.Source
var _ sources.Source = (*Source)(nil)

type Source struct {
	opts     sources.Options
	pageSize int
}

// New creates a Kandji source. It satisfies sources.Factory.
func New(opts sources.Options) sources.Source {
	return &Source{opts: opts, pageSize: defaultPageSize}
}

func (s *Source) Kind() model.SourceKind {
	return model.SourceKandji
}

// Configured requires an API key and an API URL, taken from the company or
// from the options.
func (s *Source) Configured(creds model.Credentials) bool {
	return creds.HasKandji() && s.apiURL(creds) != ""
}

func (s *Source) apiURL(creds model.Credentials) string {
	if creds.KandjiAPIURL != "" {
		return strings.TrimRight(creds.KandjiAPIURL, "/")
	}
	return strings.TrimRight(s.opts.KandjiAPIURL, "/")
}

func (s *Source) FetchDevices(ctx context.Context, creds model.Credentials) ([]model.Device, error) {
	if !s.Configured(creds) {
		return nil, sources.ErrNoCredentials
	}

	client := s.opts.Client()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.KandjiAPIKey)
	base := s.apiURL(creds) + "/api/v1/devices"

	var devices []model.Device
	for offset := 0; ; offset += s.pageSize {
		endpoint := base + "?limit=" + strconv.Itoa(s.pageSize) + "&offset=" + strconv.Itoa(offset)

		var page []device
		if err := sources.GetJSON(ctx, client, s.opts, endpoint, header, &page); err != nil {
			return nil, err
		}
		for _, d := range page {
			devices = append(devices, d.toDevice(creds.CompanyID))
		}
		if len(page) < s.pageSize {
			break
		}
	}

	logging.FromContext(ctx).Debug().
		Uint("company_id", creds.CompanyID).
		Int("devices", len(devices)).
		Msg("fetched kandji devices")
	return devices, nil
}

type device struct {
	DeviceID        string            `json:"device_id"`
	DeviceName      string            `json:"device_name"`
	Model           string            `json:"model"`
	SerialNumber    string            `json:"serial_number"`
	Platform        string            `json:"platform"`
	OsVersion       string            `json:"os_version"`
	LastCheckIn     sources.Timestamp `json:"last_check_in"`
	FirstEnrollment sources.Timestamp `json:"first_enrollment"`
	LastEnrollment  sources.Timestamp `json:"last_enrollment"`
	User            *user             `json:"user"`
}

// user is the nested owner object. Kandji sends an empty string instead of
// an object when a device has no user, and ids may be numbers.
type user struct {
	ID         string
	Name       string
	Email      string
	IsArchived bool
}

func (u *user) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*u = user{}
		return nil
	}
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Name       string          `json:"name"`
		Email      string          `json:"email"`
		IsArchived any             `json:"is_archived"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("kandji user: %w", err)
	}
	*u = user{
		ID:         rawString(raw.ID),
		Name:       raw.Name,
		Email:      raw.Email,
		IsArchived: truthy(raw.IsArchived),
	}
	return nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}

func (d device) toDevice(companyID uint) model.Device {
	out := model.Device{
		DeviceID:        d.DeviceID,
		CompanyID:       companyID,
		DeviceName:      d.DeviceName,
		FirstEnrollment: d.FirstEnrollment.Ptr(),
		LastEnrollment:  d.LastEnrollment.Ptr(),
		LastSync:        d.LastCheckIn.Ptr(),
		Platform:        d.Platform,
		OsVersion:       d.OsVersion,
		Model:           d.Model,
		SerialNumber:    d.SerialNumber,
		Source:          model.SourceKandji.String(),
	}
	if d.User != nil && d.User.ID != "" {
		out.SourceUser = &model.SourceUser{
			ExternalRef: d.User.ID,
			DisplayName: d.User.Name,
			Email:       d.User.Email,
			Archived:    d.User.IsArchived,
		}
	}
	return out
}
