// Package intune fetches managed devices from Microsoft Intune through the
// Microsoft Graph API, authenticating with OAuth2 client credentials.
package intune

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/sources"
)

const (
	DefaultBaseURL   = "https://graph.microsoft.com/v1.0"
	DefaultAuthority = "https://login.microsoftonline.com"
	GraphScope       = "https://graph.microsoft.com/.default"
)

// Ensure Source implements sources.Source
var _ sources.Source = (*Source)(nil)

type Source struct {
	opts sources.Options
}

// New creates an Intune source. It satisfies sources.Factory.
func New(opts sources.Options) sources.Source {
	return &Source{opts: opts}
}

func (s *Source) Kind() model.SourceKind {
	return model.SourceIntune
}

func (s *Source) Configured(creds model.Credentials) bool {
	return creds.HasGraph()
}

func (s *Source) FetchDevices(ctx context.Context, creds model.Credentials) ([]model.Device, error) {
	if !s.Configured(creds) {
		return nil, sources.ErrNoCredentials
	}
	c := s.newClient(ctx, creds)

	var (
		devices []model.Device
		next    = c.baseURL + "/deviceManagement/managedDevices"
	)
	for next != "" {
		var page managedDevicePage
		if err := sources.GetJSON(ctx, c.http, s.opts, next, nil, &page); err != nil {
			return nil, err
		}
		for _, md := range page.Value {
			devices = append(devices, c.toDevice(ctx, creds.CompanyID, md))
		}
		next = page.NextLink
	}

	logging.FromContext(ctx).Debug().
		Uint("company_id", creds.CompanyID).
		Int("devices", len(devices)).
		Msg("fetched intune devices")
	return devices, nil
}

// client is the per-run Graph client. departments caches user lookups for
// the duration of one FetchDevices call.
type client struct {
	http        *http.Client
	baseURL     string
	opts        sources.Options
	departments map[string]string
}

func (s *Source) newClient(ctx context.Context, creds model.Credentials) *client {
	authority := strings.TrimRight(s.opts.GraphAuthority, "/")
	if authority == "" {
		authority = DefaultAuthority
	}
	baseURL := strings.TrimRight(s.opts.GraphBaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cfg := clientcredentials.Config{
		ClientID:     creds.GraphClientID,
		ClientSecret: creds.GraphClientSecret,
		TokenURL:     authority + "/" + url.PathEscape(creds.GraphTenantID) + "/oauth2/v2.0/token",
		Scopes:       []string{GraphScope},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.opts.Client())

	return &client{
		http:        cfg.Client(ctx),
		baseURL:     baseURL,
		opts:        s.opts,
		departments: make(map[string]string),
	}
}

// department looks up the user's department. Lookup failures are logged and
// yield "".
func (c *client) department(ctx context.Context, userID string) string {
	if dept, ok := c.departments[userID]; ok {
		return dept
	}

	var u graphUser
	endpoint := fmt.Sprintf("%s/users/%s?$select=department", c.baseURL, url.PathEscape(userID))
	if err := sources.GetJSON(ctx, c.http, c.opts, endpoint, nil, &u); err != nil {
		logging.FromContext(ctx).Debug().Err(err).Str("user_id", userID).Msg("department lookup failed")
	}
	c.departments[userID] = u.Department
	return u.Department
}

func (c *client) toDevice(ctx context.Context, companyID uint, md managedDevice) model.Device {
	device := model.Device{
		DeviceID:            md.ID,
		CompanyID:           companyID,
		DeviceName:          md.DeviceName,
		FirstEnrollment:     md.EnrolledDateTime.Ptr(),
		LastEnrollment:      md.EnrolledDateTime.Ptr(),
		LastSync:            md.LastSyncDateTime.Ptr(),
		Platform:            md.OperatingSystem,
		OsVersion:           md.OsVersion,
		Manufacturer:        md.Manufacturer,
		Model:               md.Model,
		SerialNumber:        md.SerialNumber,
		TotalStorageBytes:   md.TotalStorageSpaceInBytes,
		FreeStorageBytes:    md.FreeStorageSpaceInBytes,
		PhysicalMemoryBytes: md.PhysicalMemoryInBytes,
		Source:              model.SourceIntune.String(),
	}
	if md.UserID != "" {
		device.SourceUser = &model.SourceUser{
			ExternalRef:   md.UserID,
			DisplayName:   md.UserDisplayName,
			PrincipalName: md.UserPrincipalName,
			Email:         md.EmailAddress,
			Department:    c.department(ctx, md.UserID),
		}
	}
	return device
}
