package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	server       *ServerInstance
	response     *http.Response
	responseBody []byte
	authToken    string
	companies    map[string]uint
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:        tc,
		companies: make(map[string]uint),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.server != nil {
			s.server.Stop()
		}
		return ctx, nil
	})

	// Background steps
	sc.Step(`^a devicehub server is running$`, s.aDevicehubServerIsRunning)
	sc.Step(`^a company "([^"]*)" with a Kandji key exists$`, s.aCompanyWithKandjiKeyExists)
	sc.Step(`^the company "([^"]*)" is archived$`, s.theCompanyIsArchived)

	// Source steps
	sc.Step(`^Kandji reports device "([^"]*)" named "([^"]*)" for user "([^"]*)" "([^"]*)"$`, s.kandjiReportsDeviceForUser)
	sc.Step(`^Kandji reports device "([^"]*)" named "([^"]*)"$`, s.kandjiReportsDevice)

	// Request steps
	sc.Step(`^I trigger a sync$`, s.iTriggerASync)
	sc.Step(`^I trigger a sync for company "([^"]*)"$`, s.iTriggerASyncForCompany)
	sc.Step(`^I request "([^"]*)"$`, s.iRequest)
	sc.Step(`^I request the devices of company "([^"]*)"$`, s.iRequestTheDevicesOfCompany)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
	sc.Step(`^the sync should report (\d+) inserted, (\d+) updated and (\d+) unchanged$`, s.theSyncShouldReport)

	// Inventory steps
	sc.Step(`^company "([^"]*)" should have (\d+) devices?$`, s.companyShouldHaveDevices)
	sc.Step(`^company "([^"]*)" should have (\d+) users?$`, s.companyShouldHaveUsers)
	sc.Step(`^device "([^"]*)" of company "([^"]*)" should be assigned to user "([^"]*)"$`, s.deviceShouldBeAssignedTo)
	sc.Step(`^device "([^"]*)" of company "([^"]*)" should have a change log entry "([^"]*)"$`, s.deviceShouldHaveChangeLogEntry)
	sc.Step(`^device "([^"]*)" of company "([^"]*)" should have no change log entries$`, s.deviceShouldHaveNoChangeLogEntries)

	s.registerAuthSteps(sc)
}

// Background steps

func (s *StepsContext) aDevicehubServerIsRunning() error {
	s.server = StartServer(s.tc)
	return nil
}

func (s *StepsContext) aCompanyWithKandjiKeyExists(name string) error {
	company := &model.Company{
		Name:         name,
		KandjiAPIKey: []byte("kandji-key-" + strings.ToLower(name)),
		KandjiAPIURL: s.tc.Kandji.URL,
	}
	if _, err := s.tc.Stores.Companies.SaveCompany(context.Background(), company); err != nil {
		return err
	}
	s.companies[name] = company.ID
	return nil
}

func (s *StepsContext) theCompanyIsArchived(name string) error {
	id, err := s.companyID(name)
	if err != nil {
		return err
	}
	return s.tc.DB.Exec(`UPDATE companies SET archived = true WHERE id = ?`, id).Error
}

func (s *StepsContext) companyID(name string) (uint, error) {
	id, ok := s.companies[name]
	if !ok {
		return 0, fmt.Errorf("unknown company %q", name)
	}
	return id, nil
}

// Source steps

func kandjiDevice(deviceID, name string) map[string]any {
	return map[string]any{
		"device_id":        deviceID,
		"device_name":      name,
		"model":            "MacBook Pro (14-inch, 2023)",
		"serial_number":    "SN-" + deviceID,
		"platform":         "Mac",
		"os_version":       "14.4",
		"last_check_in":    time.Now().UTC().Format(time.RFC3339),
		"first_enrollment": "2024-01-10T09:00:00Z",
		"last_enrollment":  "2024-01-10T09:00:00Z",
		"user":             "",
	}
}

func (s *StepsContext) kandjiReportsDevice(deviceID, name string) error {
	s.tc.Kandji.Upsert(kandjiDevice(deviceID, name))
	return nil
}

func (s *StepsContext) kandjiReportsDeviceForUser(deviceID, name, userID, userName string) error {
	d := kandjiDevice(deviceID, name)
	d["user"] = map[string]any{
		"id":          userID,
		"name":        userName,
		"email":       strings.ToLower(strings.ReplaceAll(userName, " ", ".")) + "@example.com",
		"is_archived": false,
	}
	s.tc.Kandji.Upsert(d)
	return nil
}

// Request steps

func (s *StepsContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}

func (s *StepsContext) iTriggerASync() error {
	return s.do(http.MethodPost, "/sync", nil)
}

func (s *StepsContext) iTriggerASyncForCompany(name string) error {
	id, err := s.companyID(name)
	if err != nil {
		return err
	}
	return s.do(http.MethodPost, "/sync", map[string]uint{"company_id": id})
}

func (s *StepsContext) iRequest(path string) error {
	return s.do(http.MethodGet, path, nil)
}

func (s *StepsContext) iRequestTheDevicesOfCompany(name string) error {
	id, err := s.companyID(name)
	if err != nil {
		return err
	}
	return s.do(http.MethodGet, fmt.Sprintf("/devices?company_id=%d", id), nil)
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(s.responseBody), text) {
		return fmt.Errorf("expected response to contain %q, got %s", text, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theSyncShouldReport(inserted, updated, unchanged int) error {
	var summary syncer.Summary
	if err := json.Unmarshal(s.responseBody, &summary); err != nil {
		return fmt.Errorf("failed to parse sync summary: %w", err)
	}
	got := summary.Totals
	if got.Inserted != inserted || got.Updated != updated || got.Unchanged != unchanged {
		return fmt.Errorf("expected %d/%d/%d inserted/updated/unchanged, got %d/%d/%d",
			inserted, updated, unchanged, got.Inserted, got.Updated, got.Unchanged)
	}
	return nil
}

// Inventory steps

func (s *StepsContext) findDevice(deviceID, companyName string) (*model.Device, error) {
	id, err := s.companyID(companyName)
	if err != nil {
		return nil, err
	}
	return s.tc.Stores.Devices.FindDevice(context.Background(), id, deviceID)
}

func (s *StepsContext) companyShouldHaveDevices(name string, count int) error {
	id, err := s.companyID(name)
	if err != nil {
		return err
	}
	devices, err := s.tc.Stores.Devices.ListDevices(context.Background(), id)
	if err != nil {
		return err
	}
	if len(devices) != count {
		return fmt.Errorf("expected %d devices for %s, got %d", count, name, len(devices))
	}
	return nil
}

func (s *StepsContext) companyShouldHaveUsers(name string, count int) error {
	id, err := s.companyID(name)
	if err != nil {
		return err
	}
	users, err := s.tc.Stores.Users.ListUsers(context.Background(), id)
	if err != nil {
		return err
	}
	if len(users) != count {
		return fmt.Errorf("expected %d users for %s, got %d", count, name, len(users))
	}
	return nil
}

func (s *StepsContext) deviceShouldBeAssignedTo(deviceID, companyName, externalRef string) error {
	device, err := s.findDevice(deviceID, companyName)
	if err != nil {
		return err
	}
	user, err := s.tc.Stores.Users.FindUser(context.Background(), device.CompanyID, externalRef)
	if err != nil {
		return err
	}
	if device.UserID != user.ID {
		return fmt.Errorf("device %s is assigned to user %d, expected %d", deviceID, device.UserID, user.ID)
	}
	return nil
}

func (s *StepsContext) deviceShouldHaveChangeLogEntry(deviceID, companyName, text string) error {
	device, err := s.findDevice(deviceID, companyName)
	if err != nil {
		return err
	}
	entries, err := s.tc.Stores.ChangeLog.ListChangeLog(context.Background(), device.ID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.Contains(e.UpdateText, text) {
			return nil
		}
	}
	return fmt.Errorf("no change log entry of device %s contains %q (%d entries)", deviceID, text, len(entries))
}

func (s *StepsContext) deviceShouldHaveNoChangeLogEntries(deviceID, companyName string) error {
	device, err := s.findDevice(deviceID, companyName)
	if err != nil {
		return err
	}
	entries, err := s.tc.Stores.ChangeLog.ListChangeLog(context.Background(), device.ID)
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("expected no change log entries for %s, got %d", deviceID, len(entries))
	}
	return nil
}
