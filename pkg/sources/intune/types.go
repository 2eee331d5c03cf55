package intune

import "github.com/doodlesbykumbi/devicehub/pkg/sources"

type managedDevicePage struct {
	Value    []managedDevice `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

// managedDevice is the subset of the Graph managedDevice resource we map.
type managedDevice struct {
	ID                       string            `json:"id"`
	DeviceName               string            `json:"deviceName"`
	UserID                   string            `json:"userId"`
	UserDisplayName          string            `json:"userDisplayName"`
	UserPrincipalName        string            `json:"userPrincipalName"`
	EmailAddress             string            `json:"emailAddress"`
	EnrolledDateTime         sources.Timestamp `json:"enrolledDateTime"`
	LastSyncDateTime         sources.Timestamp `json:"lastSyncDateTime"`
	OperatingSystem          string            `json:"operatingSystem"`
	OsVersion                string            `json:"osVersion"`
	Manufacturer             string            `json:"manufacturer"`
	Model                    string            `json:"model"`
	SerialNumber             string            `json:"serialNumber"`
	TotalStorageSpaceInBytes int64             `json:"totalStorageSpaceInBytes"`
	FreeStorageSpaceInBytes  int64             `json:"freeStorageSpaceInBytes"`
	PhysicalMemoryInBytes    int64             `json:"physicalMemoryInBytes"`
}

type graphUser struct {
	Department string `json:"department"`
}
