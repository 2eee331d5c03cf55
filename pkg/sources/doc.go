// Package sources defines the adapter contract for device-management
// platforms and the HTTP plumbing the adapters share.
//
// Adapters build their HTTP clients inside FetchDevices, once per call, so
// no client state outlives a synchronization run. Transient failures (network
// errors, 429 and 5xx responses) are retried with exponential backoff; other
// 4xx responses fail immediately.
//
// Subpackages intune and kandji implement Source; package all registers both.
package sources
