package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/sources"
)

const (
	DefaultConfigPath = "/etc/devicehub"
	ConfigFileName    = "devicehub.yml"

	DefaultGraphBaseURL   = "https://graph.microsoft.com/v1.0"
	DefaultGraphAuthority = "https://login.microsoftonline.com"
)

// DevicehubConfig holds the non-secret settings of the server and CLI.
// Secrets such as DATABASE_URL and DEVICEHUB_DATA_KEY are read from the
// environment by the commands that need them.
type DevicehubConfig struct {
	// EnabledSources lists the source tags a sync run visits, in order.
	EnabledSources []string `yaml:"enabled_sources" json:"enabled_sources"`

	// SyncConcurrency is the number of companies reconciled at once.
	SyncConcurrency int `yaml:"sync_concurrency" json:"sync_concurrency"`

	// SyncIntervalSeconds schedules background runs in the server. 0 disables them.
	SyncIntervalSeconds int `yaml:"sync_interval_seconds" json:"sync_interval_seconds"`

	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds" json:"http_timeout_seconds"`
	KandjiAPIURL       string `yaml:"kandji_api_url" json:"kandji_api_url"`
	GraphBaseURL       string `yaml:"graph_base_url" json:"graph_base_url"`
	GraphAuthority     string `yaml:"graph_authority" json:"graph_authority"`

	// FetchMaxRetries is the number of retries of a failed source request.
	FetchMaxRetries int `yaml:"fetch_max_retries" json:"fetch_max_retries"`

	// sources tracks where each value came from
	sources map[string]string

	configFilePath string
}

// fileConfig distinguishes absent keys from zero values in the YAML file.
type fileConfig struct {
	EnabledSources      []string `yaml:"enabled_sources"`
	SyncConcurrency     *int     `yaml:"sync_concurrency"`
	SyncIntervalSeconds *int     `yaml:"sync_interval_seconds"`
	HTTPTimeoutSeconds  *int     `yaml:"http_timeout_seconds"`
	KandjiAPIURL        *string  `yaml:"kandji_api_url"`
	GraphBaseURL        *string  `yaml:"graph_base_url"`
	GraphAuthority      *string  `yaml:"graph_authority"`
	FetchMaxRetries     *int     `yaml:"fetch_max_retries"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

var (
	globalConfig *DevicehubConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *DevicehubConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Set replaces the global configuration.
func Set(cfg *DevicehubConfig) {
	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	Set(cfg)
	return nil
}

func newDefault() *DevicehubConfig {
	return &DevicehubConfig{
		EnabledSources:      []string{"intune", "kandji"},
		SyncConcurrency:     1,
		SyncIntervalSeconds: 0,
		HTTPTimeoutSeconds:  30,
		GraphBaseURL:        DefaultGraphBaseURL,
		GraphAuthority:      DefaultGraphAuthority,
		FetchMaxRetries:     3,
		sources:             make(map[string]string),
	}
}

// Path returns the config file location from DEVICEHUB_CONFIG_PATH.
func Path() string {
	dir := os.Getenv("DEVICEHUB_CONFIG_PATH")
	if dir == "" {
		dir = DefaultConfigPath
	}
	return filepath.Join(dir, ConfigFileName)
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*DevicehubConfig, error) {
	return LoadFile(Path())
}

// LoadFile is Load with an explicit file path. A missing file is not an error.
func LoadFile(path string) (*DevicehubConfig, error) {
	config := newDefault()
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}
	config.configFilePath = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		config.applyFileConfig(&file)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config.applyEnvConfig()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func attributeNames() []string {
	return []string{
		"enabled_sources", "sync_concurrency", "sync_interval_seconds",
		"http_timeout_seconds", "kandji_api_url", "graph_base_url",
		"graph_authority", "fetch_max_retries",
	}
}

func (c *DevicehubConfig) applyFileConfig(file *fileConfig) {
	if len(file.EnabledSources) > 0 {
		c.EnabledSources = file.EnabledSources
		c.sources["enabled_sources"] = "file"
	}
	setInt := func(name string, dst *int, v *int) {
		if v != nil {
			*dst = *v
			c.sources[name] = "file"
		}
	}
	setString := func(name string, dst *string, v *string) {
		if v != nil {
			*dst = *v
			c.sources[name] = "file"
		}
	}
	setInt("sync_concurrency", &c.SyncConcurrency, file.SyncConcurrency)
	setInt("sync_interval_seconds", &c.SyncIntervalSeconds, file.SyncIntervalSeconds)
	setInt("http_timeout_seconds", &c.HTTPTimeoutSeconds, file.HTTPTimeoutSeconds)
	setString("kandji_api_url", &c.KandjiAPIURL, file.KandjiAPIURL)
	setString("graph_base_url", &c.GraphBaseURL, file.GraphBaseURL)
	setString("graph_authority", &c.GraphAuthority, file.GraphAuthority)
	setInt("fetch_max_retries", &c.FetchMaxRetries, file.FetchMaxRetries)
}

func (c *DevicehubConfig) applyEnvConfig() {
	if val := os.Getenv("DEVICEHUB_ENABLED_SOURCES"); val != "" {
		c.EnabledSources = splitAndTrim(val)
		c.sources["enabled_sources"] = "environment"
	}
	envInt := func(name string, dst *int) {
		key := "DEVICEHUB_" + strings.ToUpper(name)
		if val := os.Getenv(key); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
				c.sources[name] = "environment"
			}
		}
	}
	envString := func(name string, dst *string) {
		key := "DEVICEHUB_" + strings.ToUpper(name)
		if val := os.Getenv(key); val != "" {
			*dst = val
			c.sources[name] = "environment"
		}
	}
	envInt("sync_concurrency", &c.SyncConcurrency)
	envInt("sync_interval_seconds", &c.SyncIntervalSeconds)
	envInt("http_timeout_seconds", &c.HTTPTimeoutSeconds)
	envString("kandji_api_url", &c.KandjiAPIURL)
	envString("graph_base_url", &c.GraphBaseURL)
	envString("graph_authority", &c.GraphAuthority)
	envInt("fetch_max_retries", &c.FetchMaxRetries)
}

// ConfigFilePath returns the path to the config file
func (c *DevicehubConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *DevicehubConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// SourceKinds parses EnabledSources. Validate has already rejected unknown tags.
func (c *DevicehubConfig) SourceKinds() []model.SourceKind {
	kinds := make([]model.SourceKind, 0, len(c.EnabledSources))
	for _, tag := range c.EnabledSources {
		if kind, err := model.SourceKindString(tag); err == nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func (c *DevicehubConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *DevicehubConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// SourceOptions builds the adapter options for a sync run.
func (c *DevicehubConfig) SourceOptions() sources.Options {
	return sources.Options{
		HTTPClient:     &http.Client{Timeout: c.HTTPTimeout()},
		GraphBaseURL:   c.GraphBaseURL,
		GraphAuthority: c.GraphAuthority,
		KandjiAPIURL:   c.KandjiAPIURL,
		MaxRetries:     uint(c.FetchMaxRetries),
	}
}

// Validate validates the configuration
func (c *DevicehubConfig) Validate() error {
	for _, tag := range c.EnabledSources {
		if _, err := model.SourceKindString(tag); err != nil {
			return fmt.Errorf("invalid enabled_sources value: %s", tag)
		}
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("sync_concurrency must be at least 1, got %d", c.SyncConcurrency)
	}
	if c.SyncIntervalSeconds < 0 {
		return fmt.Errorf("sync_interval_seconds must not be negative, got %d", c.SyncIntervalSeconds)
	}
	if c.HTTPTimeoutSeconds < 1 {
		return fmt.Errorf("http_timeout_seconds must be at least 1, got %d", c.HTTPTimeoutSeconds)
	}
	if c.FetchMaxRetries < 0 {
		return fmt.Errorf("fetch_max_retries must not be negative, got %d", c.FetchMaxRetries)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *DevicehubConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "enabled_sources", Value: strings.Join(c.EnabledSources, ","), Source: c.Source("enabled_sources")},
		{Name: "sync_concurrency", Value: strconv.Itoa(c.SyncConcurrency), Source: c.Source("sync_concurrency")},
		{Name: "sync_interval_seconds", Value: strconv.Itoa(c.SyncIntervalSeconds), Source: c.Source("sync_interval_seconds")},
		{Name: "http_timeout_seconds", Value: strconv.Itoa(c.HTTPTimeoutSeconds), Source: c.Source("http_timeout_seconds")},
		{Name: "kandji_api_url", Value: c.KandjiAPIURL, Source: c.Source("kandji_api_url")},
		{Name: "graph_base_url", Value: c.GraphBaseURL, Source: c.Source("graph_base_url")},
		{Name: "graph_authority", Value: c.GraphAuthority, Source: c.Source("graph_authority")},
		{Name: "fetch_max_retries", Value: strconv.Itoa(c.FetchMaxRetries), Source: c.Source("fetch_max_retries")},
	}
}

// FormatText returns a text representation of the configuration
func (c *DevicehubConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *DevicehubConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
