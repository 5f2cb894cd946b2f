package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/toyreact/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "toyreact.json"

	// YAMLConfigFileName is the name of the YAML configuration file, used
	// when no JSON file is present.
	YAMLConfigFileName = "toyreact.yaml"

	// DefaultPort is the default preview server port.
	DefaultPort = 3000

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultApp is the demo app rendered when none is named.
	DefaultApp = "counter"

	// DefaultMetricsPath is where the preview server exposes metrics.
	DefaultMetricsPath = "/metrics"
)

// Config represents a toyreact.json (or toyreact.yaml) file.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// App is the demo app to render.
	App string `json:"app,omitempty" yaml:"app,omitempty"`

	// Dev contains preview server configuration.
	Dev DevConfig `json:"dev,omitempty" yaml:"dev,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Publish contains snapshot upload configuration.
	Publish PublishConfig `json:"publish,omitempty" yaml:"publish,omitempty"`

	// History contains snapshot history configuration.
	History HistoryConfig `json:"history,omitempty" yaml:"history,omitempty"`

	configPath string
}

// DevConfig contains preview server settings.
type DevConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// HotReload pushes every re-render to connected browsers.
	HotReload bool `json:"hotReload,omitempty" yaml:"hotReload,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings. Spans are exported as JSON
// lines to Output, or to stderr when Output is empty.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
	Output     string `json:"output,omitempty" yaml:"output,omitempty"`
}

// PublishConfig contains S3 snapshot upload settings.
type PublishConfig struct {
	// Bucket is the destination bucket.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the AWS region (default: from AWS_REGION).
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// HistoryConfig contains snapshot history settings. History is off when
// Path is empty.
type HistoryConfig struct {
	// Path is the bbolt file, relative to the config file's directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Limit caps the snapshots kept per app (0: unlimited).
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		App: DefaultApp,
		Dev: DevConfig{
			Host:      DefaultHost,
			Port:      DefaultPort,
			HotReload: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: "toyreact",
		},
		Tracing: TracingConfig{
			TracerName: "toyreact",
		},
	}
}

// Load reads configuration from dir, preferring toyreact.json over
// toyreact.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return nil, errors.New("E403").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir)
}

// LoadOrDefault is Load, but returns the defaults when dir has no
// configuration file.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E403") {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadFile(p string) (*Config, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E403").WithDetail("No config file at " + p)
		}
		return nil, errors.New("E401").Wrap(err)
	}

	cfg := New()
	if isYAML(p) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E401").
			WithDetail("Failed to parse " + filepath.Base(p) + ": " + err.Error())
	}

	cfg.configPath = p
	cfg.applyDefaults()
	return cfg, nil
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(p string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(p) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E401").Wrap(err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return errors.New("E401").Wrap(err)
	}
	c.configPath = p
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.App == "" {
		c.App = DefaultApp
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "toyreact"
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "toyreact"
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E402").
			WithDetail("dev.port must be between 0 and 65535")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E402").
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E402").
			WithDetailf("log.format %q is not text or json", c.Log.Format)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("E402").
			WithDetailf("metrics.path %q must start with /", c.Metrics.Path)
	}
	if c.History.Limit < 0 {
		return errors.New("E402").
			WithDetail("history.limit must not be negative")
	}
	return nil
}

// DevAddress returns the listen address of the preview server.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Dev.Host, strconv.Itoa(c.Dev.Port))
}

// DevURL returns the preview server URL.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// LogLevel returns the configured slog level, or info if it is invalid.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// ObjectKey joins the publish prefix and name into an object key.
func (c *Config) ObjectKey(name string) string {
	if c.Publish.Prefix == "" {
		return name
	}
	return path.Join(c.Publish.Prefix, name)
}

// HistoryPath returns the history file, resolved against the directory of
// the config file. It is empty when history is off.
func (c *Config) HistoryPath() string {
	p := c.History.Path
	if p == "" || filepath.IsAbs(p) || c.configPath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.configPath), p)
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func isYAML(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".yaml" || ext == ".yml"
}
