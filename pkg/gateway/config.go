package gateway

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/beeper/gemini-gateway/pkg/gemini"
)

//go:embed example-config.yaml
var ExampleConfig string

const (
	DefaultListen             = "0.0.0.0:3000"
	DefaultRequestTimeoutSecs = 60
	DefaultMetricsPath        = "/metrics"
)

// Config is the gateway process configuration.
type Config struct {
	Listen             string            `yaml:"listen"`
	RequestTimeoutSecs int               `yaml:"request_timeout_seconds"`
	EscapePreformatted bool              `yaml:"escape_preformatted"`
	Metrics            MetricsConfig     `yaml:"metrics"`
	Gemini             gemini.Config     `yaml:"gemini"`
	Logging            zeroconfig.Config `yaml:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = DefaultListen
	}
	if c.RequestTimeoutSecs <= 0 {
		c.RequestTimeoutSecs = DefaultRequestTimeoutSecs
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		c.Metrics.Path = "/" + c.Metrics.Path
	}
	c.Gemini = *gemini.ApplyEnvDefaults(&c.Gemini)
	return c
}

func (c *Config) requestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// DefaultConfig returns the bundled example configuration.
func DefaultConfig() (*Config, error) {
	return LoadConfig("")
}

// LoadConfig layers the example configuration, then GEMINI_* environment
// variables, then the file at path. A missing file yields the first two layers.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(ExampleConfig), &cfg); err != nil {
		return nil, fmt.Errorf("parse example config: %w", err)
	}
	gemini.ApplyEnvOverrides(&cfg.Gemini)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err = yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	return cfg.WithDefaults(), nil
}
