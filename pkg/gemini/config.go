package gemini

import (
	"crypto/tls"
	"time"
)

const (
	DefaultMaxRedirects     = 15
	DefaultDialTimeoutSecs  = 10
	DefaultReadTimeoutSecs  = 30
	DefaultMaxResponseBytes = 10 << 20
	DefaultMinTLSVersion    = "1.2"
)

// Config controls how the gateway talks to Gemini servers.
type Config struct {
	DefaultPort  int             `yaml:"default_port"`
	MaxRedirects int             `yaml:"max_redirects"`
	Transport    TransportConfig `yaml:"transport"`
}

type TransportConfig struct {
	// InsecureSkipVerify defaults to true: Gemini capsules are overwhelmingly
	// self-signed and trust-on-first-use is not implemented.
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify"`
	DialTimeoutSecs    int    `yaml:"dial_timeout_seconds"`
	ReadTimeoutSecs    int    `yaml:"read_timeout_seconds"`
	MaxResponseBytes   int64  `yaml:"max_response_bytes"`
	MinTLSVersion      string `yaml:"min_tls_version"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.DefaultPort <= 0 {
		c.DefaultPort = DefaultPort
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	c.Transport = c.Transport.withDefaults()
	return c
}

func (c TransportConfig) withDefaults() TransportConfig {
	if c.DialTimeoutSecs <= 0 {
		c.DialTimeoutSecs = DefaultDialTimeoutSecs
	}
	if c.ReadTimeoutSecs <= 0 {
		c.ReadTimeoutSecs = DefaultReadTimeoutSecs
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if c.MinTLSVersion == "" {
		c.MinTLSVersion = DefaultMinTLSVersion
	}
	return c
}

func (c TransportConfig) insecure() bool {
	return isEnabled(c.InsecureSkipVerify, true)
}

func (c TransportConfig) dialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSecs) * time.Second
}

func (c TransportConfig) readTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

// parseTLSVersion returns tls.VersionTLS12 for empty or unknown values.
func parseTLSVersion(version string) uint16 {
	switch version {
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
