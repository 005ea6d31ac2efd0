package gemini

import (
	"os"
	"strconv"
	"strings"
)

// ConfigFromEnv builds a gemini config using environment variables.
func ConfigFromEnv() *Config {
	return ApplyEnvOverrides((&Config{}).WithDefaults())
}

// ApplyEnvOverrides replaces fields with every GEMINI_* variable that is set
// and valid, regardless of what cfg already holds.
func ApplyEnvOverrides(cfg *Config) *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.DefaultPort = envInt(cfg.DefaultPort, os.Getenv("GEMINI_DEFAULT_PORT"))
	cfg.MaxRedirects = envInt(cfg.MaxRedirects, os.Getenv("GEMINI_MAX_REDIRECTS"))

	if insecure, ok := envBool(os.Getenv("GEMINI_INSECURE_SKIP_VERIFY")); ok {
		cfg.Transport.InsecureSkipVerify = &insecure
	}
	cfg.Transport.DialTimeoutSecs = envInt(cfg.Transport.DialTimeoutSecs, os.Getenv("GEMINI_DIAL_TIMEOUT_SECONDS"))
	cfg.Transport.ReadTimeoutSecs = envInt(cfg.Transport.ReadTimeoutSecs, os.Getenv("GEMINI_READ_TIMEOUT_SECONDS"))
	cfg.Transport.MaxResponseBytes = int64(envInt(int(cfg.Transport.MaxResponseBytes), os.Getenv("GEMINI_MAX_RESPONSE_BYTES")))
	if version := strings.TrimSpace(os.Getenv("GEMINI_MIN_TLS_VERSION")); version != "" {
		cfg.Transport.MinTLSVersion = version
	}

	return cfg
}

// ApplyEnvDefaults fills empty config fields from environment variables.
func ApplyEnvDefaults(cfg *Config) *Config {
	if cfg == nil {
		return ConfigFromEnv()
	}
	envCfg := ConfigFromEnv()

	if cfg.DefaultPort <= 0 {
		cfg.DefaultPort = envCfg.DefaultPort
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = envCfg.MaxRedirects
	}
	if cfg.Transport.InsecureSkipVerify == nil {
		cfg.Transport.InsecureSkipVerify = envCfg.Transport.InsecureSkipVerify
	}
	if cfg.Transport.DialTimeoutSecs <= 0 {
		cfg.Transport.DialTimeoutSecs = envCfg.Transport.DialTimeoutSecs
	}
	if cfg.Transport.ReadTimeoutSecs <= 0 {
		cfg.Transport.ReadTimeoutSecs = envCfg.Transport.ReadTimeoutSecs
	}
	if cfg.Transport.MaxResponseBytes <= 0 {
		cfg.Transport.MaxResponseBytes = envCfg.Transport.MaxResponseBytes
	}
	if cfg.Transport.MinTLSVersion == "" {
		cfg.Transport.MinTLSVersion = envCfg.Transport.MinTLSVersion
	}

	return cfg.WithDefaults()
}

func envInt(existing int, value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return existing
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return existing
	}
	return n
}

func envBool(value string) (bool, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false
	}
	return b, true
}
