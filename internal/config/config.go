// Copyright 2025 Minseo Park
//
// Configuration for the ChatGPT MCP tool

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// TransportType represents the MCP transport type
type TransportType string

const (
	// TransportStdio uses stdin/stdout for communication
	TransportStdio TransportType = "stdio"
	// TransportHTTP uses HTTP/SSE for communication
	TransportHTTP TransportType = "sse"
)

// Config holds the configuration for the MCP tool
type Config struct {
	Transport         TransportType
	HTTPAddress       string
	HTTPSocketPath    string
	CORSOrigin        string
	AuditLogPath      string
	HeartbeatInterval time.Duration
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	RequestTimeout    time.Duration
	WaitInterval      time.Duration
	WaitMax           time.Duration
	WaitStableCycles  int
	RateLimit         float64
	Debug             bool
}

// Load reads configuration from the environment (CHATGPT_MCP_* variables)
// with viper, applying defaults and validating the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHATGPT_MCP")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("transport", string(TransportStdio))
	v.SetDefault("http_address", ":8080")
	v.SetDefault("http_socket", "")
	v.SetDefault("cors_origin", "*")
	v.SetDefault("audit_log", "")
	v.SetDefault("heartbeat_interval", 30*time.Second)
	v.SetDefault("http_read_timeout", 30*time.Second)
	// Write timeout is disabled by default for SSE stream compatibility.
	v.SetDefault("http_write_timeout", time.Duration(0))
	v.SetDefault("request_timeout", 30*time.Minute)
	v.SetDefault("wait_interval", 1500*time.Millisecond)
	v.SetDefault("wait_max", 20*time.Minute)
	v.SetDefault("wait_stable_cycles", 2)
	v.SetDefault("rate_limit", float64(0))
	v.SetDefault("debug", false)

	cfg := &Config{
		Transport:         TransportType(v.GetString("transport")),
		HTTPAddress:       v.GetString("http_address"),
		HTTPSocketPath:    v.GetString("http_socket"),
		CORSOrigin:        v.GetString("cors_origin"),
		AuditLogPath:      v.GetString("audit_log"),
		HeartbeatInterval: v.GetDuration("heartbeat_interval"),
		HTTPReadTimeout:   v.GetDuration("http_read_timeout"),
		HTTPWriteTimeout:  v.GetDuration("http_write_timeout"),
		RequestTimeout:    v.GetDuration("request_timeout"),
		WaitInterval:      v.GetDuration("wait_interval"),
		WaitMax:           v.GetDuration("wait_max"),
		WaitStableCycles:  v.GetInt("wait_stable_cycles"),
		RateLimit:         v.GetFloat64("rate_limit"),
		Debug:             v.GetBool("debug"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("invalid transport type: %s (must be 'stdio' or 'sse')", c.Transport)
	}
	if c.Transport == TransportHTTP && c.HTTPAddress == "" && c.HTTPSocketPath == "" {
		return fmt.Errorf("http transport requires CHATGPT_MCP_HTTP_ADDRESS or CHATGPT_MCP_HTTP_SOCKET")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid value for CHATGPT_MCP_REQUEST_TIMEOUT: must be positive")
	}
	if c.WaitInterval <= 0 {
		return fmt.Errorf("invalid value for CHATGPT_MCP_WAIT_INTERVAL: must be positive")
	}
	if c.WaitMax <= 0 {
		return fmt.Errorf("invalid value for CHATGPT_MCP_WAIT_MAX: must be positive")
	}
	if c.WaitStableCycles <= 0 {
		return fmt.Errorf("invalid value for CHATGPT_MCP_WAIT_STABLE_CYCLES: must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid value for CHATGPT_MCP_RATE_LIMIT: must not be negative")
	}
	return nil
}

// WaitSettings exposes the wait tuning in the shape the conversation layer
// consumes.
func (c *Config) WaitSettings() (interval, max time.Duration, stableCycles int) {
	return c.WaitInterval, c.WaitMax, c.WaitStableCycles
}
