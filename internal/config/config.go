// Package config assembles the plugin's runtime configuration from three
// layers: built-in defaults, an optional TOML file, and environment
// variables. Later layers win.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/seabird-chat/seabird-radio/pkg/client"
	"github.com/seabird-chat/seabird-radio/pkg/radio"
)

// Environment variable names.
const (
	EnvURL      = "SEABIRD_URL"
	EnvToken    = "SEABIRD_TOKEN"
	EnvLogLevel = "SEABIRD_LOG_LEVEL"
)

// DefaultCoreURL is used when neither the file nor the environment names a
// core endpoint.
const DefaultCoreURL = "wss://api.seabird.chat/ws"

// Config is the fully resolved plugin configuration.
type Config struct {
	// Token authenticates the plugin with the core. Required.
	Token string

	// LogLevel controls slog verbosity.
	LogLevel slog.Level

	// DebugAddr, when non-empty, serves /metrics, /healthz and /readyz.
	DebugAddr string

	// Client configures the core connection and dispatch.
	Client *client.Config

	// Radio configures upstream data fetching.
	Radio *radio.Config
}

// Default returns the built-in configuration. The token is left empty and
// must come from the file or environment.
func Default() *Config {
	clientCfg := client.DefaultConfig()
	clientCfg.URL = DefaultCoreURL

	return &Config{
		LogLevel: slog.LevelInfo,
		Client:   clientCfg,
		Radio:    radio.DefaultConfig(),
	}
}

// duration lets TOML carry durations as strings like "30s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// fileConfig maps config.toml keys onto runtime settings.
type fileConfig struct {
	CoreURL    string `toml:"core_url"`
	Token      string `toml:"token"`
	PluginName string `toml:"plugin_name"`
	LogLevel   string `toml:"log_level"`
	DebugAddr  string `toml:"debug_addr"`

	Connection struct {
		DialTimeout       duration `toml:"dial_timeout"`
		HandshakeTimeout  duration `toml:"handshake_timeout"`
		WriteTimeout      duration `toml:"write_timeout"`
		HeartbeatInterval duration `toml:"heartbeat_interval"`
		LivenessTimeout   duration `toml:"liveness_timeout"`
		BackoffBase       duration `toml:"backoff_base"`
		BackoffCap        duration `toml:"backoff_cap"`
	} `toml:"connection"`

	Dispatch struct {
		MaxInFlight       int      `toml:"max_in_flight"`
		InvocationTimeout duration `toml:"invocation_timeout"`
	} `toml:"dispatch"`

	Upstream struct {
		SolarURL       string   `toml:"solar_url"`
		SpotsURL       string   `toml:"spots_url"`
		CacheTTL       duration `toml:"cache_ttl"`
		RatePerSecond  float64  `toml:"rate_per_second"`
		Burst          int      `toml:"burst"`
		MaxWait        duration `toml:"max_wait"`
		Retries        int      `toml:"retries"`
		RetryDelay     duration `toml:"retry_delay"`
		RequestTimeout duration `toml:"request_timeout"`
	} `toml:"upstream"`
}

// Load builds the configuration: defaults, then the TOML file at path if
// non-empty, then environment variables. It fails if no token was provided
// by any layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvURL)); v != "" {
		cfg.Client.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		level, err := ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("load config: %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("load config: no token: set %s or the token key in the config file", EnvToken)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("core_url") {
		cfg.Client.URL = strings.TrimSpace(raw.CoreURL)
	}
	if meta.IsDefined("token") {
		cfg.Token = strings.TrimSpace(raw.Token)
	}
	if meta.IsDefined("plugin_name") {
		cfg.Client.PluginName = strings.TrimSpace(raw.PluginName)
	}
	if meta.IsDefined("log_level") {
		level, err := ParseLevel(raw.LogLevel)
		if err != nil {
			return fmt.Errorf("load config: log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("debug_addr") {
		cfg.DebugAddr = strings.TrimSpace(raw.DebugAddr)
	}

	if meta.IsDefined("connection", "dial_timeout") {
		cfg.Client.DialTimeout = time.Duration(raw.Connection.DialTimeout)
	}
	if meta.IsDefined("connection", "handshake_timeout") {
		cfg.Client.HandshakeTimeout = time.Duration(raw.Connection.HandshakeTimeout)
	}
	if meta.IsDefined("connection", "write_timeout") {
		cfg.Client.WriteTimeout = time.Duration(raw.Connection.WriteTimeout)
	}
	if meta.IsDefined("connection", "heartbeat_interval") {
		cfg.Client.HeartbeatInterval = time.Duration(raw.Connection.HeartbeatInterval)
	}
	if meta.IsDefined("connection", "liveness_timeout") {
		cfg.Client.LivenessTimeout = time.Duration(raw.Connection.LivenessTimeout)
	}
	if meta.IsDefined("connection", "backoff_base") {
		cfg.Client.BackoffBase = time.Duration(raw.Connection.BackoffBase)
	}
	if meta.IsDefined("connection", "backoff_cap") {
		cfg.Client.BackoffCap = time.Duration(raw.Connection.BackoffCap)
	}

	if meta.IsDefined("dispatch", "max_in_flight") {
		cfg.Client.MaxInFlight = raw.Dispatch.MaxInFlight
	}
	if meta.IsDefined("dispatch", "invocation_timeout") {
		cfg.Client.InvocationTimeout = time.Duration(raw.Dispatch.InvocationTimeout)
	}

	if meta.IsDefined("upstream", "solar_url") {
		cfg.Radio.SolarURL = strings.TrimSpace(raw.Upstream.SolarURL)
	}
	if meta.IsDefined("upstream", "spots_url") {
		cfg.Radio.SpotsURL = strings.TrimSpace(raw.Upstream.SpotsURL)
	}
	if meta.IsDefined("upstream", "cache_ttl") {
		cfg.Radio.CacheTTL = time.Duration(raw.Upstream.CacheTTL)
	}
	if meta.IsDefined("upstream", "rate_per_second") {
		cfg.Radio.RatePerSecond = raw.Upstream.RatePerSecond
	}
	if meta.IsDefined("upstream", "burst") {
		cfg.Radio.Burst = raw.Upstream.Burst
	}
	if meta.IsDefined("upstream", "max_wait") {
		cfg.Radio.MaxWait = time.Duration(raw.Upstream.MaxWait)
	}
	if meta.IsDefined("upstream", "retries") {
		cfg.Radio.Retries = raw.Upstream.Retries
	}
	if meta.IsDefined("upstream", "retry_delay") {
		cfg.Radio.RetryDelay = time.Duration(raw.Upstream.RetryDelay)
	}
	if meta.IsDefined("upstream", "request_timeout") {
		cfg.Radio.RequestTimeout = time.Duration(raw.Upstream.RequestTimeout)
	}

	return nil
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
