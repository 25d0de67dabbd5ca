// Package config loads service settings from config.yaml and CLINICMAP_*
// environment variables.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override,
// e.g. CLINICMAP_DATABASE_HOST for database.host.
const EnvPrefix = "CLINICMAP"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Map       MapConfig       `mapstructure:"map"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

// DSN builds a postgres URL; credentials are escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// MapConfig tunes when labels appear and how they collide.
type MapConfig struct {
	ZoomedInThreshold float64 `mapstructure:"zoomed_in_threshold"`
	DefaultLatDelta   float64 `mapstructure:"default_lat_delta"`
	DefaultRadiusKm   float64 `mapstructure:"default_radius_km"`
	LabelBoxWidth     float64 `mapstructure:"label_box_width"`
	LabelBoxHeight    float64 `mapstructure:"label_box_height"`
	ClinicRegionDelta float64 `mapstructure:"clinic_region_delta"`
	FallbackLat       float64 `mapstructure:"fallback_lat"`
	FallbackLng       float64 `mapstructure:"fallback_lng"`
	FallbackDelta     float64 `mapstructure:"fallback_delta"`
}

var defaults = map[string]any{
	"server.port":          8080,
	"server.read_timeout":  10,
	"server.write_timeout": 10,

	"log.level":  "info",
	"log.format": "json",

	"database.host":      "localhost",
	"database.port":      5432,
	"database.user":      "clinicmap",
	"database.password":  "",
	"database.dbname":    "clinicmap",
	"database.sslmode":   "disable",
	"database.max_conns": 20,

	"nats.url":          "nats://localhost:4222",
	"valkey.addr":       "localhost:6379",
	"valkey.key_prefix": "clinicmap:",

	"telemetry.otlp_addr": "tempo:4317",
	"telemetry.enabled":   true,

	"temporal.host_port":  "localhost:7233",
	"temporal.namespace":  "default",
	"temporal.task_queue": "directory-sync",

	"map.zoomed_in_threshold": 0.05,
	"map.default_lat_delta":   0.12,
	"map.default_radius_km":   25.0,
	"map.label_box_width":     0.14,
	"map.label_box_height":    0.06,
	"map.clinic_region_delta": 0.3,
	"map.fallback_lat":        25.276987,
	"map.fallback_lng":        55.296249,
	"map.fallback_delta":      0.5,
}

func setDefaults(v *viper.Viper, service string) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetDefault("telemetry.service_name", service)
}

// Load merges defaults, an optional config file and the environment, then
// validates the result. CLINICMAP_CONFIG names an explicit file; otherwise
// config.yaml is looked up in . and ./configs.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Server.problems()...)
	errs = append(errs, c.Database.problems()...)
	errs = append(errs, c.Map.problems()...)

	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

func (s ServerConfig) problems() []string {
	var errs []string
	if !validPort(s.Port) {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	return errs
}

func (d DatabaseConfig) problems() []string {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if !validPort(d.Port) {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user is required")
	}
	if d.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if d.MaxConns <= 0 {
		errs = append(errs, "database.max_conns must be positive")
	}
	return errs
}

func (m MapConfig) problems() []string {
	var errs []string
	positive := []struct {
		key string
		val float64
	}{
		{"map.zoomed_in_threshold", m.ZoomedInThreshold},
		{"map.default_lat_delta", m.DefaultLatDelta},
		{"map.default_radius_km", m.DefaultRadiusKm},
		{"map.clinic_region_delta", m.ClinicRegionDelta},
		{"map.fallback_delta", m.FallbackDelta},
	}
	for _, p := range positive {
		if p.val <= 0 {
			errs = append(errs, p.key+" must be positive")
		}
	}
	if m.LabelBoxWidth <= 0 || m.LabelBoxWidth > 1 {
		errs = append(errs, "map.label_box_width must be in (0,1]")
	}
	if m.LabelBoxHeight <= 0 || m.LabelBoxHeight > 1 {
		errs = append(errs, "map.label_box_height must be in (0,1]")
	}
	if m.FallbackLat < -90 || m.FallbackLat > 90 || m.FallbackLng < -180 || m.FallbackLng > 180 {
		errs = append(errs, "map fallback region must be a valid coordinate")
	}
	return errs
}
