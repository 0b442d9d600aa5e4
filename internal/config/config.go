// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"network-analyser/internal/telemetry"
)

// Default values applied to fields left empty in the YAML file.
const (
	DefaultTickInterval  = 2 * time.Second
	DefaultSensorID      = "sensor-01"
	DefaultAdminAddr     = ":8080"
	DefaultLogLevel      = "info"
	DefaultMQTTTopic     = "netsec/snapshots"
	DefaultRedisKey      = "netsec:snapshot:latest"
	DefaultRedisChannel  = "netsec:snapshots"
	DefaultRedisTTL      = time.Minute
	DefaultGreptimeDB    = "public"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
)

// Generator holds the probability thresholds used by the snapshot generator.
// Pointers distinguish "unset" from an explicit zero.
type Generator struct {
	NetworkWarningProbability  *float64 `yaml:"network_warning_probability"`
	NetworkCriticalProbability *float64 `yaml:"network_critical_probability"`
	FirewallWarningThreshold   *float64 `yaml:"firewall_warning_threshold"`
	SSLWarningThreshold        *float64 `yaml:"ssl_warning_threshold"`
	IntrusionCriticalThreshold *float64 `yaml:"intrusion_critical_threshold"`
	IntrusionWarningThreshold  *float64 `yaml:"intrusion_warning_threshold"`
	HighSeverityThreshold      *float64 `yaml:"high_severity_threshold"`
	MediumSeverityThreshold    *float64 `yaml:"medium_severity_threshold"`
}

// Admin configures the HTTP admin surface.
type Admin struct {
	Addr string `yaml:"addr"`
}

// Log configures the process logger. An empty File logs to stdout.
type Log struct {
	Level      string `yaml:"level"`
	// Format is "text" (default) or "json".
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Greptime configures the GreptimeDB sink. It is disabled when Endpoint is empty.
type Greptime struct {
	Endpoint      string `yaml:"endpoint"`
	Database      string `yaml:"database"`
	NetworkTable  string `yaml:"network_table"`
	TrafficTable  string `yaml:"traffic_table"`
	AnomalyTable  string `yaml:"anomaly_table"`
	SecurityTable string `yaml:"security_table"`
}

// MQTT configures the MQTT sink. It is disabled when Broker is empty.
type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// Redis configures the Redis sink. It is disabled when Addr is empty.
type Redis struct {
	Addr    string        `yaml:"addr"`
	Key     string        `yaml:"key"`
	Channel string        `yaml:"channel"`
	TTL     time.Duration `yaml:"ttl"`
}

// Outputs groups the optional broker and database sinks.
type Outputs struct {
	Greptime Greptime `yaml:"greptime"`
	MQTT     MQTT     `yaml:"mqtt"`
	Redis    Redis    `yaml:"redis"`
}

// AnalyserConfig is the root configuration of the analyser.
type AnalyserConfig struct {
	SensorID     string        `yaml:"sensor_id"`
	TickInterval time.Duration `yaml:"tick_interval"`
	Generator    Generator     `yaml:"generator"`
	Admin        Admin         `yaml:"admin"`
	Log          Log           `yaml:"log"`
	Outputs      Outputs       `yaml:"outputs"`
}

// Load loads YAML config, validates it against a CUE schema and applies
// defaults followed by environment overrides. An empty schema path skips
// CUE validation.
func Load(configPath, cueSchemaPath string) (*AnalyserConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML bytes and fills defaults. Environment overrides are
// not applied.
func Parse(data []byte) (*AnalyserConfig, error) {
	var cfg AnalyserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *AnalyserConfig {
	var cfg AnalyserConfig
	cfg.applyDefaults()
	return &cfg
}

func (c *AnalyserConfig) applyDefaults() {
	if c.SensorID == "" {
		c.SensorID = DefaultSensorID
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = DefaultAdminAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}

	g := &c.Outputs.Greptime
	if g.Database == "" {
		g.Database = DefaultGreptimeDB
	}
	if g.NetworkTable == "" {
		g.NetworkTable = "network_status"
	}
	if g.TrafficTable == "" {
		g.TrafficTable = "traffic_samples"
	}
	if g.AnomalyTable == "" {
		g.AnomalyTable = "anomalies"
	}
	if g.SecurityTable == "" {
		g.SecurityTable = "security_metrics"
	}

	if c.Outputs.MQTT.Topic == "" {
		c.Outputs.MQTT.Topic = DefaultMQTTTopic
	}
	r := &c.Outputs.Redis
	if r.Key == "" {
		r.Key = DefaultRedisKey
	}
	if r.Channel == "" {
		r.Channel = DefaultRedisChannel
	}
	if r.TTL == 0 {
		r.TTL = DefaultRedisTTL
	}
}

// ApplyEnv overrides fields from environment variables looked up through
// lookup. Supported variables are TICK_INTERVAL, SENSOR_ID, ADMIN_ADDR,
// LOG_LEVEL, LOG_FORMAT, GREPTIMEDB_ENDPOINT, MQTT_BROKER and REDIS_ADDR.
func (c *AnalyserConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TICK_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL %q: %w", v, err)
		}
		c.TickInterval = d
	}
	if v, ok := lookup("SENSOR_ID"); ok && v != "" {
		c.SensorID = v
	}
	if v, ok := lookup("ADMIN_ADDR"); ok && v != "" {
		c.Admin.Addr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup("GREPTIMEDB_ENDPOINT"); ok {
		c.Outputs.Greptime.Endpoint = v
	}
	if v, ok := lookup("MQTT_BROKER"); ok {
		c.Outputs.MQTT.Broker = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		c.Outputs.Redis.Addr = v
	}
	return c.Validate()
}

// Validate checks invariants that the CUE schema cannot see after
// environment overrides.
func (c *AnalyserConfig) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	p := c.Profile()
	for name, v := range map[string]float64{
		"network_warning_probability":  p.NetworkWarningProbability,
		"network_critical_probability": p.NetworkCriticalProbability,
		"firewall_warning_threshold":   p.FirewallWarningThreshold,
		"ssl_warning_threshold":        p.SSLWarningThreshold,
		"intrusion_critical_threshold": p.IntrusionCriticalThreshold,
		"intrusion_warning_threshold":  p.IntrusionWarningThreshold,
		"high_severity_threshold":      p.HighSeverityThreshold,
		"medium_severity_threshold":    p.MediumSeverityThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("generator.%s must be within [0,1], got %v", name, v)
		}
	}
	if p.NetworkWarningProbability+p.NetworkCriticalProbability > 1 {
		return fmt.Errorf("network warning and critical probabilities exceed 1")
	}
	return nil
}

// Profile maps the generator section onto a telemetry.Profile, keeping the
// default for every unset field.
func (c *AnalyserConfig) Profile() telemetry.Profile {
	p := telemetry.DefaultProfile()
	g := c.Generator
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.NetworkWarningProbability, g.NetworkWarningProbability)
	set(&p.NetworkCriticalProbability, g.NetworkCriticalProbability)
	set(&p.FirewallWarningThreshold, g.FirewallWarningThreshold)
	set(&p.SSLWarningThreshold, g.SSLWarningThreshold)
	set(&p.IntrusionCriticalThreshold, g.IntrusionCriticalThreshold)
	set(&p.IntrusionWarningThreshold, g.IntrusionWarningThreshold)
	set(&p.HighSeverityThreshold, g.HighSeverityThreshold)
	set(&p.MediumSeverityThreshold, g.MediumSeverityThreshold)
	return p
}
