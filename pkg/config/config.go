// Package config provides configuration loading and validation for textpatch.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidLogLevel    = errors.New("invalid logging level")
	ErrInvalidLogFormat   = errors.New("invalid logging format")
	ErrInvalidSampleRatio = errors.New("telemetry sample ratio must be within [0, 1]")
	ErrInvalidTimeout     = errors.New("timeout must not be negative")
	ErrInvalidBodyLimit   = errors.New("server body limit must be positive")
	ErrInvalidCodec       = errors.New("invalid snapshot codec")
)

const maxPort = 65535

// Accepted enumerations.
var (
	OutputFormats  = []string{"table", "text", "json", "yaml"}
	LogLevels      = []string{"debug", "info", "warn", "error"}
	LogFormats     = []string{"text", "json"}
	SnapshotCodecs = []string{"json", "gob"}
	envKeyReplacer = strings.NewReplacer(".", "_")
)

// Config holds all configuration for textpatch.
type Config struct {
	Patch     PatchConfig     `mapstructure:"patch"`
	Diff      DiffConfig      `mapstructure:"diff"`
	Output    OutputConfig    `mapstructure:"output"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// PatchConfig controls how patches are built.
type PatchConfig struct {
	// Seed makes tree shapes reproducible. Nil draws priorities from the
	// global generator.
	Seed *uint64 `mapstructure:"seed"`
	// Validate checks every invariant after each edit. Slow; meant for debugging.
	Validate bool `mapstructure:"validate"`
}

// DiffConfig controls edit extraction between two texts.
type DiffConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	LineMode bool          `mapstructure:"line_mode"`
	Cleanup  bool          `mapstructure:"cleanup"`
}

// OutputConfig controls how change lists are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	Port            int           `mapstructure:"port"`

	// StateDir keeps document snapshots across restarts. Empty keeps
	// documents in memory only.
	StateDir         string `mapstructure:"state_dir"`
	SnapshotCodec    string `mapstructure:"snapshot_codec"`
	SnapshotCompress bool   `mapstructure:"snapshot_compress"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the collector's gRPC address. Empty disables export.
	OTLPEndpoint string            `mapstructure:"otlp_endpoint"`
	OTLPHeaders  map[string]string `mapstructure:"otlp_headers"`
	Insecure     bool              `mapstructure:"insecure"`
	SampleRatio  float64           `mapstructure:"sample_ratio"`
	ServiceName  string            `mapstructure:"service_name"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("textpatch")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/textpatch")
	}

	viperCfg.SetEnvPrefix("TEXTPATCH")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(envKeyReplacer)

	// patch.seed has no default, since unset and zero differ, so its
	// variable must be bound by name.
	bindErr := viperCfg.BindEnv("patch.seed")
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", bindErr)
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("patch.validate", DefaultPatchValidate)

	viperCfg.SetDefault("diff.timeout", DefaultDiffTimeout)
	viperCfg.SetDefault("diff.line_mode", DefaultDiffLineMode)
	viperCfg.SetDefault("diff.cleanup", DefaultDiffCleanup)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.color", DefaultOutputColor)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)
	viperCfg.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	viperCfg.SetDefault("server.max_body_bytes", DefaultServerMaxBodyBytes)
	viperCfg.SetDefault("server.state_dir", DefaultServerStateDir)
	viperCfg.SetDefault("server.snapshot_codec", DefaultServerSnapshotCodec)
	viperCfg.SetDefault("server.snapshot_compress", DefaultServerSnapshotCompress)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryEndpoint)
	viperCfg.SetDefault("telemetry.insecure", DefaultTelemetryInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.service_name", DefaultTelemetryServiceName)
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBodyLimit, c.Server.MaxBodyBytes)
	}

	if !slices.Contains(SnapshotCodecs, c.Server.SnapshotCodec) {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Server.SnapshotCodec)
	}

	if !slices.Contains(OutputFormats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if !slices.Contains(LogLevels, c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(LogFormats, c.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	for name, d := range map[string]time.Duration{
		"diff.timeout":            c.Diff.Timeout,
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidTimeout, name, d)
		}
	}

	return nil
}
