package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ModeCLI    = "cli"
	ModeServer = "server"
	ModeBoth   = "both"
)

type Config struct {
	Mode      string `mapstructure:"mode"`
	Port      string `mapstructure:"port"`
	InputFile string `mapstructure:"input_file"`

	LogLevel    string `mapstructure:"log_level"`
	Environment string `mapstructure:"environment"`

	OTelServiceName     string        `mapstructure:"otel_service_name"`
	OTelServiceVersion  string        `mapstructure:"otel_service_version"`
	OTelEndpoint        string        `mapstructure:"otel_endpoint"`
	OTelDisabled        bool          `mapstructure:"otel_disabled"`
	MetricsInterval     time.Duration `mapstructure:"metrics_interval"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

var defaults = map[string]any{
	"mode":                  ModeCLI,
	"port":                  "8080",
	"input_file":            "",
	"log_level":             "info",
	"environment":           "development",
	"otel_service_name":     "parking-lot-service",
	"otel_service_version":  "1.0.0",
	"otel_endpoint":         "http://localhost:4318",
	"otel_disabled":         false,
	"metrics_interval":      5 * time.Second,
	"shutdown_grace_period": 10 * time.Second,
}

var envBindings = map[string]string{
	"mode":                  "PARKING_MODE",
	"port":                  "PORT",
	"input_file":            "PARKING_INPUT_FILE",
	"log_level":             "LOG_LEVEL",
	"environment":           "ENVIRONMENT",
	"otel_service_name":     "OTEL_SERVICE_NAME",
	"otel_service_version":  "OTEL_SERVICE_VERSION",
	"otel_endpoint":         "OTEL_EXPORTER_OTLP_ENDPOINT",
	"otel_disabled":         "OTEL_SDK_DISABLED",
	"metrics_interval":      "METRICS_EXPORT_INTERVAL",
	"shutdown_grace_period": "SHUTDOWN_TIMEOUT",
}

// Load reads configuration from command line arguments (without the program
// name) and the environment. Flags win over environment variables. A single
// positional argument is treated as the command input file.
func Load(args []string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "bind %s", env)
		}
	}

	flags := pflag.NewFlagSet("parking-lot", pflag.ContinueOnError)
	flags.String("mode", ModeCLI, "Mode to run: cli, server, or both")
	flags.String("port", "8080", "Port for HTTP server")
	flags.String("file", "", "Read shell commands from this file instead of stdin")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	for key, name := range map[string]string{
		"mode":       "mode",
		"port":       "port",
		"input_file": "file",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, errors.Wrapf(err, "bind flag %s", name)
		}
	}

	switch positional := flags.Args(); len(positional) {
	case 0:
	case 1:
		if !flags.Changed("file") {
			v.Set("input_file", positional[0])
		}
	default:
		return nil, errors.Errorf("unexpected arguments: %v", positional)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeCLI, ModeServer, ModeBoth:
	default:
		return errors.Errorf("invalid mode %q: must be cli, server, or both", c.Mode)
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.MetricsInterval <= 0 {
		return errors.New("metrics interval must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
