package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "L2Q"

// ErrInvalidPort is returned by ResolvePort for a port argument that is not
// a valid TCP port.
var ErrInvalidPort = errors.New("invalid port")

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Admin   AdminConfig   `yaml:"admin" envconfig:"ADMIN"`
	Env     string        `yaml:"env" envconfig:"ENV" default:"development"`

	// PortArg is the first positional argument, if any. It overrides
	// Server.Port once ResolvePort is called.
	PortArg string `yaml:"-" ignored:"true"`
}

// ServerConfig configures the reactor.
type ServerConfig struct {
	Port           int           `yaml:"port" envconfig:"PORT" default:"10000"`
	ReadBufferSize int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"8192"`
	PollTimeout    time.Duration `yaml:"poll_timeout" envconfig:"POLL_TIMEOUT" default:"100ms"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text"`
}

// AdminConfig configures the side server exposing /ping and /metrics.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Addr    string `yaml:"addr" envconfig:"ADDR" default:":10001"`
}

// Default returns the configuration with every default applied and no
// environment or file overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           10000,
			ReadBufferSize: 8192,
			PollTimeout:    100 * time.Millisecond,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Admin:   AdminConfig{Addr: ":10001"},
		Env:     "development",
	}
}

// Load builds the configuration from, in increasing precedence: defaults,
// L2Q_* environment variables, the YAML file named by -config, and flags.
// The first positional argument is kept in PortArg for ResolvePort.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	fs := flag.NewFlagSet("json-server", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to a YAML config file")
		port       = fs.Int("port", cfg.Server.Port, "HTTP server port")
		logLevel   = fs.String("log-level", cfg.Logging.Level, "log level (debug/info/warn/error/critical)")
		logFormat  = fs.String("log-format", cfg.Logging.Format, "log format (text/json)")
		admin      = fs.Bool("admin", cfg.Admin.Enabled, "serve /ping and /metrics on the admin address")
		adminAddr  = fs.String("admin-addr", cfg.Admin.Addr, "admin server address")
		env        = fs.String("env", cfg.Env, "Environment (development/production)")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		case "admin":
			cfg.Admin.Enabled = *admin
		case "admin-addr":
			cfg.Admin.Addr = *adminAddr
		case "env":
			cfg.Env = *env
		}
	})

	cfg.PortArg = fs.Arg(0)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// ResolvePort applies PortArg to Server.Port. An unparsable or out of range
// argument leaves Server.Port untouched and returns an error wrapping
// ErrInvalidPort; callers log it and carry on.
func (c *Config) ResolvePort() error {
	if c.PortArg == "" {
		return nil
	}
	port, err := strconv.Atoi(c.PortArg)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidPort, c.PortArg, err)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("%w %q: out of range", ErrInvalidPort, c.PortArg)
	}
	c.Server.Port = port
	return nil
}
