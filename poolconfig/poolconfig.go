// Package poolconfig loads pool settings from YAML or TOML files.
//
// A file names the backend to connect to, the driver to use and the pool's
// tuning; anything left out takes the library default:
//
//	driver: pgx
//	connection:
//	  host: db.internal
//	  port: 5432
//	  service: orders
//	  username: app
//	  password_env: ORDERS_DB_PASSWORD
//	  tls: true
//	pool:
//	  max_size: 16
//	  wait_timeout: 10s
//	  recycle_timeout: none
package poolconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/yuku/sessionpool"
	"github.com/yuku/sessionpool/pgxdriver"
	"github.com/yuku/sessionpool/sqldriver"
	"gopkg.in/yaml.v3"
)

// Supported driver names.
const (
	DriverPgx   = "pgx"
	DriverPq    = "pq"
	DriverMySQL = "mysql"
)

// File is the top-level layout of a config file.
type File struct {
	Driver     string     `yaml:"driver" toml:"driver"`
	Connection Connection `yaml:"connection" toml:"connection"`
	Pool       Pool       `yaml:"pool" toml:"pool"`
	Logging    Logging    `yaml:"logging" toml:"logging"`
}

// Connection describes the backend.
type Connection struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Service  string `yaml:"service" toml:"service"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`

	// PasswordEnv names an environment variable holding the password. It
	// takes precedence over Password when the variable is set.
	PasswordEnv string `yaml:"password_env" toml:"password_env"`

	TLS        bool        `yaml:"tls" toml:"tls"`
	ServerPool *ServerPool `yaml:"server_pool" toml:"server_pool"`
}

// ServerPool requests a session from a server-side pool.
type ServerPool struct {
	Name   string `yaml:"name" toml:"name"`
	Purity string `yaml:"purity" toml:"purity"`
}

// Pool holds tuning. Nil fields take the library default; an explicit zero
// is passed through, so "max_size: 0" is rejected by the builder and
// "wait_timeout: 0s" fails fast.
type Pool struct {
	MaxSize        *int      `yaml:"max_size" toml:"max_size"`
	WaitTimeout    *Duration `yaml:"wait_timeout" toml:"wait_timeout"`
	CreateTimeout  *Duration `yaml:"create_timeout" toml:"create_timeout"`
	RecycleTimeout *Duration `yaml:"recycle_timeout" toml:"recycle_timeout"`
}

// Logging configures the logger built by the CLI.
type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads the file at path, choosing the format from its extension
// (.yaml, .yml or .toml), and validates it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the given format ("yaml", "yml" or "toml", with or
// without a leading dot) and validates the result.
func Parse(data []byte, format string) (*File, error) {
	var f File

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks f and applies defaults.
func (f *File) Validate() error {
	c := &f.Connection
	if c.Host == "" {
		return fmt.Errorf("connection.host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("connection.port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Service == "" {
		return fmt.Errorf("connection.service must not be empty")
	}
	if c.ServerPool != nil {
		if c.ServerPool.Name == "" {
			return fmt.Errorf("connection.server_pool.name must not be empty")
		}
		switch sessionpool.Purity(c.ServerPool.Purity) {
		case "":
			c.ServerPool.Purity = string(sessionpool.PuritySelf)
		case sessionpool.PuritySelf, sessionpool.PurityNew:
		default:
			return fmt.Errorf("connection.server_pool.purity must be %q or %q, got %q",
				sessionpool.PuritySelf, sessionpool.PurityNew, c.ServerPool.Purity)
		}
	}

	switch f.Driver {
	case "":
		f.Driver = DriverPgx
	case DriverPgx, DriverPq, DriverMySQL:
	default:
		return fmt.Errorf("driver must be one of %s, %s or %s, got %q", DriverPgx, DriverPq, DriverMySQL, f.Driver)
	}

	// Apply defaults
	if f.Logging.Level == "" {
		f.Logging.Level = "info"
	}
	if f.Logging.Format == "" {
		f.Logging.Format = "text"
	}

	return nil
}

// ConnectionConfig returns the backend described by the file. The password
// is resolved from PasswordEnv at call time.
func (f *File) ConnectionConfig() sessionpool.ConnectionConfig {
	c := f.Connection

	password := c.Password
	if c.PasswordEnv != "" {
		if v, ok := os.LookupEnv(c.PasswordEnv); ok {
			password = v
		}
	}

	cfg := sessionpool.NewConnectionConfig(c.Host, c.Port, c.Service, c.Username, password)
	if c.TLS {
		cfg = cfg.WithTLS()
	}
	if c.ServerPool != nil {
		cfg = cfg.WithServerPool(c.ServerPool.Name, sessionpool.Purity(c.ServerPool.Purity))
	}
	return cfg
}

// Tuning returns the library defaults overridden by the file's pool section.
func (f *File) Tuning() sessionpool.TuningParameters {
	tuning := sessionpool.DefaultTuning()
	if f.Pool.MaxSize != nil {
		tuning.MaxSize = *f.Pool.MaxSize
	}
	if f.Pool.WaitTimeout != nil {
		tuning.Timeouts.Wait = f.Pool.WaitTimeout.Std()
	}
	if f.Pool.CreateTimeout != nil {
		tuning.Timeouts.Create = f.Pool.CreateTimeout.Std()
	}
	if f.Pool.RecycleTimeout != nil {
		tuning.Timeouts.Recycle = f.Pool.RecycleTimeout.Std()
	}
	return tuning
}

// NewDriver returns the driver named by the file.
func (f *File) NewDriver() (sessionpool.Driver, error) {
	switch f.Driver {
	case DriverPgx, "":
		return pgxdriver.New(), nil
	case DriverPq:
		return sqldriver.Postgres(), nil
	case DriverMySQL:
		return sqldriver.MySQL(), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", f.Driver)
	}
}

// Builder returns a pool builder for the file's connection and tuning using
// driver. A nil driver selects the one named by the file.
func (f *File) Builder(driver sessionpool.Driver, logger *slog.Logger) (*sessionpool.PoolBuilder, error) {
	if driver == nil {
		d, err := f.NewDriver()
		if err != nil {
			return nil, err
		}
		driver = d
	}

	tuning := f.Tuning()
	b := sessionpool.NewPoolBuilder(f.ConnectionConfig(), driver).
		MaxSize(tuning.MaxSize).
		Timeouts(tuning.Timeouts)
	if logger != nil {
		b = b.Logger(logger)
	}
	return b, nil
}
