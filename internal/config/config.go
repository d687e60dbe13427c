// Package config loads the ServerCaptain TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/ecairns22/ServerCaptain/internal/procexec"
)

const defaultConfigPath = "/etc/servercaptain/servercaptain.conf"
const envOverride = "SERVERCAPTAIN_CONFIG"
const defaultTimeoutMS = 10000

type Config struct {
	Log     LogConfig     `toml:"log"`
	Scripts ScriptsConfig `toml:"scripts"`
	Shell   ShellConfig   `toml:"shell"`
	Service ServiceConfig `toml:"service"`
	History HistoryConfig `toml:"history"`
	Release ReleaseConfig `toml:"release"`
}

// LogConfig controls the command output mirror and diagnostic logging.
type LogConfig struct {
	File   string `toml:"file"`   // empty disables mirroring
	Header string `toml:"header"` // written once before the first mirrored line
	Level  string `toml:"level"`
}

type ScriptsConfig struct {
	Dir        string `toml:"dir"`
	ServerInfo string `toml:"server_info"`
}

type ShellConfig struct {
	Path string   `toml:"path"`
	Args []string `toml:"args"`
}

type ServiceConfig struct {
	Name           string `toml:"name"`
	Backend        string `toml:"backend"` // systemd or scm
	TimeoutMS      *int   `toml:"timeout_ms"` // 0 checks the state once without waiting
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// HistoryConfig selects where operation history is kept. The sqlite driver
// uses Path; mysql uses the connection fields and reads the password from
// PasswordFile.
type HistoryConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	PasswordFile string `toml:"password_file"`
	Database     string `toml:"database"`
	Password     string `toml:"-"` // resolved at load time, never serialized
}

type ReleaseConfig struct {
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`
	Token string `toml:"token"`
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	if p := os.Getenv(envOverride); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads configuration from the default path. A missing file at the
// built-in path yields the defaults; a missing file named by the
// environment is an error.
func Load() (*Config, error) {
	path := DefaultPath()
	cfg, err := LoadFrom(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return Default(), nil
	}
	return cfg, err
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFrom reads configuration from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Resolve the history database password from file
	if cfg.History.Driver == "mysql" && cfg.History.PasswordFile != "" {
		pwData, err := os.ReadFile(cfg.History.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("reading history db password from %s: %w", cfg.History.PasswordFile, err)
		}
		cfg.History.Password = strings.TrimSpace(string(pwData))
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Header == "" {
		c.Log.Header = "Command output:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Scripts.Dir == "" {
		c.Scripts.Dir = defaultScriptDir()
	}
	if c.Scripts.ServerInfo == "" {
		c.Scripts.ServerInfo = "steam_server_info" + scriptExt()
	}
	if c.Shell.Path == "" {
		sh := procexec.DefaultShell()
		c.Shell.Path = sh.Path
		if c.Shell.Args == nil {
			c.Shell.Args = sh.Args
		}
	}
	if c.Service.Backend == "" {
		c.Service.Backend = defaultBackend()
	}
	if c.Service.TimeoutMS == nil {
		ms := defaultTimeoutMS
		c.Service.TimeoutMS = &ms
	}
	if c.Service.PollIntervalMS == 0 {
		c.Service.PollIntervalMS = 250
	}
	if c.History.Driver == "" {
		c.History.Driver = "sqlite"
	}
	if c.History.Driver == "sqlite" && c.History.Path == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.History.Driver == "mysql" {
		if c.History.Host == "" {
			c.History.Host = "127.0.0.1"
		}
		if c.History.Port == 0 {
			c.History.Port = 3306
		}
		if c.History.Database == "" {
			c.History.Database = "servercaptain"
		}
	}
	if c.Release.Owner == "" {
		c.Release.Owner = "ecairns22"
	}
	if c.Release.Repo == "" {
		c.Release.Repo = "ServerCaptain"
	}
}

func (c *Config) validate() error {
	switch c.Service.Backend {
	case "systemd", "scm":
	default:
		return fmt.Errorf("config: service.backend must be systemd or scm, got %q", c.Service.Backend)
	}
	if *c.Service.TimeoutMS < 0 {
		return fmt.Errorf("config: service.timeout_ms must not be negative")
	}
	if c.Service.PollIntervalMS < 0 {
		return fmt.Errorf("config: service.poll_interval_ms must not be negative")
	}
	switch c.History.Driver {
	case "sqlite":
	case "mysql":
		if c.History.User == "" {
			return fmt.Errorf("config: history.user is required for the mysql driver")
		}
	default:
		return fmt.Errorf("config: history.driver must be sqlite or mysql, got %q", c.History.Driver)
	}
	return nil
}

// ShellSpec returns the configured shell as a process spec builder.
func (c *Config) ShellSpec() procexec.ShellSpec {
	return procexec.ShellSpec{Path: c.Shell.Path, Args: c.Shell.Args}
}

// ServiceTimeout is the default wait for start and stop.
func (c *Config) ServiceTimeout() time.Duration {
	return time.Duration(*c.Service.TimeoutMS) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Service.PollIntervalMS) * time.Millisecond
}

// DSN returns the data source name for the history driver.
func (h HistoryConfig) DSN() string {
	if h.Driver != "mysql" {
		return h.Path
	}
	mc := mysql.NewConfig()
	mc.User = h.User
	mc.Passwd = h.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
	mc.DBName = h.Database
	return mc.FormatDSN()
}

func defaultScriptDir() string {
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\ServerCaptain\scripts`
	}
	return "/opt/servercaptain/scripts"
}

func defaultHistoryPath() string {
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\ServerCaptain\history.db`
	}
	return "/var/lib/servercaptain/history.db"
}

func defaultBackend() string {
	if runtime.GOOS == "windows" {
		return "scm"
	}
	return "systemd"
}

func scriptExt() string {
	if runtime.GOOS == "windows" {
		return ".bat"
	}
	return ".sh"
}

// TemplateConfig returns a TOML template with placeholder values for first-time setup.
func TemplateConfig() string {
	return `[log]
# Command output is appended here. Leave empty to disable.
file   = "/var/log/servercaptain/output.log"
header = "Command output:"
level  = "info"

[scripts]
dir         = "/opt/servercaptain/scripts"
server_info = "steam_server_info.sh"

[shell]
path = "/bin/sh"
args = ["-c"]

[service]
name             = "your-service"
backend          = "systemd"
timeout_ms       = 10000
poll_interval_ms = 250

[history]
driver = "sqlite"
path   = "/var/lib/servercaptain/history.db"
# driver        = "mysql"
# host          = "127.0.0.1"
# port          = 3306
# user          = "servercaptain"
# password_file = "/root/.servercaptain_db_password"
# database      = "servercaptain"

[release]
owner = "ecairns22"
repo  = "ServerCaptain"
token = ""
`
}
