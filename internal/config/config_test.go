package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "servercaptain.conf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePasswordFile(t *testing.T, dir, password string) string {
	t.Helper()
	path := filepath.Join(dir, "dbpass")
	if err := os.WriteFile(path, []byte(password), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `[log]
file   = "/tmp/sc/output.log"
header = "Backup output:"
level  = "debug"

[scripts]
dir         = "/srv/scripts"
server_info = "info.sh"

[shell]
path = "/bin/bash"
args = ["-c"]

[service]
name             = "spaceengineers"
backend          = "systemd"
timeout_ms       = 5000
poll_interval_ms = 100

[history]
driver = "sqlite"
path   = "/tmp/sc/history.db"

[release]
owner = "someone"
repo  = "fork"
`

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, validConfig)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Log.File != "/tmp/sc/output.log" || cfg.Log.Header != "Backup output:" || cfg.Log.Level != "debug" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Scripts.Dir != "/srv/scripts" || cfg.Scripts.ServerInfo != "info.sh" {
		t.Errorf("scripts = %+v", cfg.Scripts)
	}
	sh := cfg.ShellSpec()
	if sh.Path != "/bin/bash" || len(sh.Args) != 1 || sh.Args[0] != "-c" {
		t.Errorf("shell = %+v", sh)
	}
	if cfg.Service.Name != "spaceengineers" {
		t.Errorf("service.name = %q", cfg.Service.Name)
	}
	if cfg.ServiceTimeout() != 5*time.Second {
		t.Errorf("ServiceTimeout() = %v, want 5s", cfg.ServiceTimeout())
	}
	if cfg.PollInterval() != 100*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 100ms", cfg.PollInterval())
	}
	if cfg.History.DSN() != "/tmp/sc/history.db" {
		t.Errorf("DSN() = %q", cfg.History.DSN())
	}
	if cfg.Release.Owner != "someone" || cfg.Release.Repo != "fork" {
		t.Errorf("release = %+v", cfg.Release)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFrom("/nonexistent/path/config.toml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, "[service\nname = ")
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad backend", "[service]\nbackend = \"launchd\"\n", "service.backend"},
		{"negative timeout", "[service]\ntimeout_ms = -1\n", "service.timeout_ms"},
		{"negative poll", "[service]\npoll_interval_ms = -5\n", "service.poll_interval_ms"},
		{"bad driver", "[history]\ndriver = \"postgres\"\n", "history.driver"},
		{"mysql without user", "[history]\ndriver = \"mysql\"\n", "history.user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestConfig(t, t.TempDir(), tt.content)
			_, err := LoadFrom(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, "")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Log.File != "" {
		t.Errorf("default log.file = %q, want empty", cfg.Log.File)
	}
	if cfg.Log.Header != "Command output:" {
		t.Errorf("default log.header = %q", cfg.Log.Header)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log.level = %q", cfg.Log.Level)
	}
	if cfg.Shell.Path == "" || len(cfg.Shell.Args) == 0 {
		t.Errorf("default shell = %+v", cfg.Shell)
	}
	if cfg.ServiceTimeout() != 10*time.Second {
		t.Errorf("default service timeout = %v", cfg.ServiceTimeout())
	}
	if cfg.Service.PollIntervalMS != 250 {
		t.Errorf("default service.poll_interval_ms = %d", cfg.Service.PollIntervalMS)
	}
	if cfg.History.Driver != "sqlite" || cfg.History.Path == "" {
		t.Errorf("default history = %+v", cfg.History)
	}
	if !strings.HasPrefix(cfg.Scripts.ServerInfo, "steam_server_info.") {
		t.Errorf("default scripts.server_info = %q", cfg.Scripts.ServerInfo)
	}
}

func TestZeroTimeoutIsKept(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), "[service]\ntimeout_ms = 0\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceTimeout() != 0 {
		t.Errorf("ServiceTimeout() = %v, want 0 (single check)", cfg.ServiceTimeout())
	}
}

func TestMySQLHistory(t *testing.T) {
	dir := t.TempDir()
	pwFile := writePasswordFile(t, dir, "secret123\n")
	content := strings.ReplaceAll(`[history]
driver        = "mysql"
host          = "db.internal"
user          = "captain"
password_file = "%s"
`, "%s", pwFile)
	path := writeTestConfig(t, dir, content)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.History.Password != "secret123" {
		t.Errorf("password = %q, want trimmed secret123", cfg.History.Password)
	}
	if cfg.History.Port != 3306 || cfg.History.Database != "servercaptain" {
		t.Errorf("mysql defaults = %+v", cfg.History)
	}
	dsn := cfg.History.DSN()
	if !strings.HasPrefix(dsn, "captain:secret123@tcp(db.internal:3306)/servercaptain") {
		t.Errorf("DSN() = %q", dsn)
	}
}

func TestMySQLMissingPasswordFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, `[history]
driver        = "mysql"
user          = "captain"
password_file = "/nonexistent/dbpass"
`)
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for missing password file")
	}
}

func TestTemplateConfig(t *testing.T) {
	tmpl := TemplateConfig()
	for _, section := range []string{"[log]", "[scripts]", "[shell]", "[service]", "[history]", "[release]"} {
		if !strings.Contains(tmpl, section) {
			t.Errorf("template should contain %s section", section)
		}
	}

	// The template must itself be a loadable config.
	path := writeTestConfig(t, t.TempDir(), tmpl)
	if _, err := LoadFrom(path); err != nil {
		t.Errorf("template does not load: %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, "[service]\nname = \"envsvc\"\n")

	t.Setenv(envOverride, path)
	got := DefaultPath()
	if got != path {
		t.Errorf("DefaultPath() = %q, want %q", got, path)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service.Name != "envsvc" {
		t.Errorf("service.name = %q, want envsvc", cfg.Service.Name)
	}
}

func TestEnvOverrideMissingFile(t *testing.T) {
	t.Setenv(envOverride, filepath.Join(t.TempDir(), "absent.conf"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error when the overridden path does not exist")
	}
}
