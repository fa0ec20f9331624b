package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/peltload/pelt/internal/config"
)

func writeYAML(t *testing.T, doc map[string]interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pelt.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// TestLoadDefaults checks the defaults applied with just a target URL.
func TestLoadDefaults(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"http://example.com"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TargetURL != "http://example.com" {
		t.Errorf("target: got %q", cfg.TargetURL)
	}
	if cfg.Method != "GET" || cfg.Workers != 50 || cfg.Requests != 200 {
		t.Errorf("defaults wrong: %+v", cfg)
	}
	if cfg.DNS != config.DNSAuto || !cfg.TCPNoDelay || cfg.FPS != 16 {
		t.Errorf("connection defaults wrong: %+v", cfg)
	}
	if cfg.Tracing.Protocol != "grpc" || cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("tracing defaults wrong: %+v", cfg.Tracing)
	}
}

// TestLoadFlags exercises the short-flag surface.
func TestLoadFlags(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{
		"-n", "1000",
		"-c", "25",
		"-q", "100",
		"-m", "post",
		"-t", "5s",
		"-d", `{"a":1}`,
		"-T", "application/json",
		"-a", "user:pass",
		"-H", "X-Token: abc",
		"-H", "x-other: def",
		"--disable-keepalive",
		"--insecure",
		"--ipv4",
		"--no-tui",
		"http://example.com/api",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Requests != 1000 || cfg.Workers != 25 || cfg.Rate != 100 {
		t.Errorf("run shape wrong: %+v", cfg)
	}
	if cfg.Method != "POST" {
		t.Errorf("method: got %q", cfg.Method)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout: got %s", cfg.Timeout)
	}
	if cfg.Body != `{"a":1}` || cfg.ContentType != "application/json" {
		t.Errorf("body config wrong: %+v", cfg)
	}
	if cfg.BasicAuth != "user:pass" {
		t.Errorf("auth: got %q", cfg.BasicAuth)
	}
	if cfg.Headers["X-Token"] != "abc" || cfg.Headers["X-Other"] != "def" {
		t.Errorf("headers wrong: %v", cfg.Headers)
	}
	if !cfg.DisableKeepAlive || !cfg.Insecure || !cfg.NoTUI {
		t.Errorf("toggles wrong: %+v", cfg)
	}
	if cfg.DNS != config.DNSIPv4 {
		t.Errorf("dns: got %q", cfg.DNS)
	}
}

// TestLoadDurationZeroesDefaultRequests mirrors the rule that -z takes
// over the run unless -n was also given.
func TestLoadDurationZeroesDefaultRequests(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"-z", "30s", "http://example.com"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("duration: got %s", cfg.Duration)
	}
	if cfg.Requests != 0 {
		t.Errorf("requests should be zeroed by -z, got %d", cfg.Requests)
	}

	cfg, err = config.NewLoader().Load([]string{"-z", "30s", "-n", "500", "http://example.com"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Requests != 500 || cfg.Duration != 30*time.Second {
		t.Errorf("both limits should stick: %+v", cfg)
	}
}

// TestLoadConfigFile reads settings from a YAML file.
func TestLoadConfigFile(t *testing.T) {
	path := writeYAML(t, map[string]interface{}{
		"target":   "http://file.example.com",
		"method":   "PUT",
		"workers":  5,
		"requests": 50,
		"rate":     10,
		"timeout":  "2s",
		"headers": map[string]string{
			"x-from-file": "yes",
		},
		"tcp_nodelay": false,
		"tracing": map[string]interface{}{
			"endpoint":    "localhost:4317",
			"protocol":    "http",
			"sample_rate": 0.5,
		},
	})

	cfg, err := config.NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TargetURL != "http://file.example.com" || cfg.Method != "PUT" {
		t.Errorf("file values wrong: %+v", cfg)
	}
	if cfg.Workers != 5 || cfg.Requests != 50 || cfg.Rate != 10 {
		t.Errorf("run shape wrong: %+v", cfg)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("timeout: got %s", cfg.Timeout)
	}
	if cfg.Headers["X-From-File"] != "yes" {
		t.Errorf("headers wrong: %v", cfg.Headers)
	}
	if cfg.TCPNoDelay {
		t.Error("tcp_nodelay should be disabled by file")
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.Protocol != "http" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("tracing wrong: %+v", cfg.Tracing)
	}
}

// TestLoadFlagsOverrideFile ensures precedence: flags > file > defaults.
func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeYAML(t, map[string]interface{}{
		"target":  "http://file.example.com",
		"workers": 5,
	})

	cfg, err := config.NewLoader().Load([]string{
		"--config", path,
		"-c", "99",
		"http://flag.example.com",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 99 {
		t.Errorf("flag should override file: got %d", cfg.Workers)
	}
	if cfg.TargetURL != "http://flag.example.com" {
		t.Errorf("positional should override file target: got %q", cfg.TargetURL)
	}
}

// TestLoadRejectsExtraPositionals ensures a single-target CLI.
func TestLoadRejectsExtraPositionals(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"http://a.example.com", "http://b.example.com"})
	if err == nil {
		t.Fatal("expected error for two positional arguments")
	}
}

// TestLoadHelp ensures --help short-circuits.
func TestLoadHelp(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--help"})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("expected ErrHelpRequested, got %v", err)
	}

	_, err = config.NewLoader().Load(nil)
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("no arguments should request help, got %v", err)
	}
}

// TestLoadBadConfigFile ensures unreadable files surface an error.
func TestLoadBadConfigFile(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
