package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DNSStrategy selects which address families a host lookup may return.
type DNSStrategy string

const (
	DNSAuto DNSStrategy = "auto"
	DNSIPv4 DNSStrategy = "ipv4"
	DNSIPv6 DNSStrategy = "ipv6"
)

// HTTPVersion optionally pins the protocol version used for requests.
// The empty value lets the transport negotiate.
type HTTPVersion string

const (
	HTTPVersionAuto HTTPVersion = ""
	HTTPVersion11   HTTPVersion = "1.1"
	HTTPVersion2    HTTPVersion = "2"
)

// Config is the immutable request template plus run parameters. It is
// built once before dispatch, then shared read-only by every worker.
type Config struct {
	TargetURL   string            `mapstructure:"target"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Body        string            `mapstructure:"body"`
	BodyFile    string            `mapstructure:"body_file"`
	Accept      string            `mapstructure:"accept"`
	ContentType string            `mapstructure:"content_type"`
	HostHeader  string            `mapstructure:"host"`
	BasicAuth   string            `mapstructure:"basic_auth"`

	HTTPVersion        HTTPVersion   `mapstructure:"http_version"`
	DNS                DNSStrategy   `mapstructure:"dns"`
	Timeout            time.Duration `mapstructure:"timeout"`
	DisableCompression bool          `mapstructure:"disable_compression"`
	DisableKeepAlive   bool          `mapstructure:"disable_keepalive"`
	TCPNoDelay         bool          `mapstructure:"tcp_nodelay"`
	Insecure           bool          `mapstructure:"insecure"`

	Workers  int           `mapstructure:"workers"`
	Requests int           `mapstructure:"requests"`
	Duration time.Duration `mapstructure:"duration"`
	Rate     int           `mapstructure:"rate"`

	FPS        int  `mapstructure:"fps"`
	NoTUI      bool `mapstructure:"no_tui"`
	JSONOutput bool `mapstructure:"json_output"`
	LogErrors  bool `mapstructure:"log_errors"`

	Tracing TracingConfig `mapstructure:"tracing"`

	ConfigFile string `mapstructure:"-"`
}

// TracingConfig configures optional OTLP span export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether span export was requested.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ValidationError aggregates every configuration issue found.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return e.issues
}

// Validate checks the configuration before any dispatch begins. It
// collects all issues rather than stopping at the first.
func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target URL is required (use --help for usage information)")
	} else if u, err := url.Parse(target); err != nil {
		issues = append(issues, fmt.Sprintf("target URL: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		issues = append(issues, fmt.Sprintf("target URL scheme must be http or https, got %q", u.Scheme))
	} else if u.Host == "" {
		issues = append(issues, "target URL must include a host")
	}

	if strings.TrimSpace(c.Method) == "" {
		issues = append(issues, "method must not be empty")
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.Requests < 0 {
		issues = append(issues, "requests must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Requests == 0 && c.Duration == 0 {
		issues = append(issues, "either a request count or a duration must be set")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.FPS < 1 || c.FPS > 120 {
		issues = append(issues, "fps must be between 1 and 120")
	}
	if strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "body and body file are mutually exclusive")
	}
	if auth := strings.TrimSpace(c.BasicAuth); auth != "" && !strings.Contains(auth, ":") {
		issues = append(issues, "basic auth must be in user:password form")
	}

	switch c.DNS {
	case DNSAuto, DNSIPv4, DNSIPv6:
	default:
		issues = append(issues, fmt.Sprintf("dns strategy must be auto, ipv4 or ipv6, got %q", c.DNS))
	}
	switch c.HTTPVersion {
	case HTTPVersionAuto, HTTPVersion11, HTTPVersion2:
	default:
		issues = append(issues, fmt.Sprintf("http version must be 1.1 or 2, got %q", c.HTTPVersion))
	}

	if c.JSONOutput && !c.NoTUI {
		issues = append(issues, "json output requires --no-tui")
	}

	if c.Tracing.Enabled() {
		switch strings.ToLower(strings.TrimSpace(c.Tracing.Protocol)) {
		case "", "grpc", "http":
		default:
			issues = append(issues, fmt.Sprintf("tracing protocol must be grpc or http, got %q", c.Tracing.Protocol))
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			issues = append(issues, "tracing sample rate must be between 0.0 and 1.0")
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
