package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line
// arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Default returns a Config populated with defaults, before any file or
// flag values are applied.
func Default() *Config {
	return &Config{
		Method:     http.MethodGet,
		Headers:    map[string]string{},
		Workers:    50,
		Requests:   200,
		DNS:        DNSAuto,
		TCPNoDelay: true,
		FPS:        16,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

// Load parses command-line arguments and an optional YAML configuration
// file to produce a Config. Flags override file values; the positional
// argument, when present, overrides the file's target.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	cfg.ConfigFile = configPath

	if err := applySettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}
	if positional := flagSet.Args(); len(positional) > 0 {
		if len(positional) > 1 {
			return nil, fmt.Errorf("expected a single target URL, got %d arguments", len(positional))
		}
		cfg.TargetURL = strings.TrimSpace(positional[0])
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	cfg.BodyFile = strings.TrimSpace(cfg.BodyFile)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

// applySettings applies settings from a config file to the Config.
func applySettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target", "url"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "method"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("method: %w", err)
		}
		cfg.Method = val
	}
	if raw, ok := lookupSetting(settings, "headers"); ok {
		val, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		for key, value := range val {
			cfg.Headers[http.CanonicalHeaderKey(strings.TrimSpace(key))] = value
		}
	}
	if raw, ok := lookupSetting(settings, "body"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("body: %w", err)
		}
		cfg.Body = val
	}
	if raw, ok := lookupSetting(settings, "body_file", "bodyFile"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("body_file: %w", err)
		}
		cfg.BodyFile = val
	}
	if raw, ok := lookupSetting(settings, "accept"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		cfg.Accept = val
	}
	if raw, ok := lookupSetting(settings, "content_type", "contentType"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("content_type: %w", err)
		}
		cfg.ContentType = val
	}
	if raw, ok := lookupSetting(settings, "host"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("host: %w", err)
		}
		cfg.HostHeader = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "basic_auth", "basicAuth"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("basic_auth: %w", err)
		}
		cfg.BasicAuth = val
	}
	if raw, ok := lookupSetting(settings, "http_version", "httpVersion"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("http_version: %w", err)
		}
		cfg.HTTPVersion = HTTPVersion(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "dns"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("dns: %w", err)
		}
		cfg.DNS = DNSStrategy(strings.ToLower(strings.TrimSpace(val)))
	}
	if raw, ok := lookupSetting(settings, "timeout"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = val
	}
	if raw, ok := lookupSetting(settings, "disable_compression", "disableCompression"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("disable_compression: %w", err)
		}
		cfg.DisableCompression = val
	}
	if raw, ok := lookupSetting(settings, "disable_keepalive", "disableKeepalive"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("disable_keepalive: %w", err)
		}
		cfg.DisableKeepAlive = val
	}
	if raw, ok := lookupSetting(settings, "tcp_nodelay", "tcpNodelay"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("tcp_nodelay: %w", err)
		}
		cfg.TCPNoDelay = val
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		cfg.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "workers", "concurrency"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}
	if raw, ok := lookupSetting(settings, "requests", "total"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("requests: %w", err)
		}
		cfg.Requests = val
	}
	if raw, ok := lookupSetting(settings, "duration"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = val
		if _, explicit := lookupSetting(settings, "requests", "total"); !explicit && val > 0 {
			cfg.Requests = 0
		}
	}
	if raw, ok := lookupSetting(settings, "rate", "qps"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}
	if raw, ok := lookupSetting(settings, "fps"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("fps: %w", err)
		}
		cfg.FPS = val
	}
	if raw, ok := lookupSetting(settings, "no_tui", "noTui"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("no_tui: %w", err)
		}
		cfg.NoTUI = val
	}
	if raw, ok := lookupSetting(settings, "json_output", "jsonOutput"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("json_output: %w", err)
		}
		cfg.JSONOutput = val
	}
	if raw, ok := lookupSetting(settings, "log_errors", "logErrors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("log_errors: %w", err)
		}
		cfg.LogErrors = val
	}
	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := parseTracing(cfg, raw); err != nil {
			return err
		}
	}

	return nil
}

func parseTracing(cfg *Config, value interface{}) error {
	settings, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("tracing: expected a mapping, got %T", value)
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("tracing.endpoint: %w", err)
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("tracing.protocol: %w", err)
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "service_name", "serviceName"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("tracing.service_name: %w", err)
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("tracing.insecure: %w", err)
		}
		cfg.Tracing.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "sampleRate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("tracing.sample_rate: %w", err)
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}
