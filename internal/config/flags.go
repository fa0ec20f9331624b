package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates the cobra command carrying the full flag
// surface. The target URL is a positional argument.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pelt [flags] <url>",
		Short:         "HTTP load generator with a live terminal dashboard",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Run shape
	flags.IntP("requests", "n", 200, "Number of requests to run")
	flags.IntP("workers", "c", 50, "Number of workers to run concurrently")
	flags.DurationP("duration", "z", 0, "How long to send requests (e.g. 10s, 3m); requests count is ignored unless also set explicitly")
	flags.IntP("rate", "q", 0, "Rate limit for all workers, in queries per second (0 means unconstrained)")

	// Request template
	flags.StringP("method", "m", "GET", "HTTP method")
	flags.StringArrayP("header", "H", nil, "Custom HTTP header, e.g. -H \"foo: bar\" (repeatable)")
	flags.DurationP("timeout", "t", 0, "Timeout for each request (0 means none)")
	flags.StringP("accept", "A", "", "HTTP Accept header")
	flags.StringP("body", "d", "", "HTTP request body")
	flags.StringP("body-file", "D", "", "HTTP request body from file")
	flags.StringP("content-type", "T", "", "Content-Type header")
	flags.StringP("auth", "a", "", "Basic authentication, user:password")
	flags.String("host", "", "HTTP Host header override")
	flags.String("http-version", "", "Pin HTTP version: 1.1 or 2 (default negotiate)")

	// Connection behavior
	flags.Bool("disable-compression", false, "Disable transparent response compression")
	flags.Bool("disable-keepalive", false, "Open a fresh TCP connection for every request")
	flags.Bool("tcp-nodelay", true, "Set TCP_NODELAY on connections")
	flags.Bool("insecure", false, "Skip TLS certificate verification")
	flags.Bool("ipv4", false, "Resolve hosts to IPv4 addresses only")
	flags.Bool("ipv6", false, "Resolve hosts to IPv6 addresses only")

	// Output
	flags.Int("fps", 16, "Frames per second for the live dashboard")
	flags.Bool("no-tui", false, "Disable the live dashboard")
	flags.Bool("json", false, "Emit the final summary as JSON (requires --no-tui)")
	flags.Bool("log-errors", false, "Log failed requests to stderr (rate limited)")
	flags.String("config", "", "Path to YAML configuration file")

	// Tracing
	flags.String("otlp-endpoint", "", "OTLP endpoint for per-request spans (empty disables tracing)")
	flags.String("otlp-protocol", "grpc", "OTLP transport: grpc or http")
	flags.Bool("otlp-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of requests to trace (0.0-1.0)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values read from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("requests") {
		val, err := fs.GetInt("requests")
		if err != nil {
			return err
		}
		cfg.Requests = val
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
		// Duration takes over the run unless a count was also given.
		if !fs.Changed("requests") {
			cfg.Requests = 0
		}
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("method") {
		val, err := fs.GetString("method")
		if err != nil {
			return err
		}
		cfg.Method = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("accept") {
		val, err := fs.GetString("accept")
		if err != nil {
			return err
		}
		cfg.Accept = val
	}
	if fs.Changed("body") {
		val, err := fs.GetString("body")
		if err != nil {
			return err
		}
		cfg.Body = val
		cfg.BodyFile = ""
	}
	if fs.Changed("body-file") {
		val, err := fs.GetString("body-file")
		if err != nil {
			return err
		}
		cfg.BodyFile = val
		cfg.Body = ""
	}
	if fs.Changed("content-type") {
		val, err := fs.GetString("content-type")
		if err != nil {
			return err
		}
		cfg.ContentType = val
	}
	if fs.Changed("auth") {
		val, err := fs.GetString("auth")
		if err != nil {
			return err
		}
		cfg.BasicAuth = val
	}
	if fs.Changed("host") {
		val, err := fs.GetString("host")
		if err != nil {
			return err
		}
		cfg.HostHeader = strings.TrimSpace(val)
	}
	if fs.Changed("http-version") {
		val, err := fs.GetString("http-version")
		if err != nil {
			return err
		}
		cfg.HTTPVersion = HTTPVersion(strings.TrimSpace(val))
	}
	if fs.Changed("disable-compression") {
		val, err := fs.GetBool("disable-compression")
		if err != nil {
			return err
		}
		cfg.DisableCompression = val
	}
	if fs.Changed("disable-keepalive") {
		val, err := fs.GetBool("disable-keepalive")
		if err != nil {
			return err
		}
		cfg.DisableKeepAlive = val
	}
	if fs.Changed("tcp-nodelay") {
		val, err := fs.GetBool("tcp-nodelay")
		if err != nil {
			return err
		}
		cfg.TCPNoDelay = val
	}
	if fs.Changed("insecure") {
		val, err := fs.GetBool("insecure")
		if err != nil {
			return err
		}
		cfg.Insecure = val
	}

	ipv4, err := fs.GetBool("ipv4")
	if err != nil {
		return err
	}
	ipv6, err := fs.GetBool("ipv6")
	if err != nil {
		return err
	}
	switch {
	case ipv4 && ipv6:
		cfg.DNS = DNSAuto
	case ipv4:
		cfg.DNS = DNSIPv4
	case ipv6:
		cfg.DNS = DNSIPv6
	}

	if fs.Changed("fps") {
		val, err := fs.GetInt("fps")
		if err != nil {
			return err
		}
		cfg.FPS = val
	}
	if fs.Changed("no-tui") {
		val, err := fs.GetBool("no-tui")
		if err != nil {
			return err
		}
		cfg.NoTUI = val
	}
	if fs.Changed("json") {
		val, err := fs.GetBool("json")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}

	if fs.Changed("otlp-endpoint") {
		val, err := fs.GetString("otlp-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("otlp-protocol") {
		val, err := fs.GetString("otlp-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("otlp-insecure") {
		val, err := fs.GetBool("otlp-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}

	headers, err := fs.GetStringArray("header")
	if err != nil {
		return err
	}
	if len(headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range headers {
			key, value, err := splitHeader(entry)
			if err != nil {
				return err
			}
			cfg.Headers[key] = value
		}
	}

	return nil
}

// splitHeader parses a "Name: value" header flag.
func splitHeader(entry string) (string, string, error) {
	parts := strings.SplitN(entry, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("header must be in \"name: value\" form: %s", entry)
	}
	key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
	if key == "" {
		return "", "", fmt.Errorf("header name cannot be empty: %s", entry)
	}
	return key, strings.TrimSpace(parts[1]), nil
}
