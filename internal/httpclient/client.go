package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/peltload/pelt/internal/config"
	"github.com/peltload/pelt/internal/metrics"
	"github.com/peltload/pelt/internal/pool"
	"github.com/peltload/pelt/internal/tracing"
)

// NewTransport builds the shared transport from config: address family,
// TCP_NODELAY, protocol version pinning, compression and keep-alive
// toggles.
func NewTransport(cfg *config.Config) *http.Transport {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           newDialContext(cfg.DNS, cfg.TCPNoDelay),
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   cfg.Workers,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    cfg.DisableCompression,
		DisableKeepAlives:     cfg.DisableKeepAlive,
	}

	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	switch cfg.HTTPVersion {
	case config.HTTPVersion11:
		// An empty, non-nil map disables the h2 upgrade path.
		transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	case config.HTTPVersion2:
		transport.ForceAttemptHTTP2 = true
	default:
		transport.ForceAttemptHTTP2 = true
	}

	return transport
}

// Connection executes one timed request cycle per Do call. It is safe
// for concurrent use by many workers.
type Connection struct {
	client  *http.Client
	builder *RequestBuilder
	timeout time.Duration
	buffers *pool.BufferPool
	tracer  trace.Tracer
}

// ConnectionOption customises a Connection.
type ConnectionOption func(*Connection)

// WithTracer attaches an OTel tracer; each Do call then emits a client
// span carrying phase timings.
func WithTracer(tracer trace.Tracer) ConnectionOption {
	return func(c *Connection) {
		c.tracer = tracer
	}
}

// NewConnection wires the request template and transport into an
// executor. The per-request timeout is enforced with a context deadline
// so timeouts are distinguishable from transport errors.
func NewConnection(cfg *config.Config, opts ...ConnectionOption) (*Connection, error) {
	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		client:  &http.Client{Transport: NewTransport(cfg)},
		builder: builder,
		timeout: cfg.Timeout,
		buffers: pool.NewBufferPool(0),
	}
	for _, opt := range opts {
		opt(conn)
	}
	return conn, nil
}

// Do runs one request cycle and reports exactly one Outcome, success or
// failure.
func (c *Connection) Do(ctx context.Context) metrics.Outcome {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rec := &traceRecorder{start: time.Now()}
	ctx = httptrace.WithClientTrace(ctx, rec.clientTrace())

	var span trace.Span
	if c.tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, c.tracer, c.builder.method, c.builder.target)
	}

	outcome := c.do(ctx, rec)

	if span != nil {
		tracing.EndSpan(span, outcome.Err,
			attribute.Int("http.response.status_code", outcome.Status),
			attribute.Int64("http.response.body.size", outcome.Bytes),
			attribute.Int64("pelt.duration_us", outcome.Duration.Microseconds()),
			attribute.Int64("pelt.dns_us", outcome.Phases.DNS.Microseconds()),
			attribute.Int64("pelt.connect_us", outcome.Phases.Connect.Microseconds()),
			attribute.Int64("pelt.wait_us", outcome.Phases.Wait.Microseconds()),
		)
	}
	return outcome
}

func (c *Connection) do(ctx context.Context, rec *traceRecorder) metrics.Outcome {
	outcome := metrics.Outcome{Start: rec.start}

	req, err := c.builder.Build(ctx)
	if err != nil {
		outcome.Duration = time.Since(rec.start)
		outcome.Err = err
		outcome.Phase = metrics.PhaseWrite
		return outcome
	}
	if c.tracer != nil {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		outcome.Duration = time.Since(rec.start)
		outcome.Err = err
		outcome.Phase = rec.failPhase()
		if errors.Is(err, context.DeadlineExceeded) {
			outcome.Phase = metrics.PhaseTimeout
		}
		return outcome
	}

	buf := c.buffers.Get()
	n, err := io.CopyBuffer(io.Discard, resp.Body, *buf)
	c.buffers.Put(buf)
	_ = resp.Body.Close()

	end := time.Now()
	outcome.Duration = end.Sub(rec.start)
	outcome.Status = resp.StatusCode
	outcome.Bytes = n
	outcome.Phases = rec.timings(end)

	if err != nil {
		outcome.Err = err
		outcome.Phase = metrics.PhaseRead
		if errors.Is(err, context.DeadlineExceeded) {
			outcome.Phase = metrics.PhaseTimeout
		}
	}
	return outcome
}
