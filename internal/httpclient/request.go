package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/peltload/pelt/internal/config"
)

// RequestBuilder produces the request every worker sends. It is built
// once from config, then shared read-only; Build stamps out a fresh
// *http.Request per call.
type RequestBuilder struct {
	method    string
	target    string
	headers   http.Header
	host      string
	basicUser string
	basicPass string
	hasAuth   bool
	body      *BodySource
}

func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.TargetURL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	method := strings.TrimSpace(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	body, err := NewBodySource(cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}

	if accept := strings.TrimSpace(cfg.Accept); accept != "" {
		headers.Set("Accept", accept)
	} else if headers.Get("Accept") == "" {
		headers.Set("Accept", "*/*")
	}
	if contentType := strings.TrimSpace(cfg.ContentType); contentType != "" {
		headers.Set("Content-Type", contentType)
	}

	builder := &RequestBuilder{
		method:  method,
		target:  target,
		headers: headers,
		host:    strings.TrimSpace(cfg.HostHeader),
		body:    body,
	}

	if auth := strings.TrimSpace(cfg.BasicAuth); auth != "" {
		user, pass, ok := strings.Cut(auth, ":")
		if !ok {
			return nil, fmt.Errorf("basic auth must be in user:password form, got %q", auth)
		}
		builder.basicUser = user
		builder.basicPass = pass
		builder.hasAuth = true
	}

	return builder, nil
}

func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, b.method, b.target, b.body.NewReader())
	if err != nil {
		return nil, err
	}

	req.Header = make(http.Header, len(b.headers))
	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}

	if b.host != "" {
		req.Host = b.host
	}
	if b.hasAuth {
		req.SetBasicAuth(b.basicUser, b.basicPass)
	}

	req.ContentLength = b.body.Len()
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(b.body.NewReader()), nil
	}

	return req, nil
}
