package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peltload/pelt/internal/config"
)

// BodySource holds the request body bytes, loaded once before dispatch.
// The backing slice is shared read-only by every worker; each request
// gets its own reader over it.
type BodySource struct {
	data []byte
}

// NewBodySource loads the body from inline config or from a file. An
// empty source is returned when neither is set.
func NewBodySource(cfg *config.Config) (*BodySource, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	bodyFile := strings.TrimSpace(cfg.BodyFile)
	if cfg.Body != "" && bodyFile != "" {
		return nil, errors.New("body and body file cannot both be provided")
	}

	if cfg.Body != "" {
		return &BodySource{data: []byte(cfg.Body)}, nil
	}

	if bodyFile != "" {
		info, err := os.Stat(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("body file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("body file %q is a directory", bodyFile)
		}
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("body file: %w", err)
		}
		return &BodySource{data: data}, nil
	}

	return &BodySource{}, nil
}

// NewReader returns a fresh reader over the shared body bytes.
func (s *BodySource) NewReader() *bytes.Reader {
	return bytes.NewReader(s.data)
}

// Len returns the body length in bytes.
func (s *BodySource) Len() int64 {
	return int64(len(s.data))
}

// Empty reports whether the source carries no body.
func (s *BodySource) Empty() bool {
	return len(s.data) == 0
}
