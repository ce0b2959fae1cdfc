// Package source opens bulk-load inputs by URI: local paths, file:// and
// s3://bucket/key.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("source not found")

type Opener interface {
	Open(ctx context.Context, location *url.URL) (io.ReadCloser, error)
}

// Options carries the settings an opener may need. Openers ignore the
// fields that do not concern them.
type Options struct {
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

type Factory func(ctx context.Context, opts Options) (Opener, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(scheme string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(scheme))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

// Parse turns a bare path into a file:// URL and validates the rest.
func Parse(uri string) (*url.URL, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("source uri is required")
	}
	if !strings.Contains(uri, "://") {
		return &url.URL{Scheme: "file", Path: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse source uri %q: %w", uri, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}

func Open(ctx context.Context, uri string, opts Options) (io.ReadCloser, error) {
	u, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	registryMu.RLock()
	factory := registry[u.Scheme]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported source scheme: %s", u.Scheme)
	}
	opener, err := factory(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("init %s source: %w", u.Scheme, err)
	}
	return opener.Open(ctx, u)
}
