package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

type localOpener struct{}

func init() {
	Register("file", func(ctx context.Context, opts Options) (Opener, error) {
		return localOpener{}, nil
	})
}

func (localOpener) Open(_ context.Context, location *url.URL) (io.ReadCloser, error) {
	path := location.Path
	if location.Host != "" && location.Host != "localhost" {
		path = filepath.Join(location.Host, location.Path)
	}
	if path == "" {
		path = location.Opaque
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}
