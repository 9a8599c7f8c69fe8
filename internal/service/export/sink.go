package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives one exported relation file at a time.
type Sink interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	// Location describes where name ends up, for logs and reports.
	Location(name string) string
}

type DirSink struct {
	dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Create(_ context.Context, name string) (io.WriteCloser, error) {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

func (s *DirSink) Location(name string) string {
	return filepath.Join(s.dir, name)
}
