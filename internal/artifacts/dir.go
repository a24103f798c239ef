package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/dmitrijs2005/imgseal/internal/filex"
)

// DirSink keeps artifacts in a local directory.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed and returns a sink rooted there.
func NewDirSink(dir string) (*DirSink, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DirSink{dir: abs}, nil
}

// Dir returns the absolute output directory.
func (s *DirSink) Dir() string {
	return s.dir
}

// Path returns the filesystem path of the artifact for id.
func (s *DirSink) Path(id string) string {
	return filepath.Join(s.dir, Name(id))
}

// Put creates the artifact exclusively. A partially written file is removed.
func (s *DirSink) Put(ctx context.Context, id string, data []byte) (path string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path = s.Path(id)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", common.ErrArtifactExists, path)
		}
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Get reads the artifact for id.
func (s *DirSink) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", id, err)
	}
	return data, nil
}

var _ Sink = (*DirSink)(nil)
