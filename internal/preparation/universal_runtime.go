package preparation

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wpcheck/plugin-check/internal/environment"
)

// ObjectCacheDropIn is the shim file name inside the content directory.
const ObjectCacheDropIn = "object-cache.php"

//go:embed dropins/object-cache.php
var objectCacheDropIn []byte

// UniversalRuntime installs the runtime shim that every runtime check
// depends on.
type UniversalRuntime struct {
	contentDir string
}

var _ Preparation = (*UniversalRuntime)(nil)

// NewUniversalRuntime returns the shim preparation for env.
func NewUniversalRuntime(env *environment.Environment) *UniversalRuntime {
	return &UniversalRuntime{contentDir: env.ContentDir}
}

// Prepare writes the object-cache drop-in unless one already exists. The
// cleanup only removes a file this call created.
func (u *UniversalRuntime) Prepare(ctx context.Context) (Cleanup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(u.contentDir, ObjectCacheDropIn)
	if _, err := os.Stat(path); err == nil {
		return NoopCleanup, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(u.contentDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating content directory: %w", err)
	}
	if err := os.WriteFile(path, objectCacheDropIn, 0o644); err != nil {
		return nil, fmt.Errorf("installing %s: %w", ObjectCacheDropIn, err)
	}

	return func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", ObjectCacheDropIn, err)
		}
		return nil
	}, nil
}
