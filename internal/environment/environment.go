// Package environment models the host install a plugin is checked inside:
// its directory layout, its database and the lock that serializes runs.
package environment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
)

// LockFileName is created under Root and held while a runner is prepared.
const LockFileName = ".plugin-check.lock"

// lockRetryDelay is how often a contended lock file is polled.
const lockRetryDelay = 100 * time.Millisecond

// Options configures New.
type Options struct {
	Root        string
	PluginsDir  string
	ContentDir  string
	Database    string
	TablePrefix string
}

// Environment is the shared, process-wide state that preparations mutate.
type Environment struct {
	Root       string
	PluginsDir string
	ContentDir string

	// Store is nil when no database is configured.
	Store *Store

	sem      *semaphore.Weighted
	lockPath string
}

// New resolves the directory layout and opens the database, if any.
// PluginsDir and ContentDir default to wp-content/plugins and wp-content
// under Root.
func New(opts Options) (*Environment, error) {
	if opts.Root == "" {
		return nil, errors.New("environment root is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving environment root %q: %w", opts.Root, err)
	}

	env := &Environment{
		Root:       root,
		ContentDir: resolveDir(root, opts.ContentDir, "wp-content"),
		sem:        semaphore.NewWeighted(1),
		lockPath:   filepath.Join(root, LockFileName),
	}
	env.PluginsDir = resolveDir(root, opts.PluginsDir, filepath.Join("wp-content", "plugins"))

	if opts.Database != "" {
		dsn := opts.Database
		if dsn != ":memory:" && !filepath.IsAbs(dsn) {
			dsn = filepath.Join(root, dsn)
		}
		store, err := OpenStore(dsn, opts.TablePrefix)
		if err != nil {
			return nil, err
		}
		env.Store = store
	}
	return env, nil
}

func resolveDir(root, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// Acquire blocks until this process holds both the in-process run slot and
// the lock file under Root, or ctx is done. The returned release is safe to
// call more than once.
func (e *Environment) Acquire(ctx context.Context) (func(), error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for run slot: %w", err)
	}

	if err := os.MkdirAll(e.Root, 0o755); err != nil {
		e.sem.Release(1)
		return nil, fmt.Errorf("creating environment root: %w", err)
	}

	fl := flock.New(e.lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		e.sem.Release(1)
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, fmt.Errorf("locking %s: %w", e.lockPath, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		_ = fl.Unlock()
		e.sem.Release(1)
	}, nil
}

// Close releases the database handle.
func (e *Environment) Close() error {
	if e.Store == nil {
		return nil
	}
	return e.Store.Close()
}
