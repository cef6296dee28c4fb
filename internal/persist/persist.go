// Package persist owns the on-disk lifecycle of the configuration file:
// exclusive locking against concurrent commands, atomic writes, and a
// timestamped backup of the previous file on every save. The store never
// touches files itself.
package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
	"github.com/systmms/helm-values-manager/internal/logging"
	"github.com/systmms/helm-values-manager/internal/store"
)

// DefaultConfigFile is the configuration file name used when none is given.
const DefaultConfigFile = "helm-values.json"

// File manages one configuration file and its lock.
type File struct {
	path     string
	lockPath string
	logger   *logging.Logger

	lockFd int
	locked bool
}

// Option configures a File.
type Option func(*File)

// WithLogger injects the logger used for lock and write diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(f *File) { f.logger = logger }
}

// New creates a File for the given path. The lock file lives next to the
// configuration file as a hidden sibling.
func New(path string, opts ...Option) *File {
	if path == "" {
		path = DefaultConfigFile
	}
	f := &File{
		path:     path,
		lockPath: filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock"),
		lockFd:   -1,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.Discard()
	}
	return f
}

// Path returns the configuration file path.
func (f *File) Path() string { return f.path }

// Exists reports whether the configuration file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Lock takes the exclusive advisory lock. It fails immediately instead of
// blocking when another command holds it.
func (f *File) Lock() error {
	fd, err := unix.Open(f.lockPath, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open lock file %s: %w", f.lockPath, err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		return hvmerrors.UserError{
			Message:    "configuration file is locked",
			Details:    fmt.Sprintf("could not lock %s: %v", f.lockPath, err),
			Suggestion: "Another command may be running. Wait for it to finish and retry.",
			Err:        err,
		}
	}
	f.lockFd = fd
	f.locked = true
	f.logger.Debug("acquired lock on %s", f.lockPath)
	return nil
}

// Unlock releases the lock. Safe to call when the lock is not held.
func (f *File) Unlock() {
	if !f.locked {
		return
	}
	unix.Flock(f.lockFd, unix.LOCK_UN)
	unix.Close(f.lockFd)
	f.lockFd = -1
	f.locked = false
	f.logger.Debug("released lock on %s", f.lockPath)
}

// Load reads and validates the configuration file into a store. The store
// options carry the logger and backend factory for the loaded instance.
func (f *File) Load(opts ...store.Option) (*store.Store, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, hvmerrors.UserError{
			Message:    fmt.Sprintf("configuration file %s not found", f.path),
			Suggestion: "Run 'helm-values-manager init' to create one.",
			Err:        err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return store.FromJSON(data, opts...)
}

// Save writes the store atomically: the previous file is kept as a
// timestamped backup, the new content goes to a temp file in the same
// directory, and a rename makes it visible in one step.
func (f *File) Save(s *store.Store) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}

	if f.Exists() {
		backup := fmt.Sprintf("%s.%s.bak", f.path, time.Now().Format("20060102-150405"))
		if err := copyFile(f.path, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", f.path, err)
		}
		f.logger.Debug("backed up %s to %s", f.path, backup)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	f.logger.Debug("wrote %s (%d bytes)", f.path, len(data))
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
