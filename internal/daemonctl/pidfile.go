package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelforge/internal/config"
)

// PIDFile is the file a running daemon records its process id in.
type PIDFile string

// PIDFileFor returns the pid file under cfg's log directory.
func PIDFileFor(cfg *config.Config) PIDFile {
	return PIDFile(filepath.Join(cfg.Paths.LogDir, "reelforge.pid"))
}

// LockPath returns the single-instance lock file held by the daemon.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "reelforge.lock")
}

// Write records pid, replacing the file atomically.
func (p PIDFile) Write(pid int) error {
	tmp := string(p) + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if err := os.Rename(tmp, string(p)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Read returns the recorded pid. A missing file wraps os.ErrNotExist.
func (p PIDFile) Read() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %q", string(p))
	}
	return pid, nil
}

// Remove deletes the file; a missing file is not an error.
func (p PIDFile) Remove() error {
	if err := os.Remove(string(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}
