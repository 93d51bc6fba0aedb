package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const pollStep = 200 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// args builds the `serve` command line for a detached daemon.
func (o LaunchOptions) args() []string {
	args := []string{"serve"}
	if path := strings.TrimSpace(o.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}
	if level := strings.TrimSpace(o.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	return args
}

// Launch starts executable as a detached daemon in its own session.
func Launch(executable string, opts LaunchOptions) error {
	if strings.TrimSpace(executable) == "" {
		return errors.New("launch daemon: executable path is empty")
	}
	proc := exec.Command(executable, opts.args()...)
	proc.SysProcAttr = &unix.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// ProcessAlive reports whether pid refers to a live process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// signalProcess delivers sig to pid. A process that is already gone is
// not an error. Signalling ourselves is refused.
func signalProcess(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal %v to pid %d: %w", sig, pid, err)
	}
	return nil
}

// pollUntil calls done every pollStep until it returns true, timeout passes
// or ctx ends. It reports whether done returned true.
func pollUntil(ctx context.Context, timeout time.Duration, done func() bool) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(pollStep)
	defer ticker.Stop()
	for {
		if done() {
			return true
		}
		select {
		case <-ctx.Done():
			return done()
		case <-ticker.C:
		}
	}
}
