//go:build !windows

package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// DefaultShell is $SHELL, or the platform login shell.
func DefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if runtime.GOOS == "darwin" {
		return "/bin/zsh"
	}
	return "/bin/bash"
}

type unixPTY struct {
	file *os.File
	cmd  *exec.Cmd
}

func startPTY(opts Options, env []string) (ptyConn, error) {
	cmd := exec.Command(opts.Shell, opts.Args...)
	cmd.Env = env
	cmd.Dir = opts.Dir
	if runtime.GOOS == "darwin" {
		cmd.Env = append(cmd.Env, "TERM_PROGRAM=termcore")
	}

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		return nil, err
	}
	return &unixPTY{file: f, cmd: cmd}, nil
}

func (u *unixPTY) Read(b []byte) (int, error)  { return u.file.Read(b) }
func (u *unixPTY) Write(b []byte) (int, error) { return u.file.Write(b) }

func (u *unixPTY) Resize(rows, cols int) error {
	return pty.Setsize(u.file, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

func (u *unixPTY) Pid() int {
	if u.cmd.Process == nil {
		return 0
	}
	return u.cmd.Process.Pid
}

func (u *unixPTY) Wait() error { return u.cmd.Wait() }

func (u *unixPTY) Close() error {
	var errs []error
	if err := u.file.Close(); err != nil {
		errs = append(errs, err)
	}

	// Give the shell a moment to exit on SIGTERM before killing it.
	if u.cmd.Process != nil && u.cmd.Process.Signal(syscall.SIGTERM) == nil {
		time.Sleep(100 * time.Millisecond)
		if err := u.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close pty: %w", errors.Join(errs...))
	}
	return nil
}

// isHangup reports the error a pty master returns once the child side is
// gone.
func isHangup(err error) bool {
	return errors.Is(err, syscall.EIO)
}
