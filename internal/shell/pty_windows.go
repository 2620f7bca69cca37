//go:build windows

package shell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/ActiveState/termtest/conpty"
)

// DefaultShell is cmd.exe from the system root.
func DefaultShell() string {
	root := os.Getenv("SYSTEMROOT")
	if root == "" {
		root = os.Getenv("WINDIR")
		if root == "" {
			root = `C:\Windows`
		}
	}
	return filepath.Join(root, "System32", "cmd.exe")
}

type windowsPTY struct {
	cpty    *conpty.ConPty
	in      *os.File
	out     *os.File
	process *os.Process
}

func startPTY(opts Options, env []string) (ptyConn, error) {
	cpty, err := conpty.New(int16(opts.Cols), int16(opts.Rows))
	if err != nil {
		return nil, fmt.Errorf("create ConPTY: %w", err)
	}

	pid, _, err := cpty.Spawn(opts.Shell, opts.Args, &syscall.ProcAttr{
		Dir: opts.Dir,
		Env: append(env, "ANSICON=1"),
	})
	if err != nil {
		cpty.Close()
		return nil, fmt.Errorf("spawn: %w", err)
	}

	process, err := os.FindProcess(int(pid))
	if err != nil {
		cpty.Close()
		return nil, fmt.Errorf("find process %d: %w", pid, err)
	}

	return &windowsPTY{
		cpty:    cpty,
		in:      cpty.InPipe(),
		out:     cpty.OutPipe(),
		process: process,
	}, nil
}

func (w *windowsPTY) Read(b []byte) (int, error)  { return w.out.Read(b) }
func (w *windowsPTY) Write(b []byte) (int, error) { return w.in.Write(b) }

func (w *windowsPTY) Resize(rows, cols int) error {
	return w.cpty.Resize(uint16(cols), uint16(rows))
}

func (w *windowsPTY) Pid() int { return w.process.Pid }

func (w *windowsPTY) Wait() error {
	_, err := w.process.Wait()
	return err
}

func (w *windowsPTY) Close() error {
	var errs []error
	for _, f := range []*os.File{w.in, w.out} {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.cpty.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ConPTY: %w", errors.Join(errs...))
	}
	return nil
}

func isHangup(error) bool { return false }
