// pty.go - shell process running behind a pseudo terminal
package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"termcore/internal/vt"
)

// ptyConn is the platform pseudo terminal carrying one child process.
type ptyConn interface {
	io.ReadWriteCloser
	Resize(rows, cols int) error
	Pid() int
	Wait() error
}

// Options configures Start. Zero values pick the platform shell and an
// 80x24 window.
type Options struct {
	Shell string
	Args  []string
	Dir   string
	Env   []string
	Rows  int
	Cols  int
}

// Process is a running shell. Read returns its output and Write sends it
// keystrokes.
type Process struct {
	pty   ptyConn
	shell string

	closeOnce sync.Once
	closeErr  error
}

// Start spawns the shell in a new pseudo terminal.
func Start(opts Options) (*Process, error) {
	if opts.Shell == "" {
		opts.Shell = DefaultShell()
	}
	if opts.Rows <= 0 || opts.Cols <= 0 {
		opts.Rows, opts.Cols = vt.DefaultRows, vt.DefaultCols
	}

	p, err := startPTY(opts, environ(opts))
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Shell, err)
	}

	log.Printf("[shell] started %s (pid %d) at %dx%d", opts.Shell, p.Pid(), opts.Cols, opts.Rows)
	return &Process{pty: p, shell: opts.Shell}, nil
}

func environ(opts Options) []string {
	env := append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		fmt.Sprintf("COLUMNS=%d", opts.Cols),
		fmt.Sprintf("LINES=%d", opts.Rows),
	)
	return append(env, opts.Env...)
}

func (p *Process) Read(b []byte) (int, error) { return p.pty.Read(b) }

func (p *Process) Write(b []byte) (int, error) { return p.pty.Write(b) }

// Resize changes the pseudo terminal window so the shell sees SIGWINCH.
func (p *Process) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: %dx%d", vt.ErrInvalidSize, cols, rows)
	}
	if err := p.pty.Resize(rows, cols); err != nil {
		log.Printf("[shell] failed to resize to %dx%d: %v", cols, rows, err)
		return fmt.Errorf("resize pty: %w", err)
	}
	return nil
}

func (p *Process) Pid() int { return p.pty.Pid() }

func (p *Process) Shell() string { return p.shell }

// Wait blocks until the shell exits.
func (p *Process) Wait() error { return p.pty.Wait() }

// Close terminates the shell and releases the pseudo terminal. It is safe
// to call more than once.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.pty.Close()
		if p.closeErr != nil && !errors.Is(p.closeErr, os.ErrClosed) {
			log.Printf("[shell] close: %v", p.closeErr)
		}
	})
	return p.closeErr
}
