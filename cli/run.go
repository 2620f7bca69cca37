// run.go - interactive shell session through the emulator
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"termcore/internal/config"
	"termcore/internal/server"
	"termcore/internal/session"
	"termcore/internal/shell"
	"termcore/internal/vt"
)

type runOptions struct {
	record  string
	listen  string
	shell   string
	origins []string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a shell in a PTY and drive the emulator with its output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logging to the raw terminal would corrupt the screen.
			if root.logFile == "" {
				if err := root.openLog(filepath.Join(config.Dir(), "logs", "termcore.log")); err != nil {
					return err
				}
			}
			return runShell(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.record, "record", "", "record the session as asciicast; a bare name goes to the recordings dir, a .zst suffix compresses")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "serve snapshots over HTTP on this address, e.g. 127.0.0.1:7681")
	cmd.Flags().StringVar(&opts.shell, "shell", "", "shell to run instead of the configured one")
	cmd.Flags().StringSliceVar(&opts.origins, "allow-origin", nil, "extra browser origin allowed to open the websocket (repeatable)")
	return cmd
}

func runShell(ctx context.Context, root *rootOptions, opts *runOptions) error {
	log.Printf("Starting termcore on %s", runtime.GOOS)

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	scheme, err := cfg.Colors.Scheme()
	if err != nil {
		return err
	}

	rows, cols := cfg.Terminal.Rows, cfg.Terminal.Cols
	if rows == 0 || cols == 0 {
		if r, c, ok := windowSize(); ok {
			rows, cols = r, c
		} else {
			rows, cols = vt.DefaultRows, vt.DefaultCols
		}
	}

	terminal := vt.New(
		vt.WithSize(rows, cols),
		vt.WithScheme(scheme),
		vt.WithScrollback(cfg.Terminal.ScrollbackLines),
	)

	var rec *session.Recorder
	if opts.record != "" {
		path, err := recordingPath(opts.record)
		if err != nil {
			return err
		}
		rec = session.NewRecorder()
		if err := rec.Start(path, cols, rows); err != nil {
			return err
		}
		terminal.SetTap(rec)
		defer func() {
			if err := rec.Stop(); err != nil {
				log.Printf("[session] stop: %v", err)
			}
		}()
	}

	shellPath := opts.shell
	if shellPath == "" {
		shellPath = cfg.Terminal.Shell
	}
	proc, err := shell.Start(shell.Options{Shell: shellPath, Rows: rows, Cols: cols})
	if err != nil {
		return err
	}
	defer proc.Close()
	terminal.SetTabProcess(terminal.ActiveTab(), proc.Pid())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	enableVT()
	if term.IsTerminal(int(os.Stdin.Fd())) {
		state, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(int(os.Stdin.Fd()), state)
	}

	go forwardInput(proc, terminal, rec)
	go watchResize(ctx, func(rows, cols int) {
		if err := proc.Resize(rows, cols); err != nil {
			return
		}
		if err := terminal.Resize(rows, cols); err != nil {
			log.Printf("[run] resize: %v", err)
		}
	})

	if opts.listen != "" {
		srv := server.New(terminal,
			server.WithFrameRate(cfg.Performance.RenderFPS),
			server.WithResizeHook(proc.Resize),
			server.WithAllowedOrigins(opts.origins...),
		)
		go func() {
			if err := srv.ListenAndServe(ctx, opts.listen); err != nil {
				log.Printf("[server] %v", err)
			}
		}()
	}

	go func() {
		err := config.Watch(ctx, root.configPath, config.DefaultDebounce, func(c *config.Config) {
			applyConfig(terminal, c)
		})
		if err != nil {
			log.Printf("[config] live reload disabled: %v", err)
		}
	}()

	if err := shell.Pump(ctx, proc, terminal, os.Stdout); err != nil {
		return err
	}
	if err := proc.Wait(); err != nil {
		log.Printf("[shell] %s exited: %v", proc.Shell(), err)
	}
	return nil
}

// forwardInput copies keystrokes to the shell. With a recorder active the
// keystrokes are recorded, and lines typed at the primary screen are also
// recorded as commands.
func forwardInput(proc *shell.Process, terminal *vt.Terminal, rec *session.Recorder) {
	var w io.Writer = proc
	if rec != nil {
		w = &inputRecorder{w: proc, terminal: terminal, rec: rec}
	}
	if _, err := io.Copy(w, os.Stdin); err != nil {
		log.Printf("[run] input: %v", err)
	}
}

type inputRecorder struct {
	w        io.Writer
	terminal *vt.Terminal
	rec      *session.Recorder
	line     session.CommandLine
}

func (i *inputRecorder) Write(p []byte) (int, error) {
	i.rec.RecordInput(p)
	// Keys sent to full-screen programs are not shell commands.
	if i.terminal.AltScreen() {
		i.line.Reset()
	} else {
		for _, cmd := range i.line.Feed(p) {
			i.rec.RecordCommand(cmd)
		}
	}
	return i.w.Write(p)
}

// applyConfig pushes the reloadable parts of c into the terminal.
func applyConfig(terminal *vt.Terminal, c *config.Config) {
	scheme, err := c.Colors.Scheme()
	if err != nil {
		log.Printf("[config] %v", err)
		return
	}
	terminal.SetScheme(scheme)
	terminal.SetScrollback(c.Terminal.ScrollbackLines)
}

// recordingPath puts a bare file name under the recordings directory.
func recordingPath(name string) (string, error) {
	if filepath.Base(name) != name {
		return name, nil
	}
	dir := config.RecordingsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func windowSize() (rows, cols int, ok bool) {
	c, r, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || c <= 0 || r <= 0 {
		return 0, 0, false
	}
	return r, c, true
}
