package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"termcore/internal/config"
)

type rootOptions struct {
	configPath string
	logFile    string

	logCloser io.Closer
}

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "termcore",
		Short:         "Terminal emulator core with PTY, recording and snapshot service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logFile == "" {
				return nil
			}
			return opts.openLog(opts.logFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logCloser != nil {
				opts.logCloser.Close()
			}
		},
	}
	addGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newRunCmd(opts),
		newReplayCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "configuration file (.toml, .yaml or .yml)")
	fs.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
}

// openLog sends the standard logger to path, appending.
func (o *rootOptions) openLog(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if o.logCloser != nil {
		o.logCloser.Close()
	}
	log.SetOutput(f)
	o.logCloser = f
	return nil
}

// loadConfig reads and validates the configuration file.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", o.configPath, err)
	}
	return cfg, nil
}
