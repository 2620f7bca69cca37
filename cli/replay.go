package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"termcore/internal/session"
	"termcore/internal/vt"
)

type replayOptions struct {
	asJSON     bool
	scrollback bool
	info       bool
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <cast>",
		Short: "Feed a recorded session into the emulator and print the final screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayCast(cmd.OutOrStdout(), root, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the final snapshot as JSON")
	cmd.Flags().BoolVar(&opts.scrollback, "scrollback", false, "print scrollback history above the screen")
	cmd.Flags().BoolVar(&opts.info, "info", false, "print the recording header and duration first")
	return cmd
}

func replayCast(out io.Writer, root *rootOptions, path string, opts *replayOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	scheme, err := cfg.Colors.Scheme()
	if err != nil {
		return err
	}

	cast, err := session.ReadFile(path)
	if err != nil {
		return err
	}

	terminal := vt.New(vt.WithScheme(scheme), vt.WithScrollback(cfg.Terminal.ScrollbackLines))
	if err := cast.Replay(terminal); err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	if opts.info {
		fmt.Fprintf(out, "%dx%d, %d events, %s\n",
			cast.Header.Width, cast.Header.Height, len(cast.Events), cast.Duration())
	}

	snap := terminal.Snapshot()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	if opts.scrollback {
		for _, row := range terminal.Scrollback() {
			fmt.Fprintln(out, vt.RowText(row))
		}
	}
	if text := snap.Text(); text != "" {
		fmt.Fprintln(out, text)
	}
	return nil
}
