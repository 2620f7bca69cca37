//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// watchResize calls onResize with the new window size on every SIGWINCH.
func watchResize(ctx context.Context, onResize func(rows, cols int)) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if rows, cols, ok := windowSize(); ok {
				onResize(rows, cols)
			}
		}
	}
}

func enableVT() {}
