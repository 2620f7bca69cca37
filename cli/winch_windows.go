//go:build windows

package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

const resizePoll = 250 * time.Millisecond

// watchResize polls the console size since Windows has no SIGWINCH.
func watchResize(ctx context.Context, onResize func(rows, cols int)) {
	lastRows, lastCols, _ := windowSize()

	t := time.NewTicker(resizePoll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rows, cols, ok := windowSize()
			if !ok || (rows == lastRows && cols == lastCols) {
				continue
			}
			lastRows, lastCols = rows, cols
			onResize(rows, cols)
		}
	}
}

// enableVT turns on escape sequence processing for the console so the
// mirrored shell output renders.
func enableVT() {
	stdout := windows.Handle(os.Stdout.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(stdout, &mode); err != nil {
		return
	}
	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING | windows.ENABLE_PROCESSED_OUTPUT
	_ = windows.SetConsoleMode(stdout, mode)
}
