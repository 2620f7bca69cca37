// recorder.go - terminal session recording
// Events are kept in memory while recording and written as an asciicast v2
// file when recording stops.
package session

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
	"unicode/utf8"
)

// EventType is the asciicast event code.
type EventType string

const (
	EventInput   EventType = "i"
	EventOutput  EventType = "o"
	EventResize  EventType = "r"
	EventCommand EventType = "c"
)

// Event is one recorded occurrence. Time is relative to the start of the
// recording. Resize events carry "COLSxROWS" as Data.
type Event struct {
	Time time.Duration
	Type EventType
	Data string
}

var (
	ErrNotRecording     = errors.New("session: not recording")
	ErrAlreadyRecording = errors.New("session: already recording")
)

const (
	defaultShell = "/bin/bash"
	defaultTerm  = "xterm-256color"
)

// Recorder captures input, output, resize and command events with its own
// timestamps. It is safe for concurrent use and satisfies vt.Tap.
type Recorder struct {
	mu        sync.Mutex
	recording bool
	start     time.Time
	path      string
	header    Header
	events    []Event
	now       func() time.Time

	// pending holds the unfinished UTF-8 tail of each byte stream until
	// the rest of the rune arrives.
	pending map[EventType][]byte
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates an idle recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a new recording, discarding previous events. An empty path
// keeps events in memory only.
func (r *Recorder) Start(path string, cols, rows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrAlreadyRecording
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = defaultShell
	}

	r.start = r.now()
	r.path = path
	r.events = nil
	r.pending = make(map[EventType][]byte)
	r.header = Header{
		Version:   castVersion,
		Width:     cols,
		Height:    rows,
		Timestamp: r.start.Unix(),
		Env:       map[string]string{"SHELL": shell, "TERM": defaultTerm},
	}
	r.recording = true

	if path != "" {
		log.Printf("[session] recording to %s", path)
	}
	return nil
}

// Stop ends the recording and writes the cast file if a path was given.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.flushPending()
	r.recording = false
	path := r.path
	cast := &Cast{Header: r.header, Events: append([]Event(nil), r.events...)}
	r.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := WriteFile(path, cast); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	log.Printf("[session] saved %d events to %s", len(cast.Events), path)
	return nil
}

func (r *Recorder) record(typ EventType, data string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.append(typ, data)
}

func (r *Recorder) append(typ EventType, data string) {
	r.events = append(r.events, Event{Time: r.now().Sub(r.start), Type: typ, Data: data})
}

// recordBytes records a chunk of a byte stream. A rune split across chunks
// is held back and recorded whole with the next chunk.
func (r *Recorder) recordBytes(typ EventType, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording || len(data) == 0 {
		return
	}

	buf := append(r.pending[typ], data...)
	complete, rest := splitUTF8(buf)
	r.pending[typ] = append([]byte(nil), rest...)
	if len(complete) > 0 {
		r.append(typ, string(complete))
	}
}

// flushPending records whatever partial runes are left. Called with mu held.
func (r *Recorder) flushPending() {
	for _, typ := range []EventType{EventInput, EventOutput} {
		if tail := r.pending[typ]; len(tail) > 0 {
			r.append(typ, string(tail))
		}
	}
	r.pending = nil
}

// splitUTF8 cuts b before a trailing rune whose bytes have not all
// arrived. Invalid bytes are never held back.
func splitUTF8(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		c := b[i]
		if c < utf8.RuneSelf {
			break
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[i:]) {
				return b[:i], b[i:]
			}
			break
		}
	}
	return b, nil
}

// RecordInput records bytes sent to the process.
func (r *Recorder) RecordInput(data []byte) {
	r.recordBytes(EventInput, data)
}

// RecordOutput records bytes produced by the process.
func (r *Recorder) RecordOutput(data []byte) {
	r.recordBytes(EventOutput, data)
}

func (r *Recorder) RecordResize(cols, rows int) {
	r.record(EventResize, fmt.Sprintf("%dx%d", cols, rows))
}

func (r *Recorder) RecordCommand(command string) {
	r.record(EventCommand, command)
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Events returns a copy of the events recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Output and Resize let a Recorder observe a vt.Terminal directly.
func (r *Recorder) Output(data []byte) { r.RecordOutput(data) }

func (r *Recorder) Resize(cols, rows int) { r.RecordResize(cols, rows) }
