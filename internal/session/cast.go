package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"termcore/internal/vt"
)

const (
	castVersion = 2
	maxCastLine = 4 << 20

	// compressedExt selects zstd framing for cast files.
	compressedExt = ".zst"
)

// Header is the first line of an asciicast v2 file.
type Header struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Timestamp int64             `json:"timestamp"`
	Env       map[string]string `json:"env,omitempty"`
}

// Cast is a parsed recording.
type Cast struct {
	Header Header
	Events []Event
}

// Duration returns the time of the last event.
func (c *Cast) Duration() time.Duration {
	if len(c.Events) == 0 {
		return 0
	}
	return c.Events[len(c.Events)-1].Time
}

// WriteCast encodes c as newline-delimited JSON.
func WriteCast(w io.Writer, c *Cast) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(c.Header); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for i, ev := range c.Events {
		line := []any{ev.Time.Seconds(), string(ev.Type), ev.Data}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes c to path, zstd compressed when path ends in .zst.
func WriteFile(path string, c *Cast) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var enc *zstd.Encoder
	if strings.HasSuffix(path, compressedExt) {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = enc
	}

	if err := WriteCast(w, c); err != nil {
		if enc != nil {
			enc.Close()
		}
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("zstd close: %w", err)
		}
	}
	return f.Close()
}

// ReadCast parses an asciicast v2 stream.
func ReadCast(r io.Reader) (*Cast, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxCastLine)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)
	}

	c := &Cast{}
	if err := json.Unmarshal(sc.Bytes(), &c.Header); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if c.Header.Version != castVersion {
		return nil, fmt.Errorf("unsupported cast version %d", c.Header.Version)
	}

	line := 1
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		ev, err := parseEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c.Events = append(c.Events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return c, nil
}

func parseEvent(raw []byte) (Event, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Event{}, err
	}
	if len(fields) != 3 {
		return Event{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	var (
		secs float64
		code string
		data string
	)
	if err := json.Unmarshal(fields[0], &secs); err != nil {
		return Event{}, fmt.Errorf("time: %w", err)
	}
	if err := json.Unmarshal(fields[1], &code); err != nil {
		return Event{}, fmt.Errorf("code: %w", err)
	}
	if err := json.Unmarshal(fields[2], &data); err != nil {
		return Event{}, fmt.Errorf("data: %w", err)
	}

	return Event{
		Time: time.Duration(math.Round(secs * float64(time.Second))),
		Type: EventType(code),
		Data: data,
	}, nil
}

// ReadFile opens and parses a cast file, decompressing .zst files.
func ReadFile(path string) (*Cast, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, compressedExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return ReadCast(r)
}

// ParseSize decodes the "COLSxROWS" payload of a resize event.
func ParseSize(data string) (cols, rows int, err error) {
	if _, err := fmt.Sscanf(data, "%dx%d", &cols, &rows); err != nil {
		return 0, 0, fmt.Errorf("bad size %q: %w", data, err)
	}
	return cols, rows, nil
}

// Replay sizes term from the header and feeds it every output and resize
// event in order. Input and command events do not affect the screen.
func (c *Cast) Replay(term *vt.Terminal) error {
	if c.Header.Width > 0 && c.Header.Height > 0 {
		if err := term.Resize(c.Header.Height, c.Header.Width); err != nil {
			return fmt.Errorf("initial size: %w", err)
		}
	}
	for i, ev := range c.Events {
		switch ev.Type {
		case EventOutput:
			term.ProcessInput([]byte(ev.Data))
		case EventResize:
			cols, rows, err := ParseSize(ev.Data)
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			if err := term.Resize(rows, cols); err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
		}
	}
	return nil
}
