// config.go - application configuration model and defaults
package config

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"termcore/internal/vt"
)

var (
	ErrInvalidColor      = errors.New("config: invalid color")
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
)

// Config is the full user configuration.
type Config struct {
	Font        FontConfig     `toml:"font" yaml:"font"`
	Colors      ColorScheme    `toml:"colors" yaml:"colors"`
	Terminal    TerminalConfig `toml:"terminal" yaml:"terminal"`
	Keybindings []KeyBinding   `toml:"keybindings" yaml:"keybindings"`
	Features    Features       `toml:"features" yaml:"features"`
	Performance Performance    `toml:"performance" yaml:"performance"`
}

type FontConfig struct {
	Family    string  `toml:"family" yaml:"family"`
	Size      float64 `toml:"size" yaml:"size"`
	AutoSize  bool    `toml:"auto_size" yaml:"auto_size"`
	Ligatures bool    `toml:"ligatures" yaml:"ligatures"`
}

// ColorScheme holds hex colors. Bright colors are optional and derived
// from their normal counterparts when empty.
type ColorScheme struct {
	Background string `toml:"background" yaml:"background"`
	Foreground string `toml:"foreground" yaml:"foreground"`
	Cursor     string `toml:"cursor" yaml:"cursor"`
	Selection  string `toml:"selection" yaml:"selection"`

	Black   string `toml:"black" yaml:"black"`
	Red     string `toml:"red" yaml:"red"`
	Green   string `toml:"green" yaml:"green"`
	Yellow  string `toml:"yellow" yaml:"yellow"`
	Blue    string `toml:"blue" yaml:"blue"`
	Magenta string `toml:"magenta" yaml:"magenta"`
	Cyan    string `toml:"cyan" yaml:"cyan"`
	White   string `toml:"white" yaml:"white"`

	BrightBlack   string `toml:"bright_black,omitempty" yaml:"bright_black,omitempty"`
	BrightRed     string `toml:"bright_red,omitempty" yaml:"bright_red,omitempty"`
	BrightGreen   string `toml:"bright_green,omitempty" yaml:"bright_green,omitempty"`
	BrightYellow  string `toml:"bright_yellow,omitempty" yaml:"bright_yellow,omitempty"`
	BrightBlue    string `toml:"bright_blue,omitempty" yaml:"bright_blue,omitempty"`
	BrightMagenta string `toml:"bright_magenta,omitempty" yaml:"bright_magenta,omitempty"`
	BrightCyan    string `toml:"bright_cyan,omitempty" yaml:"bright_cyan,omitempty"`
	BrightWhite   string `toml:"bright_white,omitempty" yaml:"bright_white,omitempty"`
}

// TerminalConfig sizes the emulator. Zero rows or cols means take the size
// of the controlling terminal.
type TerminalConfig struct {
	Shell           string `toml:"shell" yaml:"shell"`
	Rows            int    `toml:"rows" yaml:"rows"`
	Cols            int    `toml:"cols" yaml:"cols"`
	ScrollbackLines int    `toml:"scrollback_lines" yaml:"scrollback_lines"`
}

type KeyBinding struct {
	Key       string   `toml:"key" yaml:"key"`
	Modifiers []string `toml:"modifiers" yaml:"modifiers"`
	Action    string   `toml:"action" yaml:"action"`
}

type Features struct {
	CommandPalette        bool `toml:"command_palette" yaml:"command_palette"`
	ActivityIndicators    bool `toml:"activity_indicators" yaml:"activity_indicators"`
	AISuggestions         bool `toml:"ai_suggestions" yaml:"ai_suggestions"`
	CollaborativeSessions bool `toml:"collaborative_sessions" yaml:"collaborative_sessions"`
	SessionRecording      bool `toml:"session_recording" yaml:"session_recording"`
	Plugins               bool `toml:"plugins" yaml:"plugins"`
}

type Performance struct {
	GPUAcceleration bool `toml:"gpu_acceleration" yaml:"gpu_acceleration"`
	RenderFPS       int  `toml:"render_fps" yaml:"render_fps"`
	CacheSizeMB     int  `toml:"cache_size_mb" yaml:"cache_size_mb"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Font: FontConfig{
			Family:    "JetBrains Mono",
			Size:      14,
			AutoSize:  true,
			Ligatures: true,
		},
		Colors: ColorScheme{
			Background: "#1e1e2e",
			Foreground: "#cdd6f4",
			Cursor:     "#f5e0dc",
			Selection:  "#585b70",
			Black:      "#45475a",
			Red:        "#f38ba8",
			Green:      "#a6e3a1",
			Yellow:     "#f9e2af",
			Blue:       "#89b4fa",
			Magenta:    "#f5c2e7",
			Cyan:       "#94e2d5",
			White:      "#bac2de",

			BrightBlack:   "#585b70",
			BrightRed:     "#f38ba8",
			BrightGreen:   "#a6e3a1",
			BrightYellow:  "#f9e2af",
			BrightBlue:    "#89b4fa",
			BrightMagenta: "#f5c2e7",
			BrightCyan:    "#94e2d5",
			BrightWhite:   "#a6adc8",
		},
		Terminal: TerminalConfig{
			ScrollbackLines: vt.DefaultScrollback,
		},
		Keybindings: []KeyBinding{
			{Key: "p", Modifiers: []string{"ctrl", "shift"}, Action: "command_palette"},
			{Key: "n", Modifiers: []string{"ctrl", "shift"}, Action: "new_tab"},
		},
		Features: Features{
			CommandPalette:     true,
			ActivityIndicators: true,
			AISuggestions:      true,
			SessionRecording:   true,
			Plugins:            true,
		},
		Performance: Performance{
			GPUAcceleration: true,
			RenderFPS:       120,
			CacheSizeMB:     256,
		},
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Font.Size <= 0 {
		errs = append(errs, fmt.Errorf("font.size must be positive, got %v", c.Font.Size))
	}
	if c.Terminal.Rows < 0 || c.Terminal.Cols < 0 {
		errs = append(errs, fmt.Errorf("terminal size %dx%d: %w", c.Terminal.Cols, c.Terminal.Rows, vt.ErrInvalidSize))
	}
	if c.Terminal.ScrollbackLines < 0 {
		errs = append(errs, fmt.Errorf("terminal.scrollback_lines must not be negative, got %d", c.Terminal.ScrollbackLines))
	}
	if c.Performance.RenderFPS < 1 || c.Performance.RenderFPS > 1000 {
		errs = append(errs, fmt.Errorf("performance.render_fps must be within 1..1000, got %d", c.Performance.RenderFPS))
	}
	if _, err := c.Colors.Scheme(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// brightBlend is how far a derived bright color moves toward white.
const brightBlend = 0.2

var white = colorful.Color{R: 1, G: 1, B: 1}

// Scheme converts the hex colors into a terminal scheme.
func (s ColorScheme) Scheme() (vt.Scheme, error) {
	var scheme vt.Scheme
	var err error

	if scheme.Foreground, err = parseColor("foreground", s.Foreground); err != nil {
		return vt.Scheme{}, err
	}
	if scheme.Background, err = parseColor("background", s.Background); err != nil {
		return vt.Scheme{}, err
	}
	if scheme.Cursor, err = parseColor("cursor", s.Cursor); err != nil {
		return vt.Scheme{}, err
	}

	normal := [8][2]string{
		{"black", s.Black}, {"red", s.Red}, {"green", s.Green}, {"yellow", s.Yellow},
		{"blue", s.Blue}, {"magenta", s.Magenta}, {"cyan", s.Cyan}, {"white", s.White},
	}
	bright := [8][2]string{
		{"bright_black", s.BrightBlack}, {"bright_red", s.BrightRed},
		{"bright_green", s.BrightGreen}, {"bright_yellow", s.BrightYellow},
		{"bright_blue", s.BrightBlue}, {"bright_magenta", s.BrightMagenta},
		{"bright_cyan", s.BrightCyan}, {"bright_white", s.BrightWhite},
	}

	for i := range normal {
		base, err := colorful.Hex(normal[i][1])
		if err != nil {
			return vt.Scheme{}, fmt.Errorf("%w: %s %q", ErrInvalidColor, normal[i][0], normal[i][1])
		}
		scheme.Palette[i] = toColor(base)

		if bright[i][1] == "" {
			scheme.Palette[i+8] = toColor(base.BlendLab(white, brightBlend).Clamped())
			continue
		}
		if scheme.Palette[i+8], err = parseColor(bright[i][0], bright[i][1]); err != nil {
			return vt.Scheme{}, err
		}
	}
	return scheme, nil
}

func parseColor(name, hex string) (vt.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return vt.Color{}, fmt.Errorf("%w: %s %q", ErrInvalidColor, name, hex)
	}
	return toColor(c), nil
}

func toColor(c colorful.Color) vt.Color {
	r, g, b := c.RGB255()
	return vt.RGB(r, g, b)
}
