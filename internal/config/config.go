package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// CursorGlyph names accepted by cursorType.
const (
	CursorHand     = "Hand-shape emoji"
	CursorTriangle = "blacktriangleright"
)

// Renderer describes a command line backend.
type Renderer struct {
	Command     string   `json:"command"`
	Args        []string `json:"args"`
	InlineArgs  []string `json:"inlineArgs"`
	WrapDisplay bool     `json:"wrapDisplay"`
	// Timeout in milliseconds.
	Timeout int `json:"timeout"`
}

type Config struct {
	EnableMathPreview         bool                `json:"enableMathPreview"`
	Macros                    []string            `json:"macros"`
	AutoAdjustPreviewPosition bool                `json:"autoAdjustPreviewPosition"`
	Debounce                  int                 `json:"debounce"` // ms
	Position                  string              `json:"position"`
	Renderer                  string              `json:"renderer"`
	EnableCursor              bool                `json:"enableCursor"`
	CursorType                string              `json:"cursorType"`
	CustomCSS                 []string            `json:"customCSS"`
	Hover                     bool                `json:"hover"`
	Theme                     string              `json:"theme"`
	Renderers                 map[string]Renderer `json:"renderers"`
	Cache                     string              `json:"cache"` // empty: XDG state dir
	CacheLimit                int                 `json:"cacheLimit"`
}

var defaultConfig = Config{
	EnableMathPreview:         true,
	AutoAdjustPreviewPosition: true,
	Debounce:                  50,
	Position:                  "top",
	Renderer:                  "mathjax",
	EnableCursor:              false,
	CursorType:                CursorTriangle,
	Theme:                     "dark",
	CacheLimit:                500,
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig
}

// Load overlays the settings in v on top of the defaults. v may be the flat
// settings object or one nested as {"umath": {"preview": {...}}}.
func Load(v any) (Config, error) {
	return Merge(defaultConfig, v)
}

// Merge overlays the settings in v on base. Only fields present in v
// overwrite. A field of the wrong type keeps its previous value.
func Merge(base Config, v any) (Config, error) {
	cfg := base
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return base, fmt.Errorf("failed to marshal source: %w", err)
	}
	data = unwrap(data)

	if err := json.Unmarshal(data, &cfg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return base, fmt.Errorf("failed to unmarshal into Config: %w", err)
		}
		log.Printf("Ignoring setting %s: %v", typeErr.Field, err)
	}

	return cfg.Normalize(), nil
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	var v any
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&v); err != nil {
		return Config{}, err
	}
	return Load(v)
}

// unwrap descends into umath.preview when present.
func unwrap(data []byte) []byte {
	for _, key := range []string{"umath", "preview"} {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return data
		}
		inner, ok := obj[key]
		if !ok {
			return data
		}
		data = inner
	}
	return data
}

// Normalize replaces each invalid setting with its default.
func (c Config) Normalize() Config {
	if c.Debounce < 0 {
		log.Printf("Invalid debounce %d, using %d", c.Debounce, defaultConfig.Debounce)
		c.Debounce = defaultConfig.Debounce
	}
	switch strings.ToLower(c.Position) {
	case "top", "bottom":
		c.Position = strings.ToLower(c.Position)
	default:
		log.Printf("Invalid position %q, using %q", c.Position, defaultConfig.Position)
		c.Position = defaultConfig.Position
	}
	if strings.TrimSpace(c.Renderer) == "" {
		c.Renderer = defaultConfig.Renderer
	}
	switch strings.ToLower(c.Theme) {
	case "dark", "light":
		c.Theme = strings.ToLower(c.Theme)
	default:
		c.Theme = defaultConfig.Theme
	}
	if c.CacheLimit <= 0 {
		c.CacheLimit = defaultConfig.CacheLimit
	}
	return c
}

// DebounceInterval is the debounce setting as a duration.
func (c Config) DebounceInterval() time.Duration {
	return time.Duration(c.Debounce) * time.Millisecond
}

// CursorGlyph is the TeX inserted at the cursor, or empty when disabled.
func (c Config) CursorGlyph() string {
	if !c.EnableCursor {
		return ""
	}
	switch c.CursorType {
	case CursorHand:
		return "👉"
	case CursorTriangle:
		return `{\blacktriangleright}`
	default:
		return ""
	}
}

// CSS joins the custom style fragments.
func (c Config) CSS() string {
	return strings.Join(c.CustomCSS, "")
}

// TimeoutDuration converts the timeout setting.
func (r Renderer) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Millisecond
}
