package llm

import (
	"os"
	"strconv"
)

// Mode names a speed profile: a model paired with generation options that
// trade quality for latency.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeBalanced Mode = "balanced"
	ModeQuality  Mode = "quality"
)

// Modes lists every valid speed mode, in display order.
var Modes = []Mode{ModeFast, ModeBalanced, ModeQuality}

// ParseMode maps a raw string to a Mode, falling back to ModeFast for
// unknown values.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeFast, ModeBalanced, ModeQuality:
		return Mode(s)
	default:
		return ModeFast
	}
}

// ValidMode reports whether s names one of the enumerated speed modes.
func ValidMode(s string) bool {
	switch Mode(s) {
	case ModeFast, ModeBalanced, ModeQuality:
		return true
	}
	return false
}

// Options is the generation parameter bundle sent to Ollama verbatim.
type Options struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	NumPredict    int     `json:"num_predict"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	Seed          int     `json:"seed"`
	NumCtx        int     `json:"num_ctx"`
	NumThread     int     `json:"num_thread"`
}

// Profile is a fully resolved speed profile: the model to run and the
// options to run it with. Callers resolve a Profile once per request and
// pass it down; there is no process-wide active profile.
type Profile struct {
	Mode    Mode
	Model   string
	Options Options
}

// Config holds configuration for the generation backend.
type Config struct {
	Endpoint   string
	TimeoutMs  int
	MaxRetries int
	LogCalls   bool

	// Models overrides the default model per mode when non-empty.
	Models map[Mode]string
}

// DefaultConfig returns a Config pointing at a local Ollama instance.
func DefaultConfig() Config {
	return Config{
		Endpoint:   "http://localhost:11434",
		TimeoutMs:  120000,
		MaxRetries: 1,
		Models:     map[Mode]string{},
	}
}

// LoadConfig reads generation configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("POINTER_OLLAMA_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("POINTER_OLLAMA_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("POINTER_OLLAMA_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("POINTER_OLLAMA_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}

	applyModelEnv(&cfg, ModeFast, "POINTER_MODEL_FAST")
	applyModelEnv(&cfg, ModeBalanced, "POINTER_MODEL_BALANCED")
	applyModelEnv(&cfg, ModeQuality, "POINTER_MODEL_QUALITY")

	return cfg
}

func applyModelEnv(cfg *Config, mode Mode, envName string) {
	if v := os.Getenv(envName); v != "" {
		cfg.Models[mode] = v
	}
}

// baseOptions are shared across all profiles; only the output budget,
// context window, and thread count vary per mode.
func baseOptions(numPredict, numCtx, numThread int) Options {
	return Options{
		Temperature:   0.7,
		TopP:          0.9,
		TopK:          40,
		NumPredict:    numPredict,
		RepeatPenalty: 1.1,
		Seed:          42,
		NumCtx:        numCtx,
		NumThread:     numThread,
	}
}

var defaultProfiles = map[Mode]Profile{
	ModeFast: {
		Mode:    ModeFast,
		Model:   "qwen2.5:0.5b",
		Options: baseOptions(512, 2048, 4),
	},
	ModeBalanced: {
		Mode:    ModeBalanced,
		Model:   "llama3.1:8b",
		Options: baseOptions(1024, 4096, 8),
	},
	ModeQuality: {
		Mode:    ModeQuality,
		Model:   "llama3.1:8b",
		Options: baseOptions(2048, 8192, 12),
	},
}

// Profile resolves the effective speed profile for a mode, applying any
// configured model override. Unknown modes resolve to the fast profile.
func (c Config) Profile(mode Mode) Profile {
	p, ok := defaultProfiles[mode]
	if !ok {
		p = defaultProfiles[ModeFast]
	}
	if m := c.Models[p.Mode]; m != "" {
		p.Model = m
	}
	return p
}
