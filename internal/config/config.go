package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds scout's settings.
type Config struct {
	APIBind        string
	SourceFile     string
	TimeField      string
	MaxLines       int
	DefaultIndex   string
	DefaultColumns []string
	DefaultFrom    string
	DefaultTo      string
	ChunkSize      int
	EdgeThreshold  int
	FetchDebounce  int // milliseconds
	StoreInSession bool
	AbsentPolicy   string
	StateDir       string
}

const (
	defaultConfigPath    = "~/.config/scout/config.toml"
	defaultStateDir      = "~/.local/share/scout"
	defaultAPIBind       = "127.0.0.1:7488"
	defaultIndex         = "logs"
	defaultFrom          = "now-15m"
	defaultTo            = "now"
	defaultChunkSize     = 200
	defaultEdgeThreshold = 20
	defaultFetchDebounce = 100
	defaultAbsentPolicy  = "preserve"
)

var defaultColumns = []string{"message"}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:        defaultAPIBind,
		DefaultIndex:   defaultIndex,
		DefaultColumns: append([]string(nil), defaultColumns...),
		DefaultFrom:    defaultFrom,
		DefaultTo:      defaultTo,
		ChunkSize:      defaultChunkSize,
		EdgeThreshold:  defaultEdgeThreshold,
		FetchDebounce:  defaultFetchDebounce,
		AbsentPolicy:   defaultAbsentPolicy,
		StateDir:       mustExpand(defaultStateDir),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind        string   `toml:"api_bind"`
		SourceFile     string   `toml:"source_file"`
		TimeField      string   `toml:"time_field"`
		MaxLines       int      `toml:"max_lines"`
		DefaultIndex   string   `toml:"default_index"`
		DefaultColumns []string `toml:"default_columns"`
		DefaultFrom    string   `toml:"default_from"`
		DefaultTo      string   `toml:"default_to"`
		ChunkSize      int      `toml:"chunk_size"`
		EdgeThreshold  int      `toml:"edge_threshold"`
		FetchDebounce  int      `toml:"fetch_debounce_ms"`
		StoreInSession bool     `toml:"store_in_session"`
		AbsentPolicy   string   `toml:"absent_policy"`
		StateDir       string   `toml:"state_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIBind = orDefault(raw.APIBind, defaultAPIBind)
	cfg.DefaultIndex = orDefault(raw.DefaultIndex, defaultIndex)
	cfg.DefaultFrom = orDefault(raw.DefaultFrom, defaultFrom)
	cfg.DefaultTo = orDefault(raw.DefaultTo, defaultTo)
	cfg.AbsentPolicy = orDefault(raw.AbsentPolicy, defaultAbsentPolicy)
	cfg.TimeField = strings.TrimSpace(raw.TimeField)
	cfg.StoreInSession = raw.StoreInSession
	if raw.MaxLines > 0 {
		cfg.MaxLines = raw.MaxLines
	}
	if raw.ChunkSize > 0 {
		cfg.ChunkSize = raw.ChunkSize
	}
	if raw.EdgeThreshold > 0 {
		cfg.EdgeThreshold = raw.EdgeThreshold
	}
	if raw.FetchDebounce > 0 {
		cfg.FetchDebounce = raw.FetchDebounce
	}

	var cols []string
	for _, c := range raw.DefaultColumns {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	if len(cols) > 0 {
		cfg.DefaultColumns = cols
	}

	if src := strings.TrimSpace(raw.SourceFile); src != "" {
		cfg.SourceFile = mustExpand(src)
	}
	if dir := strings.TrimSpace(raw.StateDir); dir != "" {
		cfg.StateDir = mustExpand(dir)
	}

	return cfg, nil
}

// SessionStorePath returns the file backing hashed URL state.
func (c Config) SessionStorePath() string {
	return filepath.Join(c.stateDir(), "session.cbor.zst")
}

// ViewsDir returns the directory holding saved views.
func (c Config) ViewsDir() string {
	return filepath.Join(c.stateDir(), "views")
}

// LogPath returns scout's own log file.
func (c Config) LogPath() string {
	return filepath.Join(c.stateDir(), "scout.log")
}

func (c Config) stateDir() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir)
	}
	return c.StateDir
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
