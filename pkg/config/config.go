package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Face   FaceConfig   `yaml:"face"`
	TTS    TTSConfig    `yaml:"tts"`
	Log    LogConfig    `yaml:"log"`
	DB     DBConfig     `yaml:"db"`
	Server ServerConfig `yaml:"server"`
}

// FaceConfig holds settings for the face rendering server and session.
type FaceConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Name            string   `yaml:"name"` // face identity, part of the session path
	Host            string   `yaml:"host"` // where we reach the server
	Port            int      `yaml:"port"`
	Bind            string   `yaml:"bind"` // where the spawned server listens
	ServerDir       string   `yaml:"server_dir"`
	Python          string   `yaml:"python"`
	PollInterval    Duration `yaml:"poll_interval"`
	PollAttempts    int      `yaml:"poll_attempts"`
	SessionAttempts int      `yaml:"session_attempts"`
	SessionDelay    Duration `yaml:"session_delay"`
	ConnectGrace    Duration `yaml:"connect_grace"`
	ReconnectGrace  Duration `yaml:"reconnect_grace"`
	ReinitGrace     Duration `yaml:"reinit_grace"`
	StartGrace      Duration `yaml:"start_grace"`
}

// EspeakConfig holds settings for the espeak-ng fallback engine.
type EspeakConfig struct {
	Binary   string `yaml:"binary"`
	VoiceID  string `yaml:"voice"`     // e.g. "en-us"
	SpeedWPM int    `yaml:"speed_wpm"` // words per minute
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Method  string       `yaml:"method"`
	VoiceID string       `yaml:"voice"` // platform voice ID, empty means engine default
	Volume  float64      `yaml:"volume"`
	Espeak  EspeakConfig `yaml:"espeak"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Face: FaceConfig{
			Enabled:         true,
			Name:            "LEXI",
			Host:            "localhost",
			Port:            8000,
			Bind:            "0.0.0.0",
			ServerDir:       "",
			Python:          "python",
			PollInterval:    Duration(1 * time.Second),
			PollAttempts:    10,
			SessionAttempts: 3,
			SessionDelay:    Duration(2 * time.Second),
			ConnectGrace:    Duration(2 * time.Second),
			ReconnectGrace:  Duration(1 * time.Second),
			ReinitGrace:     Duration(2 * time.Second),
			StartGrace:      Duration(2 * time.Second),
		},
		TTS: TTSConfig{
			Method:  "system",
			VoiceID: "",
			Volume:  1.0,
			Espeak: EspeakConfig{
				Binary:   "espeak-ng",
				VoiceID:  "en-us",
				SpeedWPM: 175,
			},
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/lexiface.db",
		},
		Server: ServerConfig{
			Address: ":3001",
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5000",
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Read existing file if it exists
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Load machine-local paths from Env if empty (as a fallback, but do NOT save back to disk)
		if cfg.Face.ServerDir == "" {
			if dir := os.Getenv("LEXIFACE_FACE_DIR"); dir != "" {
				cfg.Face.ServerDir = dir
			}
		}
		if cfg.Face.Python == "" {
			if python := os.Getenv("LEXIFACE_PYTHON"); python != "" {
				cfg.Face.Python = python
			}
		}
	} else {
		// If file does not exist, save defaults
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	// Validate tts method (the two dispatchable catalogs)
	if cfg.TTS.Method != "system" && cfg.TTS.Method != "polly" {
		return nil, fmt.Errorf("invalid tts method '%s': must be 'system' or 'polly'", cfg.TTS.Method)
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Lexiface Configuration
# ----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for Enum fields
	// We use regex to find the keys with indentation to ensure we place comments correctly.

	// TTS Method Options
	reMethod := regexp.MustCompile(`(?m)^(\s+)method:`)
	data = reMethod.ReplaceAll(data, []byte("${1}# Options: system, polly\n${1}method:"))

	// Log Level Options (applies to every level key)
	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, INFO, WARN, ERROR\n${1}level:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write default config
	return Save(path, DefaultConfig())
}
