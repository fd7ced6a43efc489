package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration
type Config struct {
	Player   PlayerConfig   `mapstructure:"player" yaml:"player"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// PlayerConfig holds playback controller settings and timing constants
type PlayerConfig struct {
	MPVPath        string        `mapstructure:"mpv_path" yaml:"mpv_path"`
	LoadUserConfig bool          `mapstructure:"load_user_config" yaml:"load_user_config"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Mobile         bool          `mapstructure:"mobile" yaml:"mobile"`
	DefaultVolume  float64       `mapstructure:"default_volume" yaml:"default_volume"`
	RememberVolume bool          `mapstructure:"remember_volume" yaml:"remember_volume"`
	Speeds         []float64     `mapstructure:"speeds" yaml:"speeds"`
	SeekStep       time.Duration `mapstructure:"seek_step" yaml:"seek_step"`
	VolumeStep     float64       `mapstructure:"volume_step" yaml:"volume_step"`

	// Timers
	SeekDebounce    time.Duration  `mapstructure:"seek_debounce" yaml:"seek_debounce"`
	ControlsHide    time.Duration  `mapstructure:"controls_hide" yaml:"controls_hide"`
	BufferingClear  time.Duration  `mapstructure:"buffering_clear" yaml:"buffering_clear"`
	MessageDuration time.Duration  `mapstructure:"message_duration" yaml:"message_duration"`
	FrameInterval   time.Duration  `mapstructure:"frame_interval" yaml:"frame_interval"`
	ProgressCadence int            `mapstructure:"progress_cadence" yaml:"progress_cadence"`
	Momentum        MomentumConfig `mapstructure:"momentum" yaml:"momentum"`
}

// MomentumConfig tunes touch-drag momentum seeking.
// The values are product constants, not derived ones.
type MomentumConfig struct {
	MaxOffset     float64 `mapstructure:"max_offset" yaml:"max_offset"`
	VelocityScale float64 `mapstructure:"velocity_scale" yaml:"velocity_scale"`
	ReleaseScale  float64 `mapstructure:"release_scale" yaml:"release_scale"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
	WALMode        bool   `mapstructure:"wal_mode" yaml:"wal_mode"`
	AutoVacuum     bool   `mapstructure:"auto_vacuum" yaml:"auto_vacuum"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Color      bool   `mapstructure:"color" yaml:"color"`
}

// APIConfig points at the episode backend
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// HistoryConfig controls watch progress persistence
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// AdvancedConfig holds rarely changed settings
type AdvancedConfig struct {
	Debug     bool            `mapstructure:"debug" yaml:"debug"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
}

// ClipboardConfig overrides the clipboard command
type ClipboardConfig struct {
	Command string `mapstructure:"command" yaml:"command"`
}

// SetDefaults registers every default value on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("player.mpv_path", "")
	v.SetDefault("player.load_user_config", false)
	v.SetDefault("player.poll_interval", "250ms")
	v.SetDefault("player.mobile", false)
	v.SetDefault("player.default_volume", 1.0)
	v.SetDefault("player.remember_volume", true)
	v.SetDefault("player.speeds", []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2})
	v.SetDefault("player.seek_step", "5s")
	v.SetDefault("player.volume_step", 0.05)
	v.SetDefault("player.seek_debounce", "50ms")
	v.SetDefault("player.controls_hide", "3s")
	v.SetDefault("player.buffering_clear", "1s")
	v.SetDefault("player.message_duration", "3s")
	v.SetDefault("player.frame_interval", "16ms")
	v.SetDefault("player.progress_cadence", 5)
	v.SetDefault("player.momentum.max_offset", 0.2)
	v.SetDefault("player.momentum.velocity_scale", 0.1)
	v.SetDefault("player.momentum.release_scale", 0.5)

	v.SetDefault("database.path", filepath.Join(GetDataDir(), "animeplay.db"))
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.wal_mode", true)
	v.SetDefault("database.auto_vacuum", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.color", true)

	v.SetDefault("api.base_url", "http://localhost:8787/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.cache_ttl", "10m")

	v.SetDefault("history.enabled", true)

	v.SetDefault("advanced.debug", false)
	v.SetDefault("advanced.clipboard.command", "")
}

// Default returns a Config populated with defaults only
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		// defaults are static; a failure here is a programming error
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return cfg
}

// Load reads configuration from cfgFile (or the default location),
// environment variables and defaults
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(GetConfigDir())
	}

	v.SetEnvPrefix("ANIMEPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

// Validate checks values that would break the controller
func (c *Config) Validate() error {
	if c.Player.DefaultVolume < 0 || c.Player.DefaultVolume > 1 {
		return fmt.Errorf("player.default_volume must be within [0,1], got %v", c.Player.DefaultVolume)
	}
	if c.Player.ProgressCadence <= 0 {
		return fmt.Errorf("player.progress_cadence must be positive, got %d", c.Player.ProgressCadence)
	}
	for _, s := range c.Player.Speeds {
		if s <= 0 {
			return fmt.Errorf("player.speeds must be positive, got %v", s)
		}
	}
	if c.Database.MaxConnections <= 0 {
		c.Database.MaxConnections = 1
	}
	return nil
}

// SaveDefaultConfig writes the default configuration as YAML to path
func SaveDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// InitializeDirs creates the config, data and state directories
func InitializeDirs() error {
	for _, dir := range []string{GetConfigDir(), GetDataDir(), filepath.Join(getStateDir(), "animeplay")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// GetConfigDir returns $XDG_CONFIG_HOME/animeplay
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "animeplay")
	}
	return filepath.Join(homeDir(), ".config", "animeplay")
}

// GetDataDir returns $XDG_DATA_HOME/animeplay
func GetDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "animeplay")
	}
	return filepath.Join(homeDir(), ".local", "share", "animeplay")
}

func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "state")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}
