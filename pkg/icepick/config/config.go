package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
)

// ErrInvalidLaunchMode is returned when launch.via is not a known mode.
var ErrInvalidLaunchMode = errors.New("invalid launch mode")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	Path         string            `mapstructure:"path"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Rotation     RotationConfig    `mapstructure:"rotation"`
	Components   map[string]string `mapstructure:"components"`
}

// WatchConfig configures the mods directory watcher.
type WatchConfig struct {
	QuietPeriod time.Duration `mapstructure:"quiet_period"`
}

// InjectConfig names the target process and SDK module.
type InjectConfig struct {
	TargetProcess   string        `mapstructure:"target_process"`
	ReadinessModule string        `mapstructure:"readiness_module"`
	SDKModule       string        `mapstructure:"sdk_module"`
	InitExport      string        `mapstructure:"init_export"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	LauncherTimeout time.Duration `mapstructure:"launcher_timeout"`
}

// LaunchConfig chooses how the game is started before injection.
type LaunchConfig struct {
	Via      string `mapstructure:"via"`
	GamePath string `mapstructure:"game_path"`
	SteamURL string `mapstructure:"steam_url"`
}

// HistoryConfig configures the operation history.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	// BaseDir is the install directory holding data/. Empty means the
	// directory of the running executable.
	BaseDir  string        `mapstructure:"base_dir"`
	ModsDir  string        `mapstructure:"mods_dir"`
	SavesDir string        `mapstructure:"saves_dir"`
	Watch    WatchConfig   `mapstructure:"watch"`
	Inject   InjectConfig  `mapstructure:"inject"`
	Launch   LaunchConfig  `mapstructure:"launch"`
	History  HistoryConfig `mapstructure:"history"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// Load reads configuration from the default locations:
//   - $XDG_CONFIG_HOME/icepick/config.yaml
//   - $HOME/.config/icepick/config.yaml
//
// Environment variables are prefixed with ICEPICK_ (e.g. ICEPICK_BASE_DIR,
// ICEPICK_INJECT_TIMEOUT).
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations; a missing default file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "icepick"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "icepick"))
		}
	}

	v.SetEnvPrefix("ICEPICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", "")
	v.SetDefault("mods_dir", DefaultModsDir)
	v.SetDefault("saves_dir", DefaultSavesDir)

	v.SetDefault("watch.quiet_period", DefaultQuietPeriod)

	v.SetDefault("inject.target_process", DefaultTargetProcess)
	v.SetDefault("inject.readiness_module", DefaultReadinessModule)
	v.SetDefault("inject.sdk_module", DefaultSDKModule)
	v.SetDefault("inject.init_export", DefaultInitExport)
	v.SetDefault("inject.poll_interval", DefaultPollInterval)
	v.SetDefault("inject.timeout", DefaultTimeout)
	v.SetDefault("inject.launcher_timeout", DefaultLauncherTimeout)

	v.SetDefault("launch.via", DefaultLaunchVia)
	v.SetDefault("launch.game_path", "")
	v.SetDefault("launch.steam_url", DefaultSteamURL)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", HistoryDir())
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.rotation.max_size", "5MB")
	v.SetDefault("logging.rotation.max_age", 7)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"repository": "info",
		"archive":    "info",
		"watcher":    "warn",
		"inject":     "info",
		"tui":        "info",
	})
}

func (c *Config) expand() error {
	for _, p := range []*string{&c.BaseDir, &c.History.Path, &c.Logging.Path, &c.Launch.GamePath} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if !slices.Contains(LaunchModes, c.Launch.Via) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidLaunchMode, c.Launch.Via, strings.Join(LaunchModes, ", "))
	}
	if c.Inject.PollInterval <= 0 {
		return fmt.Errorf("inject.poll_interval must be positive, got %s", c.Inject.PollInterval)
	}
	if c.Watch.QuietPeriod <= 0 {
		return fmt.Errorf("watch.quiet_period must be positive, got %s", c.Watch.QuietPeriod)
	}
	return nil
}

// ResolveBaseDir returns BaseDir, falling back to the executable's
// directory.
func (c *Config) ResolveBaseDir() (string, error) {
	if c.BaseDir != "" {
		return filepath.Abs(c.BaseDir)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// ModsPath returns the absolute mods directory under baseDir.
func (c *Config) ModsPath(baseDir string) string {
	return underBase(baseDir, c.ModsDir)
}

// SavesPath returns the absolute saves directory under baseDir.
func (c *Config) SavesPath(baseDir string) string {
	return underBase(baseDir, c.SavesDir)
}

// SDKDataPath is the path handed to the injected module: baseDir joined
// with data/ and a trailing separator.
func SDKDataPath(baseDir string) string {
	return filepath.Join(baseDir, filepath.FromSlash(DefaultSDKDataDir)) + string(filepath.Separator)
}

func underBase(baseDir, dir string) string {
	dir = filepath.FromSlash(dir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(baseDir, dir)
}

// LoggingSetup converts the logging section into a logging.Config.
func (c *Config) LoggingSetup() (logging.Config, error) {
	rot := logging.RotationConfig{
		MaxAge:     c.Logging.Rotation.MaxAge,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		Daily:      c.Logging.Rotation.Daily,
	}
	if c.Logging.Rotation.MaxSize != "" {
		size, err := humanize.ParseBytes(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("parsing logging.rotation.max_size: %w", err)
		}
		rot.MaxSize = int64(size)
	}

	path := c.Logging.Path
	if path == "" {
		path = logging.DefaultLogPath()
	}
	return logging.Config{
		Level:        c.Logging.Level,
		Path:         path,
		Rotation:     rot,
		Components:   c.Logging.Components,
		ConsoleLevel: c.Logging.ConsoleLevel,
	}, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "icepick"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "icepick"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns $XDG_DATA_HOME/icepick.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "icepick")
}

// HistoryDir is where operation records are kept by default.
func HistoryDir() string {
	return filepath.Join(DataDir(), "history")
}

// SettingsDir holds the settings store.
func SettingsDir() string {
	return filepath.Join(DataDir(), "settings")
}

// WriteDefault writes a commented default config file. It does nothing and
// returns the existing path when a file is already there.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(defaultTemplate,
		DefaultModsDir, DefaultSavesDir, DefaultQuietPeriod,
		DefaultTargetProcess, DefaultReadinessModule, DefaultSDKModule, DefaultInitExport,
		DefaultPollInterval, DefaultTimeout, DefaultLauncherTimeout,
		DefaultLaunchVia, DefaultSteamURL,
		HistoryDir(), DefaultRetentionDays,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

const defaultTemplate = `# icepick configuration

# Game install directory. Empty means the directory holding the icepick binary.
base_dir: ""

# Relative to base_dir unless absolute
mods_dir: %s
saves_dir: %s

watch:
  # Quiet period before a burst of file changes triggers a reload
  quiet_period: %s

inject:
  target_process: %s
  readiness_module: %s
  sdk_module: %s
  init_export: %s
  poll_interval: %s
  # Deadline when the game is started directly
  timeout: %s
  # Deadline when the game is started through Steam or Origin
  launcher_timeout: %s

launch:
  # direct, steam or none
  via: %s
  game_path: ""
  steam_url: %s

history:
  enabled: true
  path: %s
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/icepick/icepick.log
  path: ""
  # Mirror records to stderr at this level (empty disables)
  console_level: ""
  rotation:
    max_size: 5MB
    max_age: 7
    max_backups: 3
    daily: true
  components:
    repository: info
    archive: info
    watcher: warn
    inject: info
    tui: info
`

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
