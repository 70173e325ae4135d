package config

import (
	"path/filepath"
	"strings"
	"sync"

	"launchdeck/internal/env"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

/**
 * Server configuration parameters
 * @property {string} address - Server listening address (e.g. "127.0.0.1:8999")
 * @property {string} mode - gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" writes to stdout
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

/**
 * Port range handed out to web targets
 * @property {int} min - First port of the range (inclusive)
 * @property {int} max - Last port of the range (inclusive)
 * @property {[]int} reserved - Ports never handed out
 * @property {bool} skip_occupied - Also skip ports that already accept connections
 * @property {string} lock_file - Cross-process allocation lock
 */
type PortsConfig struct {
	Min          int    `mapstructure:"min"`
	Max          int    `mapstructure:"max"`
	Reserved     []int  `mapstructure:"reserved"`
	SkipOccupied bool   `mapstructure:"skip_occupied"`
	LockFile     string `mapstructure:"lock_file"`
}

/**
 * Launcher behaviour
 * @property {string} shell - POSIX shell running generated scripts
 * @property {string} terminal - Terminal program opening a console window (unix), empty runs headless
 * @property {[]string} terminal_args - Argument templates for the terminal, {{.Script}} and {{.Title}} are available
 * @property {bool} install_dependencies - Default for the install step when the caller doesn't say
 * @property {int} output_wait_ms - How long launch waits before collecting early output
 * @property {bool} open_browser - Open the browser once a web target answers
 * @property {int} health_retries - Number of HTTP probes before giving up
 * @property {int} health_interval_ms - Delay between probes
 */
type LauncherConfig struct {
	Shell               string   `mapstructure:"shell"`
	Terminal            string   `mapstructure:"terminal"`
	TerminalArgs        []string `mapstructure:"terminal_args"`
	InstallDependencies bool     `mapstructure:"install_dependencies"`
	OutputWaitMs        int      `mapstructure:"output_wait_ms"`
	OpenBrowser         bool     `mapstructure:"open_browser"`
	HealthRetries       int      `mapstructure:"health_retries"`
	HealthIntervalMs    int      `mapstructure:"health_interval_ms"`
}

// IntervalConfig values are in seconds; 0 disables the loop.
type IntervalConfig struct {
	Monitoring int `mapstructure:"monitoring"`
}

type DiscoveryConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ports     PortsConfig     `mapstructure:"ports"`
	Launcher  LauncherConfig  `mapstructure:"launcher"`
	Interval  IntervalConfig  `mapstructure:"interval"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

var (
	Config AppConfig
	mu     sync.RWMutex
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1:8999")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("ports.min", 9000)
	v.SetDefault("ports.max", 9999)
	v.SetDefault("ports.reserved", []int{5000, 8000, 8080})
	v.SetDefault("launcher.shell", "/bin/bash")
	v.SetDefault("launcher.install_dependencies", true)
	v.SetDefault("launcher.output_wait_ms", 1000)
	v.SetDefault("launcher.open_browser", true)
	v.SetDefault("launcher.health_retries", 30)
	v.SetDefault("launcher.health_interval_ms", 1000)
	v.SetDefault("interval.monitoring", 60)
	v.SetDefault("discovery.max_depth", 10)
}

/**
 * Load application configuration from YAML file
 * @returns {*AppConfig} Parsed configuration, defaults applied
 * @returns {error} Error if the file exists but can't be parsed
 * @description
 * - Looks for config.yaml in the working directory, then in the launchdeck directory
 * - LAUNCHDECK_* environment variables override file values (LAUNCHDECK_SERVER_ADDRESS...)
 * - A missing file is not an error
 */
func LoadConfig() (*AppConfig, error) {
	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(env.LaunchdeckDir)
	v.SetEnvPrefix("LAUNCHDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return collectConfig(&cfg), nil
}

/**
 * Reload configuration and replace the global copy
 * @returns {error} Error if loading fails, the previous configuration stays active
 */
func ReloadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	mu.Lock()
	Config = *cfg
	mu.Unlock()
	return nil
}

// App returns a snapshot of the active configuration.
func App() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	cfg := Config
	return &cfg
}

/**
 * Watch the configuration file and reload it on change
 * @param {func(*AppConfig)} onChange - Called with the new configuration after a successful reload
 * @description
 * - No-op when no configuration file was found
 */
func Watch(onChange func(*AppConfig)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := ReloadConfig(); err != nil {
			return
		}
		if onChange != nil {
			onChange(App())
		}
	})
	viper.WatchConfig()
}

// Default returns a configuration with every default applied and no file read.
func Default() *AppConfig {
	v := viper.New()
	setDefaults(v)
	var cfg AppConfig
	_ = v.Unmarshal(&cfg)
	return collectConfig(&cfg)
}

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(env.LaunchdeckDir, "launchdeck.db")
	}
	if cfg.Ports.LockFile == "" {
		cfg.Ports.LockFile = filepath.Join(env.RunDir(), "ports.lock")
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = filepath.Join(env.LaunchdeckDir, "logs", "launchdeck.log")
	}
	if cfg.Ports.Min <= 0 {
		cfg.Ports.Min = 9000
	}
	if cfg.Ports.Max < cfg.Ports.Min {
		cfg.Ports.Max = cfg.Ports.Min
	}
	if cfg.Launcher.HealthRetries <= 0 {
		cfg.Launcher.HealthRetries = 30
	}
	if cfg.Launcher.HealthIntervalMs <= 0 {
		cfg.Launcher.HealthIntervalMs = 1000
	}
	if cfg.Discovery.MaxDepth <= 0 {
		cfg.Discovery.MaxDepth = 10
	}
	return cfg
}

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	} else {
		Config = *Default()
	}
}
