package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	appdefaults "github.com/saker-ai/avatar-server/config"
	"github.com/saker-ai/avatar-server/internal/logger"
)

// AnimationConfig tunes the animation controller.
type AnimationConfig struct {
	ResetClip        string             `mapstructure:"reset_clip"`
	BlinkClip        string             `mapstructure:"blink_clip"`
	BlinkIntervalSec float64            `mapstructure:"blink_interval_sec"`
	BlinkHoldMs      int                `mapstructure:"blink_hold_ms"`
	OneShotClips     []string           `mapstructure:"one_shot_clips"`
	Catalog          map[string]float64 `mapstructure:"catalog"`
}

// BlinkInterval returns the automatic blink cadence; 0 disables it.
func (a AnimationConfig) BlinkInterval() time.Duration {
	if a.BlinkIntervalSec <= 0 {
		return 0
	}
	return time.Duration(a.BlinkIntervalSec * float64(time.Second))
}

// BlinkHold returns how long a blink is held before the expression is
// restored.
func (a AnimationConfig) BlinkHold() time.Duration {
	if a.BlinkHoldMs <= 0 {
		return 0
	}
	return time.Duration(a.BlinkHoldMs) * time.Millisecond
}

// CatalogDurations converts the catalog's seconds to durations.
func (a AnimationConfig) CatalogDurations() map[string]time.Duration {
	clips := make(map[string]time.Duration, len(a.Catalog))
	for name, seconds := range a.Catalog {
		clips[name] = time.Duration(seconds * float64(time.Second))
	}
	return clips
}

// MappingConfig holds the three per-domain token tables and an optional
// standalone override file.
type MappingConfig struct {
	File       string            `mapstructure:"file"`
	Locomotion map[string]string `mapstructure:"locomotion"`
	Expression map[string]string `mapstructure:"expression"`
	Gaze       map[string]string `mapstructure:"gaze"`
}

// Config represents the server configuration.
type Config struct {
	RootDir        string          `mapstructure:"-"`
	HTTPAddr       string          `mapstructure:"http_addr"`
	Host           string          `mapstructure:"host"`
	Port           int             `mapstructure:"port"`
	ServerEnabled  bool            `mapstructure:"server_enabled"`
	WelcomeMessage string          `mapstructure:"welcome_message"`
	FrontendDir    string          `mapstructure:"frontend_dir"`
	TLSCertPath    string          `mapstructure:"tls_cert_path"`
	TLSKeyPath     string          `mapstructure:"tls_key_path"`
	TLSDisable     bool            `mapstructure:"tls_disable"`
	Animation      AnimationConfig `mapstructure:"animation"`
	Mappings       MappingConfig   `mapstructure:"mappings"`
	Log            logger.Config   `mapstructure:"log"`
}

// Load reads the embedded defaults, merges an optional conf.yaml from
// the root directory and applies AVATAR_* environment overrides.
func Load() (Config, error) {
	rootDir, err := resolveRootDir()
	if err != nil {
		return Config{}, err
	}

	v := newViper()
	v.SetConfigName("conf")
	v.AddConfigPath(rootDir)

	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return Config{}, fmt.Errorf("load embedded config: %w", err)
	}
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	return finalize(v, rootDir)
}

// LoadConfig reads an explicit config file instead of searching the
// root directory. An empty path falls back to Load.
func LoadConfig(configPath string) (Config, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		return Load()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, err
	}

	rootDir := strings.TrimSpace(os.Getenv("AVATAR_ROOT_DIR"))
	if rootDir == "" {
		rootDir = filepath.Dir(absPath)
		if filepath.Base(rootDir) == "config" {
			rootDir = filepath.Dir(rootDir)
		}
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return Config{}, fmt.Errorf("load embedded config: %w", err)
	}
	v.SetConfigFile(absPath)
	if err := v.MergeInConfig(); err != nil {
		return Config{}, err
	}

	return finalize(v, rootDir)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("http_addr", "")
	v.SetDefault("host", "")
	v.SetDefault("port", 8080)
	v.SetDefault("server_enabled", true)
	v.SetDefault("welcome_message", "connected to avatar control")
	v.SetDefault("tls_disable", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)

	v.SetEnvPrefix("avatar")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func finalize(v *viper.Viper, rootDir string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.RootDir = rootDir
	deriveHTTPAddr(&cfg)
	derivePaths(&cfg)

	if cfg.Mappings.File != "" {
		overrides, err := LoadMappingFile(cfg.Mappings.File)
		if err != nil {
			return Config{}, fmt.Errorf("load mapping file: %w", err)
		}
		mergeMappings(&cfg.Mappings, overrides)
	}

	return cfg, nil
}

func deriveHTTPAddr(cfg *Config) {
	if cfg.HTTPAddr != "" {
		return
	}
	port := cfg.Port
	if port == 0 {
		port = 8080
	}
	if cfg.Host == "" {
		cfg.HTTPAddr = fmt.Sprintf(":%d", port)
		return
	}
	cfg.HTTPAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

func resolveRootDir() (string, error) {
	if root := strings.TrimSpace(os.Getenv("AVATAR_ROOT_DIR")); root != "" {
		return filepath.Abs(root)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for i := 0; i < 6; i++ {
		if fileExists(filepath.Join(dir, "conf.yaml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return wd, nil
}

func derivePaths(cfg *Config) {
	if cfg.FrontendDir != "" {
		cfg.FrontendDir = resolvePath(cfg.RootDir, cfg.FrontendDir)
	}
	if cfg.TLSCertPath != "" {
		cfg.TLSCertPath = resolvePath(cfg.RootDir, cfg.TLSCertPath)
	}
	if cfg.TLSKeyPath != "" {
		cfg.TLSKeyPath = resolvePath(cfg.RootDir, cfg.TLSKeyPath)
	}
	if cfg.Mappings.File != "" {
		cfg.Mappings.File = resolvePath(cfg.RootDir, cfg.Mappings.File)
	}
}

func mergeMappings(base *MappingConfig, overrides MappingConfig) {
	base.Locomotion = mergeTable(base.Locomotion, overrides.Locomotion)
	base.Expression = mergeTable(base.Expression, overrides.Expression)
	base.Gaze = mergeTable(base.Gaze, overrides.Gaze)
}

func mergeTable(base map[string]string, overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(overrides))
	for token, qualified := range base {
		merged[token] = qualified
	}
	for token, qualified := range overrides {
		merged[token] = qualified
	}
	return merged
}

func resolvePath(rootDir string, configured string) string {
	path := strings.TrimSpace(configured)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
