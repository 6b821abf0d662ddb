// Package config layers defaults, an optional config file, environment
// variables and command-line flags into one Config.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chaz8081/validate-marketplace/internal/engine"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// FileName is looked up in the repository root when --config is not given.
	FileName = ".validate-marketplace.yaml"
	// EnvPrefix prefixes every environment override, e.g. VALIDATE_MARKETPLACE_COLOR.
	EnvPrefix = "VALIDATE_MARKETPLACE"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	PluginDir     string `mapstructure:"plugin_dir" yaml:"plugin_dir"`
	SkillsDir     string `mapstructure:"skills_dir" yaml:"skills_dir"`
	AgentsDir     string `mapstructure:"agents_dir" yaml:"agents_dir"`
	Marker        string `mapstructure:"marker" yaml:"marker"`
	Color         string `mapstructure:"color" yaml:"color"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	StrictVersion bool   `mapstructure:"strict_version" yaml:"strict_version"`
	CacheDir      string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// Layout returns the engine layout this config describes.
func (c Config) Layout() engine.Layout {
	return engine.Layout{
		PluginDir: c.PluginDir,
		SkillsDir: c.SkillsDir,
		AgentsDir: c.AgentsDir,
		Marker:    c.Marker,
	}
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	l := engine.DefaultLayout()
	v.SetDefault("plugin_dir", l.PluginDir)
	v.SetDefault("skills_dir", l.SkillsDir)
	v.SetDefault("agents_dir", l.AgentsDir)
	v.SetDefault("marker", l.Marker)
	v.SetDefault("color", "auto")
	v.SetDefault("log_level", "warn")
	v.SetDefault("strict_version", false)
	v.SetDefault("cache_dir", defaultCacheDir())
}

// Load resolves the configuration for a repository at root. An explicit
// file must exist; the implicit <root>/.validate-marketplace.yaml is optional
// and is not looked up when root is empty.
func Load(v *viper.Viper, root, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file == "" && root != "" {
		candidate := filepath.Join(root, FileName)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c Config) validate() error {
	switch c.Color {
	case "auto", "always", "never":
	default:
		return errors.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
	}
	if strings.TrimSpace(c.Marker) == "" {
		return errors.New("marker file name must not be empty")
	}
	return nil
}

// defaultCacheDir returns ~/.validate-marketplace/cache.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".validate-marketplace", "cache")
}
