package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/gridlhq/versync/internal/installer"
	"github.com/gridlhq/versync/internal/manifest"
)

const (
	FileName  = ".versync.toml"
	EnvPrefix = "VERSYNC"
)

// Config is the full versync configuration.
type Config struct {
	Manifest ManifestConfig `mapstructure:"manifest" toml:"manifest"`
	Target   TargetConfig   `mapstructure:"target" toml:"target"`
}

// ManifestConfig locates the version source.
type ManifestConfig struct {
	Path string `mapstructure:"path" toml:"path" comment:"YAML manifest holding the version"`
	Key  string `mapstructure:"key" toml:"key" comment:"top-level key to read"`
}

// TargetConfig locates the installer script to rewrite.
type TargetConfig struct {
	Path   string `mapstructure:"path" toml:"path" comment:"installer script to rewrite"`
	Atomic bool   `mapstructure:"atomic" toml:"atomic" comment:"write to a temp file and rename it into place"`
}

// Defaults returns a Config with all default values.
func Defaults() Config {
	return Config{
		Manifest: ManifestConfig{
			Path: manifest.DefaultPath,
			Key:  manifest.DefaultKey,
		},
		Target: TargetConfig{
			Path:   installer.DefaultPath,
			Atomic: true,
		},
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Manifest.Path) == "" {
		return fmt.Errorf("invalid manifest.path: must not be empty")
	}
	if strings.TrimSpace(c.Manifest.Key) == "" {
		return fmt.Errorf("invalid manifest.key: must not be empty")
	}
	if strings.TrimSpace(c.Target.Path) == "" {
		return fmt.Errorf("invalid target.path: must not be empty")
	}
	if filepath.Clean(c.Manifest.Path) == filepath.Clean(c.Target.Path) {
		return fmt.Errorf("invalid target.path %q: same file as manifest.path", c.Target.Path)
	}
	return nil
}

// Load reads configuration from .versync.toml (discovered by walking up from startDir),
// environment variables (VERSYNC_*), and applies defaults.
// Relative paths are resolved against the directory of the config file, if one was found.
// CLI flag overrides should be applied by the caller after Load returns.
func Load(startDir string) (Config, string, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setViperDefaults(v, cfg)

	configPath := FindConfig(startDir)
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, "", fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	decoderOpt := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToBasicTypeHookFunc(),
	))
	if err := v.Unmarshal(&cfg, decoderOpt); err != nil {
		return Config{}, "", fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}

	if configPath != "" {
		base := filepath.Dir(configPath)
		cfg.Manifest.Path = resolvePath(base, cfg.Manifest.Path)
		cfg.Target.Path = resolvePath(base, cfg.Target.Path)
	}

	return cfg, configPath, nil
}

// FindConfig walks up from startDir looking for .versync.toml.
// Returns the path if found, empty string otherwise.
func FindConfig(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Template renders the default configuration as a commented TOML file.
func Template() (string, error) {
	data, err := toml.Marshal(Defaults())
	if err != nil {
		return "", fmt.Errorf("rendering config template: %w", err)
	}
	header := "# versync configuration.\n" +
		"# Relative paths are resolved against this file's directory.\n" +
		"# Every key can be overridden with VERSYNC_<SECTION>_<KEY>, e.g. VERSYNC_TARGET_PATH.\n\n"
	return header + string(data), nil
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func setViperDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("manifest.path", cfg.Manifest.Path)
	v.SetDefault("manifest.key", cfg.Manifest.Key)
	v.SetDefault("target.path", cfg.Target.Path)
	v.SetDefault("target.atomic", cfg.Target.Atomic)
}
