package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ErrNoRoot is returned when no switch root can be determined from the
// override flag, the config file, or the environment.
var ErrNoRoot = errors.New("no opam switch root: pass --root, set root in the config file, or set OPAM_SWITCH_PREFIX")

type ObjinfoConfig struct {
	Tool string `mapstructure:"tool"`
}

type OdocConfig struct {
	Tool string `mapstructure:"tool"`
	Jobs int    `mapstructure:"jobs"`
}

type Config struct {
	Root    string        `mapstructure:"root"`
	Objinfo ObjinfoConfig `mapstructure:"objinfo"`
	Odoc    OdocConfig    `mapstructure:"odoc"`
	Browser string        `mapstructure:"browser"`
}

// CacheDir returns the cache directory inside a switch. The snapshot and
// generated HTML live under here so removing the switch cleans them up too.
func CacheDir(root string) string {
	return filepath.Join(root, "var", "cache", "camldex")
}

// SnapshotPath returns the path of the index snapshot file for a switch.
func SnapshotPath(root string) string {
	return filepath.Join(CacheDir(root), "index.json.zst")
}

// HTMLDir returns the directory generated documentation is written to.
func HTMLDir(root string) string {
	return filepath.Join(CacheDir(root), "html")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "camldex"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "camldex"))
	}

	viper.SetDefault("root", "")
	viper.SetDefault("objinfo.tool", "ocamlobjinfo")
	viper.SetDefault("odoc.tool", "odoc")
	viper.SetDefault("odoc.jobs", 4)
	viper.SetDefault("browser", "xdg-open")

	viper.SetEnvPrefix("CAMLDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Root == "" {
		config.Root = viper.GetString("root")
	}

	return &config, nil
}

// ResolveRoot determines the opam switch root to scan. Precedence: explicit
// override, config file / CAMLDEX_ROOT, then the ambient OPAM_SWITCH_PREFIX.
// Callers resolve once per process and pass the result down; nothing below
// this layer reads the environment.
func ResolveRoot(cfg *Config, override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}
	if cfg != nil && cfg.Root != "" {
		return filepath.Clean(cfg.Root), nil
	}
	if prefix := os.Getenv("OPAM_SWITCH_PREFIX"); prefix != "" {
		return filepath.Clean(prefix), nil
	}
	return "", ErrNoRoot
}
