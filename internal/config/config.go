package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	diskalloc "github.com/lance6716/disk-allocator"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "diskalloc"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "DISKALLOC"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	Volume struct {
		Method    string `mapstructure:"method"` // contiguous, linked, indexed, contiguous-indexed or 1..4
		BlockSize int    `mapstructure:"block_size"`
		Capacity  int    `mapstructure:"capacity"`
	} `mapstructure:"volume"`

	Output struct {
		Format    string `mapstructure:"format"` // text or yaml
		ShowSteps bool   `mapstructure:"show_steps"`
	} `mapstructure:"output"`

	// ConfigFile is the file the configuration was read from, empty when only
	// defaults and environment variables were used.
	ConfigFile string `mapstructure:"-"`
}

// VolumeConfig converts the volume settings into the allocator configuration.
func (c *AppConfig) VolumeConfig() (diskalloc.Config, error) {
	method, err := diskalloc.ParseMethod(c.Volume.Method)
	if err != nil {
		return diskalloc.Config{}, err
	}
	return diskalloc.Config{
		Method:    method,
		BlockSize: c.Volume.BlockSize,
		Capacity:  c.Volume.Capacity,
	}, nil
}

// New returns a viper instance with defaults, search paths and environment
// bindings set up. Flags can be bound to it before Load.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file, if any, and unmarshals everything into
// an AppConfig. A missing config file is not an error when none was requested
// explicitly.
func Load(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		cfg.ConfigFile = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Format != "text" && cfg.Output.Format != "yaml" {
		return nil, fmt.Errorf("unsupported output format %q", cfg.Output.Format)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")

	v.SetDefault("volume.method", "contiguous")
	v.SetDefault("volume.block_size", 4)
	v.SetDefault("volume.capacity", diskalloc.DefaultCapacity)

	v.SetDefault("output.format", "text")
	v.SetDefault("output.show_steps", false)
}

func addSearchPaths(v *viper.Viper) {
	v.AddConfigPath(".")

	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, AppName))
	}
	v.AddConfigPath("/etc/" + AppName)
}
