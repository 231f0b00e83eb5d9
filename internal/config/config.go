// SPDX-License-Identifier: EPL-2.0

// Package config loads audmgr settings from a YAML file, AUDMGR_*
// environment variables and built-in defaults, in that order of priority
// after explicit overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ik5/audmgr/internal/logging"
	"github.com/ik5/audmgr/pool"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "AUDMGR"
	FileName  = "audmgr"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Catalog  CatalogConfig          `mapstructure:"catalog"`
	Clips    ClipsConfig            `mapstructure:"clips"`
	Audio    AudioConfig            `mapstructure:"audio"`
	Pool     PoolConfig             `mapstructure:"pool"`
	Dispatch DispatchConfig         `mapstructure:"dispatch"`
	Groups   map[string]GroupConfig `mapstructure:"groups"`
	Log      LogConfig              `mapstructure:"log"`
	HTTP     HTTPConfig             `mapstructure:"http"`
}

type CatalogConfig struct {
	Dir      string        `mapstructure:"dir"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type ClipsConfig struct {
	Root string `mapstructure:"root"`
	// TTL of decoded clips in the cache; negative keeps them forever.
	TTL     time.Duration `mapstructure:"ttl"`
	Preload bool          `mapstructure:"preload"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	// Buffer is the output device latency.
	Buffer time.Duration `mapstructure:"buffer"`
	Master float32       `mapstructure:"master"`
}

type PoolConfig struct {
	Capacity int    `mapstructure:"capacity"`
	Prewarm  int    `mapstructure:"prewarm"`
	Policy   string `mapstructure:"policy"`
}

type DispatchConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// GroupConfig overrides one channel group. Unset fields keep the
// built-in behaviour: pausable, unity volume.
type GroupConfig struct {
	Pausable *bool    `mapstructure:"pausable"`
	Volume   *float32 `mapstructure:"volume"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.dir", "profiles")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("catalog.debounce", 100*time.Millisecond)

	v.SetDefault("clips.root", "sounds")
	v.SetDefault("clips.ttl", 10*time.Minute)
	v.SetDefault("clips.preload", false)

	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.buffer", 50*time.Millisecond)
	v.SetDefault("audio.master", 1.0)

	v.SetDefault("pool.capacity", pool.DefaultCapacity)
	v.SetDefault("pool.prewarm", 0)
	v.SetDefault("pool.policy", pool.PolicyGrow.String())

	v.SetDefault("dispatch.tick_interval", 20*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(logging.FormatText))

	v.SetDefault("http.addr", "127.0.0.1:8089")
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults are static; failing here is a programming error
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, or searches the working directory and
// $HOME/.config/audmgr for audmgr.yaml when path is empty. A missing
// file in the search locations is not an error.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Catalog.Dir == "" {
		bad("catalog.dir is empty")
	}
	if c.Catalog.Debounce < 0 {
		bad("catalog.debounce %s is negative", c.Catalog.Debounce)
	}
	if c.Audio.SampleRate <= 0 {
		bad("audio.sample_rate %d must be positive", c.Audio.SampleRate)
	}
	if c.Audio.Buffer < 0 {
		bad("audio.buffer %s is negative", c.Audio.Buffer)
	}
	if c.Audio.Master < 0 {
		bad("audio.master %v is negative", c.Audio.Master)
	}
	if c.Pool.Capacity <= 0 {
		bad("pool.capacity %d must be positive", c.Pool.Capacity)
	}
	if c.Pool.Prewarm < 0 || c.Pool.Prewarm > c.Pool.Capacity {
		bad("pool.prewarm %d outside [0, %d]", c.Pool.Prewarm, c.Pool.Capacity)
	}
	if _, err := pool.ParsePolicy(c.Pool.Policy); err != nil {
		bad("pool.policy: %v", err)
	}
	if c.Dispatch.TickInterval <= 0 {
		bad("dispatch.tick_interval %s must be positive", c.Dispatch.TickInterval)
	}
	for name, g := range c.Groups {
		if g.Volume != nil && *g.Volume < 0 {
			bad("groups.%s.volume %v is negative", name, *g.Volume)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		bad("log.level: %v", err)
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		bad("log.format %q is not text or json", c.Log.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// PoolConfig converts the pool section. Call Validate first.
func (c *Config) PoolConfig() pool.Config {
	policy, _ := pool.ParsePolicy(c.Pool.Policy)
	return pool.Config{
		Capacity: c.Pool.Capacity,
		Prewarm:  c.Pool.Prewarm,
		Policy:   policy,
	}
}
