// Package config loads the settings of the panelstate command.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Notify kinds. The SSE stream is always on; these add a second sink.
const (
	NotifyNone  = "none"
	NotifyRedis = "redis"
	NotifyLog   = "log"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Store  StoreConfig  `mapstructure:"store"`
	Notify NotifyConfig `mapstructure:"notify"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StoreConfig struct {
	Kind  string      `mapstructure:"kind"`
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`

	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// MaskFields are key patterns masked before a state is stored.
	MaskFields []string `mapstructure:"mask_fields"`
}

type NotifyConfig struct {
	Kind    string      `mapstructure:"kind"`
	Channel string      `mapstructure:"channel"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
		Store: StoreConfig{
			Kind:  StoreMemory,
			Path:  ".panelstate/states",
			Redis: RedisConfig{Addr: "localhost:6379", Prefix: "panelstate:"},
		},
		Notify: NotifyConfig{
			Kind:    NotifyNone,
			Channel: "panelstate:messages",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Decode applies a YAML (or JSON) document onto cfg. Keys absent from the
// document keep the values cfg already holds.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			secondsToDurationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// secondsToDurationHook reads bare numbers as seconds.
func secondsToDurationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

// Validate checks the kinds and keys.
func (c Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalidConfig, c.Log.Format)
	}
	switch c.Store.Kind {
	case StoreNone, StoreMemory, StoreRedis:
	case StoreFile:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the file store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store.kind %q", ErrInvalidConfig, c.Store.Kind)
	}
	switch c.Notify.Kind {
	case NotifyNone, NotifyLog:
	case NotifyRedis:
		if c.Notify.Channel == "" {
			return fmt.Errorf("%w: notify.channel is required for redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: notify.kind %q", ErrInvalidConfig, c.Notify.Kind)
	}
	if c.HTTP.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: http.shutdown_timeout must not be negative", ErrInvalidConfig)
	}
	for _, p := range c.Store.MaskFields {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: store.mask_fields %q: %v", ErrInvalidConfig, p, err)
		}
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the encryption keys. active is nil when encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("%w: store.fallback_keys without store.encryption_key", ErrInvalidConfig)
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("%w: store.encryption_key: %v", ErrInvalidConfig, err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: store.fallback_keys[%d]: %v", ErrInvalidConfig, i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
