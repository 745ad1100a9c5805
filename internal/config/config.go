package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/danmuck/edgeclient/internal/client"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// EnvPrefix scopes every environment override.
const EnvPrefix = "EDGECLIENT_"

var ErrOutOfRange = errors.New("config: value out of range")

type retransmissionFile struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	Jitter       bool    `toml:"jitter"`
	MaxAttempts  int     `toml:"max_attempts"`
}

type fileConfig struct {
	ListenPort     int64              `toml:"listen_port"`
	ServerHost     string             `toml:"server_host"`
	ServerPort     int64              `toml:"server_port"`
	ServerID       int64              `toml:"server_id"`
	Endpoint       string             `toml:"endpoint"`
	Lifetime       string             `toml:"lifetime"`
	MaxWait        string             `toml:"max_wait"`
	ResolveTimeout string             `toml:"resolve_timeout"`
	DumpPackets    bool               `toml:"dump_packets"`
	TestInstances  []int64            `toml:"test_instances"`
	Latitude       float64            `toml:"latitude"`
	Longitude      float64            `toml:"longitude"`
	Retransmission retransmissionFile `toml:"retransmission"`
}

// envConfig holds overrides; nil means unset.
type envConfig struct {
	ListenPort     *uint16        `env:"LISTEN_PORT"`
	ServerHost     *string        `env:"SERVER_HOST"`
	ServerPort     *uint16        `env:"SERVER_PORT"`
	ServerID       *uint16        `env:"SERVER_ID"`
	Endpoint       *string        `env:"ENDPOINT"`
	Lifetime       *time.Duration `env:"LIFETIME"`
	MaxWait        *time.Duration `env:"MAX_WAIT"`
	ResolveTimeout *time.Duration `env:"RESOLVE_TIMEOUT"`
	DumpPackets    *bool          `env:"DUMP_PACKETS"`
	TestInstances  []uint16       `env:"TEST_INSTANCES" envSeparator:","`
}

// Load resolves the service config. Empty paths skip their layer; a missing
// .env file is ignored but a missing config file is an error.
func Load(path, envPath string) (client.ServiceConfig, error) {
	cfg := client.DefaultServiceConfig()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return client.ServiceConfig{}, err
		}
	}
	if envPath != "" {
		if err := loadDotEnv(envPath); err != nil {
			return client.ServiceConfig{}, fmt.Errorf("load env file: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return client.ServiceConfig{}, err
	}

	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = uuid.NewString()
		log.Info().Str("endpoint", cfg.Endpoint).Msg("config.Load generated endpoint name")
	}
	if err := cfg.Validate(); err != nil {
		return client.ServiceConfig{}, err
	}
	return cfg, nil
}

func applyFile(cfg *client.ServiceConfig, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load client config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warn().Str("path", path).Interface("keys", undecoded).Msg("config.Load unknown keys ignored")
	}

	if meta.IsDefined("listen_port") {
		if cfg.ListenPort, err = toUint16("listen_port", raw.ListenPort); err != nil {
			return err
		}
	}
	if meta.IsDefined("server_host") {
		cfg.ServerHost = strings.TrimSpace(raw.ServerHost)
	}
	if meta.IsDefined("server_port") {
		if cfg.ServerPort, err = toUint16("server_port", raw.ServerPort); err != nil {
			return err
		}
	}
	if meta.IsDefined("server_id") {
		if cfg.ServerShortID, err = toUint16("server_id", raw.ServerID); err != nil {
			return err
		}
	}
	if meta.IsDefined("endpoint") {
		cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	}
	if meta.IsDefined("lifetime") {
		if cfg.Lifetime, err = parseDuration("lifetime", raw.Lifetime); err != nil {
			return err
		}
	}
	if meta.IsDefined("max_wait") {
		if cfg.MaxWait, err = parseDuration("max_wait", raw.MaxWait); err != nil {
			return err
		}
	}
	if meta.IsDefined("resolve_timeout") {
		if cfg.ResolveTimeout, err = parseDuration("resolve_timeout", raw.ResolveTimeout); err != nil {
			return err
		}
	}
	if meta.IsDefined("dump_packets") {
		cfg.DumpPackets = raw.DumpPackets
	}
	if meta.IsDefined("test_instances") {
		ids := make([]uint16, 0, len(raw.TestInstances))
		for _, v := range raw.TestInstances {
			id, err := toUint16("test_instances", v)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		cfg.TestInstances = ids
	}
	if meta.IsDefined("latitude") {
		cfg.Latitude = raw.Latitude
	}
	if meta.IsDefined("longitude") {
		cfg.Longitude = raw.Longitude
	}

	rt := &cfg.Retransmission
	if meta.IsDefined("retransmission", "initial_delay") {
		if rt.InitialDelay, err = parseDuration("retransmission.initial_delay", raw.Retransmission.InitialDelay); err != nil {
			return err
		}
	}
	if meta.IsDefined("retransmission", "multiplier") {
		rt.Multiplier = raw.Retransmission.Multiplier
	}
	if meta.IsDefined("retransmission", "max_delay") {
		if rt.MaxDelay, err = parseDuration("retransmission.max_delay", raw.Retransmission.MaxDelay); err != nil {
			return err
		}
	}
	if meta.IsDefined("retransmission", "jitter") {
		rt.Jitter = raw.Retransmission.Jitter
	}
	if meta.IsDefined("retransmission", "max_attempts") {
		rt.MaxAttempts = raw.Retransmission.MaxAttempts
	}
	return nil
}

func applyEnv(cfg *client.ServiceConfig) error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if e.ListenPort != nil {
		cfg.ListenPort = *e.ListenPort
	}
	if e.ServerHost != nil {
		cfg.ServerHost = strings.TrimSpace(*e.ServerHost)
	}
	if e.ServerPort != nil {
		cfg.ServerPort = *e.ServerPort
	}
	if e.ServerID != nil {
		cfg.ServerShortID = *e.ServerID
	}
	if e.Endpoint != nil {
		cfg.Endpoint = strings.TrimSpace(*e.Endpoint)
	}
	if e.Lifetime != nil {
		cfg.Lifetime = *e.Lifetime
	}
	if e.MaxWait != nil {
		cfg.MaxWait = *e.MaxWait
	}
	if e.ResolveTimeout != nil {
		cfg.ResolveTimeout = *e.ResolveTimeout
	}
	if e.DumpPackets != nil {
		cfg.DumpPackets = *e.DumpPackets
	}
	if len(e.TestInstances) > 0 {
		cfg.TestInstances = e.TestInstances
	}
	return nil
}

// loadDotEnv loads environment variables from path. Missing files are ignored
// and variables already present in the process environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func toUint16(key string, v int64) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %s=%d", ErrOutOfRange, key, v)
	}
	return uint16(v), nil
}
