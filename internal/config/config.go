package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/netmsg/internal/protocol/frame"
	"github.com/danmuck/netmsg/internal/transport"
)

// ServerConfig is the runtime configuration of netmsgd.
type ServerConfig struct {
	Network         string
	ListenAddr      string
	AdminAddr       string
	CorsOrigins     []string
	AdminToken      string
	ItemsFile       string
	Strict          bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxPayloadBytes int
	CaptureFile     string
}

type fileConfig struct {
	Network         string   `toml:"network"`
	ListenAddr      string   `toml:"listen_addr"`
	AdminAddr       string   `toml:"admin_addr"`
	CorsOrigins     []string `toml:"cors_origins"`
	AdminToken      string   `toml:"admin_token"`
	ItemsFile       string   `toml:"items_file"`
	Strict          bool     `toml:"strict"`
	ReadTimeout     string   `toml:"read_timeout"`
	WriteTimeout    string   `toml:"write_timeout"`
	MaxPayloadBytes int      `toml:"max_payload_bytes"`
	CaptureFile     string   `toml:"capture_file"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Network:         transport.NetworkTCP,
		ListenAddr:      "127.0.0.1:7171",
		AdminAddr:       "127.0.0.1:7180",
		ItemsFile:       "configs/items.toml",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxPayloadBytes: frame.MaxPayload,
	}
}

// LoadServerConfig applies the keys present in path over the defaults.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return ServerConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("network") {
		cfg.Network = strings.ToLower(strings.TrimSpace(raw.Network))
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("items_file") {
		cfg.ItemsFile = strings.TrimSpace(raw.ItemsFile)
	}
	if meta.IsDefined("strict") {
		cfg.Strict = raw.Strict
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return ServerConfig{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return ServerConfig{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.WriteTimeout = d
	}
	if meta.IsDefined("max_payload_bytes") {
		cfg.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if meta.IsDefined("capture_file") {
		cfg.CaptureFile = strings.TrimSpace(raw.CaptureFile)
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	switch cfg.Network {
	case transport.NetworkTCP, transport.NetworkKCP:
	default:
		return fmt.Errorf("server config network must be %q or %q, got %q", transport.NetworkTCP, transport.NetworkKCP, cfg.Network)
	}
	if err := validateAddr("listen_addr", cfg.ListenAddr); err != nil {
		return err
	}
	if cfg.AdminAddr != "" {
		if err := validateAddr("admin_addr", cfg.AdminAddr); err != nil {
			return err
		}
	}
	if strings.TrimSpace(cfg.ItemsFile) == "" {
		return fmt.Errorf("server config missing items_file")
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return fmt.Errorf("server config timeouts must not be negative")
	}
	if cfg.MaxPayloadBytes <= 0 || cfg.MaxPayloadBytes > frame.MaxPayload {
		return fmt.Errorf("server config max_payload_bytes must be in 1..%d, got %d", frame.MaxPayload, cfg.MaxPayloadBytes)
	}
	return nil
}

// Limits returns the frame limits configured for client connections.
func (cfg ServerConfig) Limits() frame.Limits {
	return frame.Limits{MaxPayloadBytes: cfg.MaxPayloadBytes}
}

func validateAddr(key, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("server config missing %s", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("server config %s invalid: %w", key, err)
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
