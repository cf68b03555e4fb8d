// Package config holds the build-time configuration. The TOML document is
// embedded at compile time; nothing is read from disk or the environment
// when the process starts.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/slime/internal/dashboard"
	"github.com/danmuck/slime/internal/egress"
	"github.com/danmuck/slime/internal/ingress"
	"github.com/danmuck/slime/internal/logging"
	pelletier "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

var ErrNotLoopback = errors.New("config: listen address must be loopback")

//go:embed build.toml
var buildTOML []byte

type Config struct {
	Ingress   ingress.Config
	Dashboard dashboard.Config
	Egress    egress.Config
	LogLevel  zerolog.Level
}

func Default() Config {
	return Config{
		Ingress:   ingress.DefaultConfig(),
		Dashboard: dashboard.DefaultConfig(),
		Egress:    egress.DefaultConfig(),
		LogLevel:  zerolog.InfoLevel,
	}
}

// Build returns the configuration compiled into this binary.
func Build() (Config, error) {
	return Parse(buildTOML)
}

// BuildSource returns the embedded document as compiled.
func BuildSource() []byte {
	return append([]byte(nil), buildTOML...)
}

type fileConfig struct {
	Ingress struct {
		Address     string `toml:"address"`
		MaxHandlers int    `toml:"max_handlers"`
		ReadTimeout string `toml:"read_timeout"`
	} `toml:"ingress"`
	Dashboard struct {
		Enabled bool   `toml:"enabled"`
		Address string `toml:"address"`
	} `toml:"dashboard"`
	Egress struct {
		Socket       string `toml:"socket"`
		DialTimeout  string `toml:"dial_timeout"`
		WriteTimeout string `toml:"write_timeout"`
		ActuatorUID  int    `toml:"actuator_uid"`
	} `toml:"egress"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Parse overlays doc onto Default. Keys absent from doc keep their
// defaults; unknown keys are rejected.
func Parse(doc []byte) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.Decode(string(doc), &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse build config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse build config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("ingress", "address") {
		cfg.Ingress.Address = strings.TrimSpace(raw.Ingress.Address)
	}
	if meta.IsDefined("ingress", "max_handlers") {
		cfg.Ingress.MaxHandlers = raw.Ingress.MaxHandlers
	}
	if meta.IsDefined("ingress", "read_timeout") {
		if cfg.Ingress.ReadTimeout, err = parseDuration("ingress.read_timeout", raw.Ingress.ReadTimeout); err != nil {
			return Config{}, err
		}
	}

	if meta.IsDefined("dashboard", "enabled") {
		cfg.Dashboard.Enabled = raw.Dashboard.Enabled
	}
	if meta.IsDefined("dashboard", "address") {
		cfg.Dashboard.Address = strings.TrimSpace(raw.Dashboard.Address)
	}

	if meta.IsDefined("egress", "socket") {
		cfg.Egress.Socket = strings.TrimSpace(raw.Egress.Socket)
	}
	if meta.IsDefined("egress", "dial_timeout") {
		if cfg.Egress.DialTimeout, err = parseDuration("egress.dial_timeout", raw.Egress.DialTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("egress", "write_timeout") {
		if cfg.Egress.WriteTimeout, err = parseDuration("egress.write_timeout", raw.Egress.WriteTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("egress", "actuator_uid") {
		cfg.Egress.ActuatorUID = raw.Egress.ActuatorUID
	}

	if meta.IsDefined("log", "level") {
		if cfg.LogLevel, err = logging.ParseLevel(raw.Log.Level); err != nil {
			return Config{}, fmt.Errorf("parse log.level: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func (c Config) Validate() error {
	if err := c.Ingress.Validate(); err != nil {
		return err
	}
	if err := requireLoopback("ingress.address", c.Ingress.Address); err != nil {
		return err
	}
	if err := c.Dashboard.Validate(); err != nil {
		return err
	}
	if c.Dashboard.Enabled {
		if err := requireLoopback("dashboard.address", c.Dashboard.Address); err != nil {
			return err
		}
	}
	return c.Egress.Validate()
}

func requireLoopback(key, addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("%w: %s=%q", ErrNotLoopback, key, addr)
	}
	return nil
}

// Render writes the effective configuration, defaults included, as TOML.
func Render(c Config) ([]byte, error) {
	var out fileConfig
	out.Ingress.Address = c.Ingress.Address
	out.Ingress.MaxHandlers = c.Ingress.MaxHandlers
	out.Ingress.ReadTimeout = c.Ingress.ReadTimeout.String()
	out.Dashboard.Enabled = c.Dashboard.Enabled
	out.Dashboard.Address = c.Dashboard.Address
	out.Egress.Socket = c.Egress.Socket
	out.Egress.DialTimeout = c.Egress.DialTimeout.String()
	out.Egress.WriteTimeout = c.Egress.WriteTimeout.String()
	out.Egress.ActuatorUID = c.Egress.ActuatorUID
	out.Log.Level = c.LogLevel.String()
	return pelletier.Marshal(out)
}
