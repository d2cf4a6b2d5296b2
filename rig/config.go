package rig

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tgoodhew/go-hp8902/gpib"
)

// EndpointConfig locates one instrument: the serial port of its GPIB
// controller and its bus address.
type EndpointConfig struct {
	Port    string `toml:"port"`
	Address int    `toml:"address"`
}

// Config carries the explicit rig configuration. It replaces the ambient
// globals of earlier tooling: the SessionManager receives it at
// construction and nothing else reads addresses or ports.
type Config struct {
	Meter  EndpointConfig `toml:"meter"`
	Source EndpointConfig `toml:"source"`

	// SRQWaitSeconds bounds each wait for an instrument completion
	// interrupt during calibration.
	SRQWaitSeconds int `toml:"srq_wait_seconds"`

	// AbortOnSendError makes any failed command send fatal to a
	// calibration run. The default keeps the permissive behavior: failed
	// sends are logged and the sequence proceeds.
	AbortOnSendError bool `toml:"abort_on_send_error"`

	// CalTablePath locates the persisted calibration-factor table.
	CalTablePath string `toml:"cal_table_path"`
}

// DefaultConfig returns a configuration with the customary bench addresses.
func DefaultConfig() *Config {
	return &Config{
		Meter:          EndpointConfig{Port: "/dev/ttyUSB0", Address: 14},
		Source:         EndpointConfig{Port: "/dev/ttyUSB1", Address: 19},
		SRQWaitSeconds: 120,
		CalTablePath:   "calfactors.toml",
	}
}

// LoadConfig reads a TOML configuration file over the defaults and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load rig config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the address invariants: both addresses in [1, 30] and
// mutually distinct, ports present, and a sane wait bound.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	for _, ep := range []struct {
		role Role
		cfg  EndpointConfig
	}{
		{RoleMeter, c.Meter},
		{RoleSource, c.Source},
	} {
		if ep.cfg.Port == "" {
			return fmt.Errorf("%s: serial port not configured", ep.role)
		}
		if ep.cfg.Address < 1 || ep.cfg.Address > 30 {
			return fmt.Errorf("%s: %w", ep.role, gpib.ErrAddrRange)
		}
	}

	if c.Meter.Address == c.Source.Address {
		return ErrSameAddress
	}

	if c.SRQWaitSeconds < 1 || c.SRQWaitSeconds > 600 {
		return fmt.Errorf("srq_wait_seconds out of range [1, 600]: %d", c.SRQWaitSeconds)
	}

	return nil
}

func (c *Config) srqWaitTimeout() time.Duration {
	return time.Duration(c.SRQWaitSeconds) * time.Second
}
