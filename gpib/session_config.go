package gpib

import (
	"errors"
	"time"

	"github.com/tgoodhew/go-hp8902/logger"
)

// SessionConfig represents the configuration parameters for one command
// channel to an instrument endpoint.
type SessionConfig struct {
	// port specifies the serial port of the GPIB controller for this endpoint.
	port string

	// addr specifies the GPIB address of the endpoint, in range [1, 30].
	addr int

	// timeout defines the read/write timeout for bus transactions.
	// Defaults to 2000 ms.
	timeout time.Duration

	// srqWaitTimeout bounds a WaitSRQ call. The reference hardware takes
	// tens of seconds to zero a power sensor, so the bound is generous.
	// Defaults to 120 seconds.
	srqWaitTimeout time.Duration

	// srqPollInterval defines how often the poll task samples the SRQ line.
	// Defaults to 100 ms.
	srqPollInterval time.Duration

	// probeCmd is the identity query sent immediately after open; a
	// non-empty answer is the sole acceptance criterion for "connected".
	// Defaults to "*IDN?".
	probeCmd string

	// statusCmd reads the instrument's status register during service
	// request acknowledgement. Defaults to "RS".
	statusCmd string

	// statusClearCmd clears the instrument's status byte after the status
	// register has been read. Defaults to "CS".
	statusClearCmd string

	// dialer opens the Bus transport. Defaults to Dial (Prologix over serial).
	dialer Dialer

	// logger provides a logger instance for session events and errors.
	logger logger.Logger
}

// NewSessionConfig creates a session configuration for the endpoint at addr
// behind the given serial port, applying the provided functional options.
//
// Returns an error if the address is outside [1, 30] or an option is invalid.
func NewSessionConfig(port string, addr int, opts ...SessionOption) (*SessionConfig, error) {
	if addr < 1 || addr > 30 {
		return nil, ErrAddrRange
	}

	cfg := &SessionConfig{
		port:            port,
		addr:            addr,
		timeout:         2000 * time.Millisecond,
		srqWaitTimeout:  120 * time.Second,
		srqPollInterval: 100 * time.Millisecond,
		probeCmd:        "*IDN?",
		statusCmd:       "RS",
		statusClearCmd:  "CS",
		dialer:          Dial,
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// SessionOption represents a functional option for configuring a SessionConfig.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc struct {
	name      string
	applyFunc func(*SessionConfig) error
}

func (o *sessionOptFunc) apply(cfg *SessionConfig) error { return o.applyFunc(cfg) }

func newSessionOptFunc(name string, f func(*SessionConfig) error) *sessionOptFunc {
	return &sessionOptFunc{name: name, applyFunc: f}
}

// WithTimeout sets the read/write timeout for bus transactions.
// An error is returned if the timeout is outside [0.1, 30] seconds.
//
// The default value is 2000 ms.
func WithTimeout(val time.Duration) SessionOption {
	return newSessionOptFunc("WithTimeout", func(cfg *SessionConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if val < 100*time.Millisecond || val > 30*time.Second {
			return errors.New("timeout out of range [0.1, 30]")
		}
		cfg.timeout = val

		return nil
	})
}

// WithSRQWaitTimeout bounds how long WaitSRQ blocks before failing with
// ErrWaitTimeout. An error is returned if the bound is outside [1, 600] seconds.
//
// The default value is 120 seconds.
func WithSRQWaitTimeout(val time.Duration) SessionOption {
	return newSessionOptFunc("WithSRQWaitTimeout", func(cfg *SessionConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if val < 1*time.Second || val > 600*time.Second {
			return errors.New("srq wait timeout out of range [1, 600]")
		}
		cfg.srqWaitTimeout = val

		return nil
	})
}

// WithSRQPollInterval sets the interval at which the poll task samples the
// SRQ line. An error is returned if the interval is outside [10, 1000] ms.
//
// The default value is 100 ms.
func WithSRQPollInterval(val time.Duration) SessionOption {
	return newSessionOptFunc("WithSRQPollInterval", func(cfg *SessionConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if val < 10*time.Millisecond || val > 1*time.Second {
			return errors.New("srq poll interval out of range [0.01, 1]")
		}
		cfg.srqPollInterval = val

		return nil
	})
}

// WithProbeCommand sets the identity query used to accept a connection.
// The default is "*IDN?"; older HP instruments need an instrument-specific
// query instead.
func WithProbeCommand(cmd string) SessionOption {
	return newSessionOptFunc("WithProbeCommand", func(cfg *SessionConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if cmd == "" {
			return errors.New("probe command is empty")
		}
		cfg.probeCmd = cmd

		return nil
	})
}

// WithStatusCommands sets the status-register read and status-clear commands
// used while acknowledging a service request.
//
// The defaults are "RS" and "CS".
func WithStatusCommands(readCmd, clearCmd string) SessionOption {
	return newSessionOptFunc("WithStatusCommands", func(cfg *SessionConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if readCmd == "" || clearCmd == "" {
			return errors.New("status command is empty")
		}
		cfg.statusCmd = readCmd
		cfg.statusClearCmd = clearCmd

		return nil
	})
}

// WithDialer sets the transport dialer. The default dials a Prologix
// controller over the configured serial port; tests substitute scripted
// buses here.
func WithDialer(d Dialer) SessionOption {
	return newSessionOptFunc("WithDialer", func(cfg *SessionConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if d == nil {
			return errors.New("dialer is nil")
		}
		cfg.dialer = d

		return nil
	})
}

// WithLogger sets the logger for the session.
//
// The default logger is the global logger instance.
func WithLogger(l logger.Logger) SessionOption {
	return newSessionOptFunc("WithLogger", func(cfg *SessionConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}
		cfg.logger = l

		return nil
	})
}
