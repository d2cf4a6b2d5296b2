package rig

import (
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/tgoodhew/go-hp8902/gpib"
	"github.com/tgoodhew/go-hp8902/logger"
)

// Role identifies an instrument's logical role on the rig.
type Role uint8

const (
	// RoleMeter is the HP 8902 measuring receiver.
	RoleMeter Role = iota
	// RoleSource is the HP 8673 signal generator.
	RoleSource
)

// String returns string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleMeter:
		return "meter"
	case RoleSource:
		return "source"
	default:
		return "unknown"
	}
}

// SessionManager is the sole owner of the two command channels. It creates
// a session per role on Connect, replaces an existing one rather than
// leaving it dangling, and releases everything on Close. The orchestrator
// and planner never create or destroy channels.
type SessionManager struct {
	mu     sync.Mutex // guards cfg address/port mutation
	cfg    *Config
	dialer gpib.Dialer
	logger logger.Logger

	sessions *xsync.MapOf[Role, *gpib.Session]
}

// ManagerOption customizes a SessionManager.
type ManagerOption func(*SessionManager)

// WithManagerLogger sets the manager's logger. The default is the global
// logger instance.
func WithManagerLogger(l logger.Logger) ManagerOption {
	return func(m *SessionManager) { m.logger = l }
}

// WithManagerDialer overrides the bus dialer for every session the manager
// creates. Tests inject scripted buses here.
func WithManagerDialer(d gpib.Dialer) ManagerOption {
	return func(m *SessionManager) { m.dialer = d }
}

// NewSessionManager validates cfg and creates a manager with no live
// sessions.
func NewSessionManager(cfg *Config, opts ...ManagerOption) (*SessionManager, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &SessionManager{
		cfg:      cfg,
		logger:   logger.GetLogger(),
		sessions: xsync.NewMapOf[Role, *gpib.Session](),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Connect opens the command channel for the given role. If a session
// already exists for the role it is closed and replaced, with a warning, so
// at most one live channel exists per role. A failed connect leaves no
// partial state; the caller may retry.
func (m *SessionManager) Connect(role Role) error {
	ep, probe, err := m.endpoint(role)
	if err != nil {
		return err
	}

	if prev, ok := m.sessions.LoadAndDelete(role); ok {
		m.logger.Warn("replacing existing session", "role", role.String())
		_ = prev.Close()
	}

	sessOpts := []gpib.SessionOption{
		gpib.WithProbeCommand(probe),
		gpib.WithStatusCommands(CmdStatusRead, CmdStatusClear),
		gpib.WithSRQWaitTimeout(m.cfg.srqWaitTimeout()),
		gpib.WithLogger(m.logger.With("role", role.String())),
	}
	if m.dialer != nil {
		sessOpts = append(sessOpts, gpib.WithDialer(m.dialer))
	}

	scfg, err := gpib.NewSessionConfig(ep.Port, ep.Address, sessOpts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", role, err)
	}

	sess, err := gpib.NewSession(scfg)
	if err != nil {
		return fmt.Errorf("connect %s: %w", role, err)
	}

	if err := sess.Open(); err != nil {
		return fmt.Errorf("connect %s: %w", role, err)
	}

	m.sessions.Store(role, sess)

	return nil
}

// Disconnect closes and releases the role's session. It is a no-op when the
// role has no session.
func (m *SessionManager) Disconnect(role Role) error {
	sess, ok := m.sessions.LoadAndDelete(role)
	if !ok {
		return nil
	}

	return sess.Close()
}

// Close tears down both channels.
func (m *SessionManager) Close() error {
	var firstErr error
	for _, role := range []Role{RoleMeter, RoleSource} {
		if err := m.Disconnect(role); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Session returns the live session for the role, or nil.
func (m *SessionManager) Session(role Role) *gpib.Session {
	sess, ok := m.sessions.Load(role)
	if !ok {
		return nil
	}

	return sess
}

// Connected reports whether the role has a live, probe-accepted session.
func (m *SessionManager) Connected(role Role) bool {
	sess := m.Session(role)

	return sess != nil && sess.IsConnected()
}

// SetAddress changes the role's bus address. Allowed only while the role is
// disconnected; the two roles' addresses must stay distinct.
func (m *SessionManager) SetAddress(role Role, addr int) error {
	if addr < 1 || addr > 30 {
		return gpib.ErrAddrRange
	}
	if m.Connected(role) {
		return ErrStillConnected
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch role {
	case RoleMeter:
		if addr == m.cfg.Source.Address {
			return ErrSameAddress
		}
		m.cfg.Meter.Address = addr
	case RoleSource:
		if addr == m.cfg.Meter.Address {
			return ErrSameAddress
		}
		m.cfg.Source.Address = addr
	default:
		return ErrUnknownRole
	}

	return nil
}

// endpoint resolves the role's endpoint configuration and probe command.
func (m *SessionManager) endpoint(role Role) (EndpointConfig, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch role {
	case RoleMeter:
		return m.cfg.Meter, CmdMeterProbe, nil
	case RoleSource:
		return m.cfg.Source, CmdSourceProbe, nil
	default:
		return EndpointConfig{}, "", ErrUnknownRole
	}
}
