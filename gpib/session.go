package gpib

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tgoodhew/go-hp8902/logger"
)

// Session is a synchronous command channel to one instrument endpoint.
//
// It owns the Bus transport, the connection state, and the service-request
// Signal for its endpoint. Write failures are local: Send reports a boolean
// outcome and Query returns an empty string on a failed or timed-out read,
// so callers decide at workflow checkpoints whether a failed step is fatal.
//
// A session is used by exactly one logical owner at a time; the only
// cross-context activity is the SRQ poll task, which releases the Signal.
type Session struct {
	cfg    *SessionConfig
	logger logger.Logger
	srq    *Signal

	mu     sync.Mutex // guards bus, cancel
	bus    Bus
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state atomic.Uint32
}

// NewSession creates a disconnected session for the configured endpoint.
func NewSession(cfg *SessionConfig) (*Session, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	return &Session{
		cfg:    cfg,
		logger: cfg.logger.With("addr", cfg.addr),
		srq:    NewSignal(),
	}, nil
}

// Address returns the endpoint's GPIB address.
func (s *Session) Address() int { return s.cfg.addr }

// State returns the current connection state.
func (s *Session) State() ConnState { return ConnState(s.state.Load()) }

// IsConnected returns if the session passed the identity probe and holds a
// live transport.
func (s *Session) IsConnected() bool { return s.State().IsConnected() }

// Open establishes the bus connection, clears pending device state, and
// sends the identity probe. The probe's success is the sole acceptance
// criterion for "connected": a channel that opens at the transport level but
// fails to answer is closed again and reported with ErrProbeFailed. No
// partially-initialized handle survives a failed Open.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bus != nil {
		return ErrAlreadyConnected
	}

	bus, err := s.cfg.dialer(s.cfg.port, s.cfg.addr, s.cfg.timeout)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnFailed, err)
	}

	if err := bus.Clear(); err != nil {
		_ = bus.Close()
		return fmt.Errorf("%w: device clear: %s", ErrConnFailed, err)
	}

	idn, err := bus.Query(s.cfg.probeCmd)
	if err != nil || strings.TrimSpace(idn) == "" {
		_ = bus.Close()
		if err != nil {
			return fmt.Errorf("%w: %s", ErrProbeFailed, err)
		}
		return ErrProbeFailed
	}

	s.bus = bus
	s.state.Store(uint32(ConnectedState))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.srqPollTask(ctx, bus)

	s.logger.Info("session connected", "identity", strings.TrimSpace(idn))

	return nil
}

// Send writes one command line to the endpoint and returns whether the write
// succeeded. Failures are logged and reported to the caller as false; they
// never propagate as errors across orchestration boundaries.
func (s *Session) Send(cmd string) bool {
	bus := s.busHandle()
	if bus == nil {
		s.logger.Error("send on disconnected session", "cmd", cmd)
		return false
	}

	if err := bus.Command(cmd); err != nil {
		s.logger.Error("command write failed", "cmd", cmd, "error", err)
		return false
	}

	s.logger.Debug("command sent", "cmd", cmd)

	return true
}

// Query sends a command line and blocks for one response line. It returns an
// empty string and emits a warning if the endpoint returns nothing or the
// read times out.
func (s *Session) Query(cmd string) string {
	bus := s.busHandle()
	if bus == nil {
		s.logger.Warn("query on disconnected session", "cmd", cmd)
		return ""
	}

	resp, err := bus.Query(cmd)
	if err != nil {
		s.logger.Warn("query failed", "cmd", cmd, "error", err)
		return ""
	}

	resp = strings.TrimSpace(resp)
	if resp == "" {
		s.logger.Warn("empty query response", "cmd", cmd)
	}

	return resp
}

// Clear sends a selected device clear to the endpoint.
func (s *Session) Clear() error {
	bus := s.busHandle()
	if bus == nil {
		return ErrNotConnected
	}

	return bus.Clear()
}

// DrainSRQ discards a service request released before the current arm/wait
// cycle. It returns true when a stale release was discarded.
func (s *Session) DrainSRQ() bool {
	drained := s.srq.Drain()
	if drained {
		s.logger.Warn("discarded stale service request")
	}

	return drained
}

// WaitSRQ blocks until the endpoint's service request has been acknowledged
// and released, the configured bound elapses (ErrWaitTimeout), or ctx is
// canceled.
func (s *Session) WaitSRQ(ctx context.Context) error {
	return s.srq.Wait(ctx, s.cfg.srqWaitTimeout)
}

// Close releases the connection. It is idempotent and safe to call on an
// already-closed session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.bus == nil {
		s.mu.Unlock()
		return nil
	}

	bus := s.bus
	s.bus = nil
	s.state.Store(uint32(NotConnectedState))
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("session closed")

	return bus.Close()
}

// busHandle returns the live transport, or nil when disconnected.
func (s *Session) busHandle() Bus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.bus
}

// srqPollTask samples the SRQ line until the session closes. The hardware
// raises SRQ out-of-band; the poll task is the asynchronous context that
// acknowledges it and releases the Signal.
func (s *Session) srqPollTask(ctx context.Context, bus Bus) {
	defer s.wg.Done()
	defer s.logger.Debug("srq poll task terminated")

	ticker := time.NewTicker(s.cfg.srqPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			asserted, err := bus.ServiceRequest()
			if err != nil {
				s.logger.Debug("srq poll failed", "error", err)
				continue
			}
			if asserted {
				s.acknowledgeSRQ(bus)
			}
		}
	}
}

// acknowledgeSRQ reads and clears the instrument's status register, clears
// queued bus events, issues the status-clear command, and only then releases
// the Signal, so a second service request cannot be misattributed to a stale
// one.
func (s *Session) acknowledgeSRQ(bus Bus) {
	status, err := bus.Query(s.cfg.statusCmd)
	if err != nil {
		s.logger.Warn("status register read failed", "error", err)
	}

	if err := bus.Clear(); err != nil {
		s.logger.Warn("device clear failed during srq acknowledge", "error", err)
	}

	if err := bus.Command(s.cfg.statusClearCmd); err != nil {
		s.logger.Warn("status clear command failed", "error", err)
	}

	accepted := s.srq.Release()
	s.logger.Debug("service request acknowledged",
		"status", strings.TrimSpace(status), "accepted", accepted)
}
