package rig

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tgoodhew/go-hp8902/gpib"
)

// fakeBus is a scripted transport for one endpoint. Arming the meter's
// service request mask asserts SRQ, imitating an instrument that completes
// its operation instantly.
type fakeBus struct {
	mu       sync.Mutex
	cmds     []string
	replies  map[string]string
	failCmds map[string]bool

	srqOnArm bool
	srq      atomic.Bool
	closed   atomic.Bool
}

func (b *fakeBus) record(cmd string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmds = append(b.cmds, cmd)
}

func (b *fakeBus) commands() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.cmds...)
}

func (b *fakeBus) Command(cmd string) error {
	b.record(cmd)
	if b.failCmds[cmd] {
		return errors.New("write failed")
	}
	if b.srqOnArm && cmd == CmdSRQMaskArm {
		b.srq.Store(true)
	}

	return nil
}

func (b *fakeBus) Query(cmd string) (string, error) {
	return b.replies[cmd], nil
}

func (b *fakeBus) ServiceRequest() (bool, error) {
	return b.srq.CompareAndSwap(true, false), nil
}

func (b *fakeBus) Clear() error { return nil }

func (b *fakeBus) Close() error {
	b.closed.Store(true)
	return nil
}

// fakeRig tracks the fake buses handed out per serial port, so tests can
// inspect each endpoint's command log.
type fakeRig struct {
	mu    sync.Mutex
	buses map[string][]*fakeBus

	srqOnArm bool
	dialErr  error
}

func newFakeRig() *fakeRig {
	return &fakeRig{buses: map[string][]*fakeBus{}}
}

func (r *fakeRig) dialer() gpib.Dialer {
	return func(port string, _ int, _ time.Duration) (gpib.Bus, error) {
		if r.dialErr != nil {
			return nil, r.dialErr
		}

		bus := &fakeBus{
			replies: map[string]string{
				CmdMeterProbe:  "-0.23E+00",
				CmdSourceProbe: "03000000000",
				CmdStatusRead:  "66",
			},
			failCmds: map[string]bool{},
			srqOnArm: r.srqOnArm,
		}

		r.mu.Lock()
		r.buses[port] = append(r.buses[port], bus)
		r.mu.Unlock()

		return bus, nil
	}
}

// bus returns the most recent fake bus dialed for the port.
func (r *fakeRig) bus(port string) *fakeBus {
	r.mu.Lock()
	defer r.mu.Unlock()

	buses := r.buses[port]
	if len(buses) == 0 {
		return nil
	}

	return buses[len(buses)-1]
}

func testConfig() *Config {
	return &Config{
		Meter:          EndpointConfig{Port: "mock0", Address: 14},
		Source:         EndpointConfig{Port: "mock1", Address: 19},
		SRQWaitSeconds: 5,
		CalTablePath:   "calfactors.toml",
	}
}

// fakeSender records replayed command lines.
type fakeSender struct {
	cmds    []string
	failCmd string
}

func (s *fakeSender) Send(cmd string) bool {
	s.cmds = append(s.cmds, cmd)

	return cmd != s.failCmd
}
