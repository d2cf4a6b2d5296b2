package gpib

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBus is a scripted Bus recording every operation in order.
type fakeBus struct {
	mu       sync.Mutex
	ops      []string
	replies  map[string]string
	failCmds map[string]bool
	queryErr error

	srq    atomic.Bool
	closed atomic.Bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		replies:  map[string]string{"*IDN?": "HEWLETT-PACKARD,8902A"},
		failCmds: map[string]bool{},
	}
}

func (b *fakeBus) record(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, op)
}

func (b *fakeBus) operations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.ops...)
}

func (b *fakeBus) Command(cmd string) error {
	b.record("cmd:" + cmd)
	if b.failCmds[cmd] {
		return errors.New("write failed")
	}

	return nil
}

func (b *fakeBus) Query(cmd string) (string, error) {
	b.record("query:" + cmd)
	if b.queryErr != nil {
		return "", b.queryErr
	}

	return b.replies[cmd], nil
}

func (b *fakeBus) ServiceRequest() (bool, error) {
	// Acknowledgement clears the line, so assertion is one-shot.
	return b.srq.CompareAndSwap(true, false), nil
}

func (b *fakeBus) Clear() error {
	b.record("clear")
	return nil
}

func (b *fakeBus) Close() error {
	b.closed.Store(true)
	return nil
}

func newTestSession(t *testing.T, bus *fakeBus, opts ...SessionOption) *Session {
	t.Helper()

	dialer := func(_ string, _ int, _ time.Duration) (Bus, error) {
		return bus, nil
	}

	opts = append([]SessionOption{
		WithDialer(dialer),
		WithSRQPollInterval(10 * time.Millisecond),
		WithSRQWaitTimeout(time.Second),
	}, opts...)

	cfg, err := NewSessionConfig("mock0", 14, opts...)
	require.NoError(t, err)

	sess, err := NewSession(cfg)
	require.NoError(t, err)

	return sess
}

func TestSessionConfigAddrRange(t *testing.T) {
	require := require.New(t)

	for _, addr := range []int{0, -3, 31, 99} {
		_, err := NewSessionConfig("mock0", addr)
		require.ErrorIs(err, ErrAddrRange)
	}

	for _, addr := range []int{1, 14, 30} {
		_, err := NewSessionConfig("mock0", addr)
		require.NoError(err)
	}
}

func TestSessionOpen(t *testing.T) {
	require := require.New(t)

	t.Run("probe accepted", func(t *testing.T) {
		bus := newFakeBus()
		sess := newTestSession(t, bus)

		require.True(sess.State().IsNotConnected())
		require.NoError(sess.Open())
		require.True(sess.IsConnected())

		// Pending device state is cleared before the probe goes out.
		ops := bus.operations()
		require.Equal([]string{"clear", "query:*IDN?"}, ops[:2])

		require.ErrorIs(sess.Open(), ErrAlreadyConnected)
		require.NoError(sess.Close())
	})

	t.Run("probe unanswered", func(t *testing.T) {
		bus := newFakeBus()
		bus.replies["*IDN?"] = ""
		sess := newTestSession(t, bus)

		require.ErrorIs(sess.Open(), ErrProbeFailed)
		// No half-open handle: the transport is released and the session
		// reports not connected.
		require.True(bus.closed.Load())
		require.False(sess.IsConnected())
	})

	t.Run("probe read error", func(t *testing.T) {
		bus := newFakeBus()
		bus.queryErr = errors.New("timeout")
		sess := newTestSession(t, bus)

		require.ErrorIs(sess.Open(), ErrProbeFailed)
		require.True(bus.closed.Load())
	})

	t.Run("dial failure", func(t *testing.T) {
		dialer := func(_ string, _ int, _ time.Duration) (Bus, error) {
			return nil, errors.New("device absent")
		}
		cfg, err := NewSessionConfig("mock0", 14, WithDialer(dialer))
		require.NoError(err)
		sess, err := NewSession(cfg)
		require.NoError(err)

		require.ErrorIs(sess.Open(), ErrConnFailed)
		require.False(sess.IsConnected())
	})
}

func TestSessionSendQuery(t *testing.T) {
	require := require.New(t)

	bus := newFakeBus()
	bus.replies["FR"] = " 2.62053\r\n"
	bus.failCmds["BAD"] = true
	sess := newTestSession(t, bus)
	require.NoError(sess.Open())
	defer sess.Close() //nolint: errcheck

	t.Run("send outcome is boolean", func(t *testing.T) {
		require.True(sess.Send("ZR"))
		require.False(sess.Send("BAD"))
	})

	t.Run("query trims the response line", func(t *testing.T) {
		require.Equal("2.62053", sess.Query("FR"))
	})

	t.Run("query empty response", func(t *testing.T) {
		require.Equal("", sess.Query("NOANSWER"))
	})

	t.Run("send on closed session", func(t *testing.T) {
		require.NoError(sess.Close())
		require.False(sess.Send("ZR"))
		require.Equal("", sess.Query("FR"))
		require.ErrorIs(sess.Clear(), ErrNotConnected)
	})
}

func TestSessionCloseIdempotent(t *testing.T) {
	require := require.New(t)

	bus := newFakeBus()
	sess := newTestSession(t, bus)

	// Close on a never-opened session is safe.
	require.NoError(sess.Close())

	require.NoError(sess.Open())
	require.NoError(sess.Close())
	require.True(bus.closed.Load())
	require.NoError(sess.Close())
}

func TestSessionSRQAcknowledge(t *testing.T) {
	require := require.New(t)

	bus := newFakeBus()
	bus.replies["RS"] = "66"
	sess := newTestSession(t, bus)
	require.NoError(sess.Open())
	defer sess.Close() //nolint: errcheck

	bus.srq.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(sess.WaitSRQ(ctx))

	// The handler reads the status register, clears queued bus events, and
	// clears the status byte before releasing the signal.
	var ackOps []string
	for _, op := range bus.operations() {
		if op == "query:RS" || op == "cmd:CS" || op == "clear" {
			ackOps = append(ackOps, op)
		}
	}
	require.Equal([]string{"clear", "query:RS", "clear", "cmd:CS"}, ackOps)
}

func TestSessionWaitSRQCancel(t *testing.T) {
	require := require.New(t)

	bus := newFakeBus()
	sess := newTestSession(t, bus)
	require.NoError(sess.Open())
	defer sess.Close() //nolint: errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.ErrorIs(sess.WaitSRQ(ctx), context.DeadlineExceeded)
}

func TestSessionProbeCustomCommand(t *testing.T) {
	require := require.New(t)

	bus := newFakeBus()
	bus.replies["T3"] = "-0.23E+00"
	sess := newTestSession(t, bus, WithProbeCommand("T3"))

	require.NoError(sess.Open())
	require.True(strings.Contains(strings.Join(bus.operations(), ","), "query:T3"))
	require.NoError(sess.Close())
}
