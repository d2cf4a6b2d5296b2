package rig

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tgoodhew/go-hp8902/gpib"
	"github.com/tgoodhew/go-hp8902/logger"
)

// State represents the calibration workflow state.
type State uint32

const (
	// StateIdle indicates no calibration run is in progress.
	StateIdle State = iota
	// StateAwaitingConfirmation indicates the workflow is waiting for the
	// operator to confirm the sensor is physically connected.
	StateAwaitingConfirmation
	// StateZeroing indicates the zero command has been issued.
	StateZeroing
	// StateWaitingZeroComplete indicates the workflow is blocked on the
	// meter's zero-complete service request.
	StateWaitingZeroComplete
	// StateCalibrating indicates the internal calibration source is on.
	StateCalibrating
	// StateWaitingCalComplete indicates the workflow is blocked on the
	// meter's calibration-complete service request.
	StateWaitingCalComplete
	// StateSaving indicates the calibration is being stored.
	StateSaving
	// StateComplete is the successful terminal state.
	StateComplete
	// StateAborted is the failure terminal state.
	StateAborted
)

// String returns string representation of the workflow state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StateZeroing:
		return "zeroing"
	case StateWaitingZeroComplete:
		return "waiting-zero-complete"
	case StateCalibrating:
		return "calibrating"
	case StateWaitingCalComplete:
		return "waiting-cal-complete"
	case StateSaving:
		return "saving"
	case StateComplete:
		return "complete"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ConfirmFunc obtains the operator's go-ahead that the power sensor is
// connected to the calibration output. Returning false aborts the run.
type ConfirmFunc func() bool

// SendPolicy decides how a failed command send is treated during a
// calibration run.
type SendPolicy uint8

const (
	// ContinueOnSendError logs the failure and proceeds. This is the
	// permissive reference behavior and the default.
	ContinueOnSendError SendPolicy = iota
	// AbortOnSendError treats any failed send as fatal to the run.
	AbortOnSendError
)

// StateChangeHandler is invoked on every workflow state transition.
//
// Note: handlers are invoked in a blocking mode. Take care with
// long-running implementations.
type StateChangeHandler func(prev State, next State)

// Calibrator sequences the sensor calibration workflow over the two
// connected command channels: zero, wait for the zero-complete interrupt,
// calibrate against the internal source, wait again, then save. The source
// channel stays idle during the run but must be connected.
type Calibrator struct {
	mgr      *SessionManager
	confirm  ConfirmFunc
	policy   SendPolicy
	logger   logger.Logger
	handlers []StateChangeHandler

	state atomic.Uint32
}

// CalibratorOption customizes a Calibrator.
type CalibratorOption func(*Calibrator)

// WithConfirm sets the operator confirmation collaborator. The default
// accepts unconditionally; interactive callers should always supply one.
func WithConfirm(f ConfirmFunc) CalibratorOption {
	return func(c *Calibrator) { c.confirm = f }
}

// WithSendPolicy sets the failed-send policy for the run.
func WithSendPolicy(p SendPolicy) CalibratorOption {
	return func(c *Calibrator) { c.policy = p }
}

// WithStateHandler registers a handler invoked on every state transition.
func WithStateHandler(h StateChangeHandler) CalibratorOption {
	return func(c *Calibrator) { c.handlers = append(c.handlers, h) }
}

// WithCalibratorLogger sets the calibrator's logger. The default is the
// global logger instance.
func WithCalibratorLogger(l logger.Logger) CalibratorOption {
	return func(c *Calibrator) { c.logger = l }
}

// NewCalibrator creates a calibrator over the manager's sessions.
func NewCalibrator(mgr *SessionManager, opts ...CalibratorOption) *Calibrator {
	c := &Calibrator{
		mgr:     mgr,
		confirm: func() bool { return true },
		logger:  logger.GetLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current workflow state.
func (c *Calibrator) State() State { return State(c.state.Load()) }

// Run executes one calibration sequence. Both channels must be connected or
// the run fails immediately with ErrNotReady without leaving Idle. Waits on
// the meter's completion interrupts are bounded by the session's SRQ wait
// timeout and by ctx; either aborts the run.
func (c *Calibrator) Run(ctx context.Context) error {
	c.state.Store(uint32(StateIdle))

	if !c.mgr.Connected(RoleMeter) || !c.mgr.Connected(RoleSource) {
		return ErrNotReady
	}
	meter := c.mgr.Session(RoleMeter)

	c.transition(StateAwaitingConfirmation)
	if !c.confirm() {
		c.transition(StateAborted)
		return fmt.Errorf("%w: operator declined sensor confirmation", ErrAborted)
	}

	c.transition(StateZeroing)
	if err := c.send(meter, CmdModeRFPowerFreeRun); err != nil {
		return c.abort(err)
	}
	if err := c.send(meter, CmdZero); err != nil {
		return c.abort(err)
	}
	if err := c.arm(meter); err != nil {
		return c.abort(err)
	}

	c.transition(StateWaitingZeroComplete)
	if err := c.waitComplete(ctx, meter); err != nil {
		return c.abort(err)
	}

	c.transition(StateCalibrating)
	if err := c.send(meter, CmdModeRFPowerFreeRun); err != nil {
		return c.abort(err)
	}
	if err := c.send(meter, CmdCalSourceOn); err != nil {
		return c.abort(err)
	}
	if err := c.arm(meter); err != nil {
		return c.abort(err)
	}

	c.transition(StateWaitingCalComplete)
	if err := c.waitComplete(ctx, meter); err != nil {
		return c.abort(err)
	}

	c.transition(StateSaving)
	if err := c.send(meter, CmdSaveCal); err != nil {
		return c.abort(err)
	}
	if err := c.send(meter, CmdCalSourceOff); err != nil {
		return c.abort(err)
	}

	c.transition(StateComplete)
	c.logger.Info("calibration complete")

	return nil
}

// arm discards any stale completion signal, then arms the service request
// mask. The drain comes first: an interrupt acknowledged after an aborted
// run leaves a pending release that would otherwise satisfy this cycle's
// wait.
func (c *Calibrator) arm(meter *gpib.Session) error {
	if meter.DrainSRQ() {
		c.logger.Warn("stale completion signal discarded before arming")
	}

	return c.send(meter, CmdSRQMaskArm)
}

// waitComplete blocks on the meter's completion interrupt, then clears the
// service request mask. On timeout or cancellation the mask is cleared
// best-effort; an interrupt already asserted can still be acknowledged after
// the abort, which is why arm drains the signal first.
func (c *Calibrator) waitComplete(ctx context.Context, meter *gpib.Session) error {
	if err := meter.WaitSRQ(ctx); err != nil {
		meter.Send(CmdSRQMaskClear)
		return err
	}

	return c.send(meter, CmdSRQMaskClear)
}

// send issues one command and applies the failed-send policy.
func (c *Calibrator) send(meter *gpib.Session, cmd string) error {
	if meter.Send(cmd) {
		return nil
	}

	if c.policy == AbortOnSendError {
		return fmt.Errorf("%w: %q", ErrCommandFailed, cmd)
	}

	c.logger.Warn("command failed, continuing per policy", "cmd", cmd)

	return nil
}

// abort moves the workflow to the Aborted terminal state.
func (c *Calibrator) abort(err error) error {
	c.transition(StateAborted)

	return err
}

// transition swaps the workflow state and invokes the registered handlers.
func (c *Calibrator) transition(next State) {
	prev := State(c.state.Swap(uint32(next)))
	c.logger.Debug("workflow transition", "prev", prev.String(), "next", next.String())

	for _, h := range c.handlers {
		if h != nil {
			h(prev, next)
		}
	}
}
