package rig

import "errors"

var (
	// ErrConfigNil indicates that a nil Config was provided.
	ErrConfigNil = errors.New("rig config is nil")

	// ErrSameAddress indicates that the meter and source were given the
	// same GPIB address; the two endpoint addresses must differ.
	ErrSameAddress = errors.New("meter and source addresses must differ")

	// ErrUnknownRole indicates that an operation referenced a role other
	// than RoleMeter or RoleSource.
	ErrUnknownRole = errors.New("unknown instrument role")

	// ErrStillConnected indicates that an address change was attempted
	// while the role's session is connected. Addresses may change only
	// while disconnected.
	ErrStillConnected = errors.New("role is still connected")

	// ErrNotReady indicates that a calibration run was requested while a
	// required channel is not connected.
	ErrNotReady = errors.New("both instruments must be connected")

	// ErrAborted indicates that the operator declined a required
	// confirmation or the workflow was aborted mid-run.
	ErrAborted = errors.New("calibration aborted")

	// ErrInvalidFrequency indicates a target frequency outside the meter's
	// usable range, or one for which no local-oscillator increment clears
	// the mixer floor.
	ErrInvalidFrequency = errors.New("invalid target frequency")

	// ErrCommandFailed indicates that a command send failed under the
	// AbortOnSendError policy.
	ErrCommandFailed = errors.New("instrument command failed")
)
