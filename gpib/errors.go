package gpib

import "errors"

var (
	// ErrAddrRange indicates that an endpoint address outside the valid
	// GPIB range was provided.
	ErrAddrRange = errors.New("endpoint address out of range [1, 30]")

	// ErrConfigNil indicates that a nil SessionConfig was provided.
	ErrConfigNil = errors.New("session config is nil")

	// ErrAlreadyConnected indicates that Open was called on a session that
	// is already connected.
	ErrAlreadyConnected = errors.New("session already connected")

	// ErrNotConnected indicates that an operation requiring a live
	// connection was attempted on a disconnected session.
	ErrNotConnected = errors.New("session not connected")

	// ErrConnFailed indicates that the bus transport could not be opened or
	// initialized.
	ErrConnFailed = errors.New("connection failed")

	// ErrProbeFailed indicates that the endpoint opened at the transport
	// level but did not answer the identity probe. The session is reported
	// as not connected.
	ErrProbeFailed = errors.New("endpoint did not answer identity probe")

	// ErrWaitTimeout indicates that a bounded wait for a service request
	// elapsed before the instrument raised its completion interrupt.
	ErrWaitTimeout = errors.New("service request wait timeout")
)
