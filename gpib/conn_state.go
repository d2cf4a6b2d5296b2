package gpib

// ConnState represents the connection state of a Session.
//
// A session is Connected only after the transport opened and the endpoint
// answered the identity probe; a transport-level open alone is not enough.
type ConnState uint32

const (
	// NotConnectedState indicates that no accepted bus connection exists.
	NotConnectedState ConnState = iota
	// ConnectedState indicates that the bus connection is established and
	// the endpoint answered the identity probe.
	ConnectedState
)

// IsConnected returns if the current state is connected.
func (cs ConnState) IsConnected() bool { return cs == ConnectedState }

// IsNotConnected returns if the current state is not connected.
func (cs ConnState) IsNotConnected() bool { return cs == NotConnectedState }

// String returns string representation of the current state.
func (cs ConnState) String() string {
	switch cs {
	case NotConnectedState:
		return "not-connected"
	case ConnectedState:
		return "connected"
	default:
		return "unknown"
	}
}
