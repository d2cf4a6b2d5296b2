package gpib

import (
	"fmt"
	"io"
	"time"

	"github.com/gotmc/prologix"
	"github.com/soypat/cereal"
)

// Bus is the transport under a Session: one addressable instrument endpoint
// reached through a GPIB controller.
//
// Implementations must be safe for use by the session's control flow and
// its service-request poll task; the Prologix implementation serializes all
// calls on the underlying controller.
type Bus interface {
	// Command writes one command line to the endpoint.
	Command(cmd string) error
	// Query writes one command line and reads one response line.
	Query(cmd string) (string, error)
	// ServiceRequest reports whether the endpoint asserts the SRQ line.
	ServiceRequest() (bool, error)
	// Clear sends a selected device clear, dropping queued bus events and
	// pending device state.
	Clear() error
	// Close releases the transport.
	Close() error
}

// Dialer opens a Bus for the instrument at addr behind the given serial
// port. Tests substitute scripted implementations through WithDialer.
type Dialer func(port string, addr int, timeout time.Duration) (Bus, error)

// prologixBus adapts a Prologix GPIB-USB controller on a serial VCP to the
// Bus interface.
type prologixBus struct {
	port io.ReadWriteCloser
	ctrl *prologix.Controller
}

// Dial opens the serial port and creates a Prologix controller addressing
// the instrument at addr. The serial read timeout carries the channel's
// read/write timeout.
func Dial(port string, addr int, timeout time.Duration) (Bus, error) {
	sp, err := cereal.Tarm{}.OpenPort(port, cereal.Mode{
		BaudRate:    115200,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}

	ctrl, err := prologix.NewController(sp, addr, false)
	if err != nil {
		_ = sp.Close()
		return nil, fmt.Errorf("create gpib controller for address %d: %w", addr, err)
	}

	return &prologixBus{port: sp, ctrl: ctrl}, nil
}

func (b *prologixBus) Command(cmd string) error {
	return b.ctrl.Command(cmd)
}

func (b *prologixBus) Query(cmd string) (string, error) {
	return b.ctrl.Query(cmd)
}

func (b *prologixBus) ServiceRequest() (bool, error) {
	return b.ctrl.ServiceRequest()
}

func (b *prologixBus) Clear() error {
	return b.ctrl.ClearDevice()
}

func (b *prologixBus) Close() error {
	// Hand the instrument back to its front panel before dropping the port.
	_ = b.ctrl.FrontPanel(true)
	return b.port.Close()
}
