// Package gpib implements the command channel used to talk to one
// addressable instrument on the GPIB bus.
//
// A Session wraps a Bus transport (by default a Prologix-style USB
// controller on a serial port) and provides synchronous Send/Query of
// ASCII command lines, a connection probe that gates the connected state,
// and a single-slot Signal that bridges the instrument's asynchronous
// service request into blocking control flow.
package gpib
