// Package rig coordinates the two-instrument measurement rig: an HP 8902
// measuring receiver (meter) and an HP 8673 synthesized signal generator
// (source) on the same GPIB bus.
//
// It owns the session lifecycle for both roles, computes the
// local-oscillator offset plan for a target frequency, and sequences the
// sensor calibration workflow, blocking on each instrument's service
// request between steps.
package rig
