package rig

import "fmt"

// Frequency plan constants, in GHz unless noted.
const (
	// MinFrequencyGHz is the lowest target frequency the meter accepts.
	MinFrequencyGHz = 0.00015
	// MaxFrequencyGHz is the highest target frequency the meter accepts.
	MaxFrequencyGHz = 18.0

	// basebandLimitGHz is the meter's direct-input limit; above it the
	// local-oscillator offset path must translate the input down.
	basebandLimitGHz = 1.3
	// mixerFloorGHz is the floor the translated frequency must clear.
	mixerFloorGHz = 2.0

	// fixedRefGHz and fixedRefLevelDBM are the source settings used below
	// the baseband limit, where the offset path stays disabled.
	fixedRefGHz      = 3.0
	fixedRefLevelDBM = -70.0

	// offsetLevelDBM is the source output level on the offset path.
	offsetLevelDBM = 8.0
)

// loIncrements is the ordered list of candidate local-oscillator increments.
// The first increment whose sum with the target clears the mixer floor wins.
var loIncrements = [...]float64{0.12053, 0.24053, 0.48053, 0.60053, 0.68053}

// FrequencyPlan holds the command parameters for both endpoints at one
// target measurement frequency. It is a pure value; the planner performs no
// I/O.
type FrequencyPlan struct {
	// TargetGHz is the requested measurement frequency.
	TargetGHz float64
	// OffsetEnabled reports whether the meter's LO offset path is used.
	OffsetEnabled bool
	// IncrementGHz is the selected LO increment; zero when the offset path
	// is disabled.
	IncrementGHz float64
	// LOOffsetMHz is the LO frequency programmed into the meter; zero when
	// the offset path is disabled.
	LOOffsetMHz float64
	// SourceGHz is the frequency commanded to the source.
	SourceGHz float64
	// SourceLevelDBM is the output level commanded to the source.
	SourceLevelDBM float64

	// MeterCommands and SourceCommands are the exact command lines for each
	// endpoint, in issue order.
	MeterCommands  []string
	SourceCommands []string
}

// PlanFrequency computes the command parameters for measuring at f GHz.
//
// At or below the baseband limit the offset path is disabled and the source
// is parked at the fixed reference. Above it, the first increment whose sum
// with f clears the mixer floor selects the LO offset; if no increment
// clears it (reachable just above the baseband limit), the frequency is
// rejected with ErrInvalidFrequency instead of defaulting the increment.
func PlanFrequency(f float64) (*FrequencyPlan, error) {
	if f < MinFrequencyGHz || f > MaxFrequencyGHz {
		return nil, fmt.Errorf("%w: %g GHz outside [%g, %g]",
			ErrInvalidFrequency, f, MinFrequencyGHz, MaxFrequencyGHz)
	}

	if f <= basebandLimitGHz {
		return &FrequencyPlan{
			TargetGHz:      f,
			SourceGHz:      fixedRefGHz,
			SourceLevelDBM: fixedRefLevelDBM,
			MeterCommands:  []string{CmdOffsetOff},
			SourceCommands: []string{
				fmt.Sprintf(fmtSourceFreq, fixedRefGHz),
				fmt.Sprintf(fmtSourceLevel, fixedRefLevelDBM),
			},
		}, nil
	}

	inc := 0.0
	for _, candidate := range loIncrements {
		if f+candidate > mixerFloorGHz {
			inc = candidate
			break
		}
	}
	if inc == 0 {
		return nil, fmt.Errorf("%w: no LO increment lifts %g GHz above %g GHz",
			ErrInvalidFrequency, f, mixerFloorGHz)
	}

	lo := f + inc

	return &FrequencyPlan{
		TargetGHz:      f,
		OffsetEnabled:  true,
		IncrementGHz:   inc,
		LOOffsetMHz:    lo * 1000,
		SourceGHz:      lo,
		SourceLevelDBM: offsetLevelDBM,
		MeterCommands: []string{
			CmdOffsetOn,
			fmt.Sprintf(fmtOffsetLO, lo*1000),
		},
		SourceCommands: []string{
			fmt.Sprintf(fmtSourceFreq, lo),
			fmt.Sprintf(fmtSourceLevel, offsetLevelDBM),
		},
	}, nil
}

// CommandSender is the subset of a session used when replaying planned
// commands into an instrument.
type CommandSender interface {
	Send(cmd string) bool
}

// Apply issues the plan's command lines to the meter and source in order.
// The first failed send stops the replay and is reported as ErrCommandFailed.
func (p *FrequencyPlan) Apply(meter, source CommandSender) error {
	for _, cmd := range p.MeterCommands {
		if !meter.Send(cmd) {
			return fmt.Errorf("%w: meter %q", ErrCommandFailed, cmd)
		}
	}
	for _, cmd := range p.SourceCommands {
		if !source.Send(cmd) {
			return fmt.Errorf("%w: source %q", ErrCommandFailed, cmd)
		}
	}

	return nil
}
