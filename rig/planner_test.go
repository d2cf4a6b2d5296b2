package rig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanFrequencyLowBand(t *testing.T) {
	require := require.New(t)

	// At or below the baseband limit the offset path stays off and the
	// source parks at the fixed reference.
	for _, f := range []float64{0.00015, 0.05, 0.5, 1.0, 1.3} {
		plan, err := PlanFrequency(f)
		require.NoError(err, "f=%g", f)
		require.False(plan.OffsetEnabled, "f=%g", f)
		require.Equal(0.0, plan.IncrementGHz)
		require.Equal(0.0, plan.LOOffsetMHz)
		require.Equal(3.0, plan.SourceGHz)
		require.Equal(-70.0, plan.SourceLevelDBM)
		require.Equal([]string{"27.0SP"}, plan.MeterCommands)
		require.Equal([]string{"FR3.00000GZ", "AP-70.0DM"}, plan.SourceCommands)
	}
}

func TestPlanFrequencyOffsetSelection(t *testing.T) {
	require := require.New(t)

	t.Run("2.5 GHz picks the first increment", func(t *testing.T) {
		plan, err := PlanFrequency(2.5)
		require.NoError(err)
		require.True(plan.OffsetEnabled)
		require.Equal(0.12053, plan.IncrementGHz)
		require.InDelta(2620.53, plan.LOOffsetMHz, 1e-9)
		require.InDelta(2.62053, plan.SourceGHz, 1e-9)
		require.Equal(8.0, plan.SourceLevelDBM)
		require.Equal([]string{"27.1SP", "27.2SP2620.53MZ"}, plan.MeterCommands)
		require.Equal([]string{"FR2.62053GZ", "AP8.0DM"}, plan.SourceCommands)
	})

	t.Run("1.5 GHz skips increments that miss the floor", func(t *testing.T) {
		// 1.5+0.48053 = 1.98053 fails; 1.5+0.60053 = 2.10053 clears.
		plan, err := PlanFrequency(1.5)
		require.NoError(err)
		require.Equal(0.60053, plan.IncrementGHz)
		require.Equal([]string{"27.1SP", "27.2SP2100.53MZ"}, plan.MeterCommands)
		require.Equal([]string{"FR2.10053GZ", "AP8.0DM"}, plan.SourceCommands)
	})

	t.Run("selected increment is the smallest that clears the floor", func(t *testing.T) {
		for _, f := range []float64{1.33, 1.35, 1.4, 1.52, 1.76, 1.88, 2.0, 2.5, 5.0, 10.0, 18.0} {
			plan, err := PlanFrequency(f)
			require.NoError(err, "f=%g", f)
			require.True(plan.OffsetEnabled)
			require.Greater(f+plan.IncrementGHz, 2.0, "f=%g", f)
			for _, candidate := range loIncrements {
				if candidate >= plan.IncrementGHz {
					break
				}
				require.LessOrEqual(f+candidate, 2.0,
					"f=%g: smaller increment %g should not clear the floor", f, candidate)
			}
			require.InDelta((f+plan.IncrementGHz)*1000, plan.LOOffsetMHz, 1e-9)
			require.InDelta(f+plan.IncrementGHz, plan.SourceGHz, 1e-9)
		}
	})
}

func TestPlanFrequencyInvalid(t *testing.T) {
	require := require.New(t)

	t.Run("outside the meter's range", func(t *testing.T) {
		for _, f := range []float64{-1, 0, 0.0001, 18.0001, 40} {
			_, err := PlanFrequency(f)
			require.ErrorIs(err, ErrInvalidFrequency, "f=%g", f)
		}
	})

	t.Run("no increment clears the floor", func(t *testing.T) {
		// Just above the baseband limit even the largest increment falls
		// short: 1.31 + 0.68053 = 1.99053.
		_, err := PlanFrequency(1.31)
		require.ErrorIs(err, ErrInvalidFrequency)
	})
}

func TestPlanApply(t *testing.T) {
	require := require.New(t)

	t.Run("replays meter then source", func(t *testing.T) {
		plan, err := PlanFrequency(2.5)
		require.NoError(err)

		meter := &fakeSender{}
		source := &fakeSender{}
		require.NoError(plan.Apply(meter, source))
		require.Equal(plan.MeterCommands, meter.cmds)
		require.Equal(plan.SourceCommands, source.cmds)
	})

	t.Run("stops on the first failed send", func(t *testing.T) {
		plan, err := PlanFrequency(2.5)
		require.NoError(err)

		meter := &fakeSender{failCmd: "27.1SP"}
		source := &fakeSender{}
		require.ErrorIs(plan.Apply(meter, source), ErrCommandFailed)
		require.Empty(source.cmds)
	})
}
