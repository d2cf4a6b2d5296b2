package calfactor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	cmds    []string
	failCmd string
}

func (s *fakeSender) Send(cmd string) bool {
	s.cmds = append(s.cmds, cmd)

	return cmd != s.failCmd
}

func TestDefaultTable(t *testing.T) {
	require := require.New(t)

	tbl := Default()
	require.Len(tbl.Points, 18)
	require.Equal(Point{0.05, 0.00}, tbl.Points[0])
	require.Equal(Point{18.00, -0.40}, tbl.Points[17])

	// Frequencies ascend across the built-in table.
	for i := 1; i < len(tbl.Points); i++ {
		require.Greater(tbl.Points[i].FrequencyGHz, tbl.Points[i-1].FrequencyGHz)
	}
}

func TestTableRoundTrip(t *testing.T) {
	require := require.New(t)

	// Deliberately unsorted: persistence must keep record order, not
	// reorder by frequency.
	tbl := &Table{Points: []Point{
		{3.00, -0.13},
		{0.05, 0.00},
		{18.00, -0.40},
		{0.05, -0.04},
	}}

	path := filepath.Join(t.TempDir(), "calfactors.toml")
	require.NoError(tbl.Save(path))

	loaded, err := Load(path)
	require.NoError(err)
	require.Equal(tbl.Points, loaded.Points)
}

func TestLoadCreatesDefault(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "calfactors.toml")
	tbl, err := Load(path)
	require.NoError(err)
	require.Equal(Default().Points, tbl.Points)

	// The default table was written to disk, not just returned.
	_, err = os.Stat(path)
	require.NoError(err)

	reloaded, err := Load(path)
	require.NoError(err)
	require.Equal(tbl.Points, reloaded.Points)
}

func TestTableProgram(t *testing.T) {
	require := require.New(t)

	t.Run("replays entries in order", func(t *testing.T) {
		tbl := &Table{Points: []Point{
			{0.05, 0.00},
			{3.00, -0.13},
			{12.40, -0.31},
		}}

		meter := &fakeSender{}
		require.NoError(tbl.Program(meter))
		require.Equal([]string{
			"37.1SP",
			"0.05GZ0.00CF",
			"3.00GZ-0.13CF",
			"12.40GZ-0.31CF",
			"37.0SP",
		}, meter.cmds)
	})

	t.Run("duplicate frequencies pass through", func(t *testing.T) {
		tbl := &Table{Points: []Point{
			{5.00, -0.18},
			{5.00, -0.20},
		}}

		meter := &fakeSender{}
		require.NoError(tbl.Program(meter))
		// Last write wins on the instrument side; the replay keeps both.
		require.Equal([]string{
			"37.1SP",
			"5.00GZ-0.18CF",
			"5.00GZ-0.20CF",
			"37.0SP",
		}, meter.cmds)
	})

	t.Run("stops on failed entry", func(t *testing.T) {
		tbl := &Table{Points: []Point{{0.05, 0.00}, {3.00, -0.13}}}

		meter := &fakeSender{failCmd: "0.05GZ0.00CF"}
		require.Error(tbl.Program(meter))
		require.Equal([]string{"37.1SP", "0.05GZ0.00CF"}, meter.cmds)
	})

	t.Run("empty table rejected", func(t *testing.T) {
		require.Error((&Table{}).Program(&fakeSender{}))
	})
}
