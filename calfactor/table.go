// Package calfactor manages the power-sensor calibration-factor table: an
// ordered list of (frequency in GHz, factor in dB) records persisted on
// disk and replayed into the measuring receiver's internal table.
package calfactor

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Meter commands for editing the internal calibration-factor table. Entries
// are fixed-point with 2 decimal digits; the instrument keeps the last
// write for a duplicated frequency.
const (
	cmdTableEnter = "37.1SP"
	cmdTableExit  = "37.0SP"
	fmtTableEntry = "%.2fGZ%.2fCF"
)

// Point is one calibration-factor record. Ordering within the table is
// significant: it is replayed into the instrument in sequence.
type Point struct {
	FrequencyGHz float64 `toml:"frequency_ghz"`
	FactorDB     float64 `toml:"factor_db"`
}

// Table is an ordered calibration-factor table.
type Table struct {
	Points []Point `toml:"point"`
}

// Default returns the built-in 18-point table from 0.05 GHz to 18 GHz,
// matching the HP 8481A sensor data sheet spacing.
func Default() *Table {
	return &Table{Points: []Point{
		{0.05, 0.00},
		{0.10, -0.04},
		{0.30, -0.04},
		{0.50, -0.04},
		{1.00, -0.09},
		{2.00, -0.09},
		{3.00, -0.13},
		{4.00, -0.13},
		{5.00, -0.18},
		{6.00, -0.18},
		{7.00, -0.22},
		{8.00, -0.22},
		{9.00, -0.26},
		{10.00, -0.26},
		{11.00, -0.31},
		{12.40, -0.31},
		{15.00, -0.35},
		{18.00, -0.40},
	}}
}

// Load reads the table at path. When the file does not exist, the built-in
// default table is written there first and then returned.
func Load(path string) (*Table, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		tbl := Default()
		if err := tbl.Save(path); err != nil {
			return nil, err
		}

		return tbl, nil
	}

	tbl := &Table{}
	if _, err := toml.DecodeFile(path, tbl); err != nil {
		return nil, fmt.Errorf("load cal factor table %s: %w", path, err)
	}

	return tbl, nil
}

// Save writes the table to path, preserving record order.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save cal factor table %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(t); err != nil {
		return fmt.Errorf("save cal factor table %s: %w", path, err)
	}

	return nil
}

// Sender is the subset of a command channel used to replay the table.
type Sender interface {
	Send(cmd string) bool
}

// Program replays the table into the meter's internal calibration-factor
// table in record order. The first failed send stops the replay.
func (t *Table) Program(meter Sender) error {
	if len(t.Points) == 0 {
		return errors.New("cal factor table is empty")
	}

	if !meter.Send(cmdTableEnter) {
		return fmt.Errorf("enter cal factor table: command %q failed", cmdTableEnter)
	}

	for _, p := range t.Points {
		cmd := fmt.Sprintf(fmtTableEntry, p.FrequencyGHz, p.FactorDB)
		if !meter.Send(cmd) {
			return fmt.Errorf("cal factor entry %q failed", cmd)
		}
	}

	if !meter.Send(cmdTableExit) {
		return fmt.Errorf("exit cal factor table: command %q failed", cmdTableExit)
	}

	return nil
}
