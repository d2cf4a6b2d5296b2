package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tgoodhew/go-hp8902/calfactor"
	"github.com/tgoodhew/go-hp8902/rig"
)

func NewCalibrateCommand() *cobra.Command {
	skipTable := false

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Zero and calibrate the power sensor",
		Long: `Connect both instruments, program the calibration-factor table into the
meter, then run the calibration sequence: zero the sensor, wait for the
zero-complete interrupt, calibrate against the internal source, wait again,
and store the result in non-volatile memory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			mgr, err := rig.NewSessionManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close() //nolint: errcheck

			if err := connectRig(mgr, rig.RoleMeter, rig.RoleSource); err != nil {
				return err
			}

			if !skipTable {
				tbl, err := calfactor.Load(cfg.CalTablePath)
				if err != nil {
					return err
				}
				if err := tbl.Program(mgr.Session(rig.RoleMeter)); err != nil {
					return err
				}
				fmt.Printf("Programmed %d calibration factors.\n", len(tbl.Points))
			}

			policy := rig.ContinueOnSendError
			if cfg.AbortOnSendError {
				policy = rig.AbortOnSendError
			}

			cal := rig.NewCalibrator(mgr,
				rig.WithConfirm(confirmSensor),
				rig.WithSendPolicy(policy),
				rig.WithStateHandler(reportState),
			)

			if err := cal.Run(cmd.Context()); err != nil {
				return fmt.Errorf("calibration failed: %w", err)
			}

			color.New(color.FgGreen).Println("Calibration complete.")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipTable, "skip-table", false, "do not program the calibration-factor table first")

	return cmd
}

// confirmSensor asks the operator to confirm the sensor is on the
// calibration output before the sequence starts.
func confirmSensor() bool {
	color.New(color.FgYellow).Println("Connect the power sensor to the meter's CALIBRATION RF output.")
	fmt.Print("Proceed? [y/N]: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes"
}

func reportState(_, next rig.State) {
	fmt.Printf("  -> %s\n", next)
}
