package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tgoodhew/go-hp8902/rig"
)

func NewPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <frequency-ghz>",
		Short: "Show the LO offset plan and instrument commands for a frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid frequency: %w", err)
			}

			plan, err := rig.PlanFrequency(f)
			if err != nil {
				return err
			}

			printPlan(plan)

			return nil
		},
	}
}

func NewTuneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tune <frequency-ghz>",
		Short: "Program both instruments for a measurement frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid frequency: %w", err)
			}

			plan, err := rig.PlanFrequency(f)
			if err != nil {
				return err
			}

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

			if err := plan.Apply(mgr.Session(rig.RoleMeter), mgr.Session(rig.RoleSource)); err != nil {
				return err
			}

			color.New(color.FgGreen).Printf("Rig tuned for %g GHz.\n", plan.TargetGHz)

			return nil
		},
	}
}

func printPlan(plan *rig.FrequencyPlan) {
	fmt.Printf("Target:     %g GHz\n", plan.TargetGHz)
	if plan.OffsetEnabled {
		fmt.Printf("LO offset:  enabled, increment %g GHz, LO %.2f MHz\n",
			plan.IncrementGHz, plan.LOOffsetMHz)
	} else {
		fmt.Println("LO offset:  disabled")
	}
	fmt.Printf("Source:     %g GHz at %g dBm\n", plan.SourceGHz, plan.SourceLevelDBM)
	fmt.Printf("Meter cmds: %s\n", strings.Join(plan.MeterCommands, " "))
	fmt.Printf("Source cmds: %s\n", strings.Join(plan.SourceCommands, " "))
}
