package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgoodhew/go-hp8902/logger"
	"github.com/tgoodhew/go-hp8902/rig"
)

var (
	logLevel   = "info"
	configPath = "hp8902cal.toml"
)

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hp8902cal",
		Short: "hp8902cal drives an HP 8902 / HP 8673 measurement rig over GPIB",
		Long: `hp8902cal drives a two-instrument measurement rig: an HP 8902 measuring
receiver and an HP 8673 signal generator on a shared GPIB bus. It programs
the sensor calibration-factor table, runs the zero/calibrate sequence, and
computes the local-oscillator offset plan for a target frequency.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	globalFlags.StringVarP(&configPath, "config", "c", configPath, "rig config file path")

	cmd.AddCommand(
		NewCalibrateCommand(),
		NewPlanCommand(),
		NewTuneCommand(),
		NewTableCommand(),
	)

	return cmd
}

func setupLogger() error {
	switch logLevel {
	case "debug":
		logger.SetLevel(logger.DebugLevel)
	case "info":
		logger.SetLevel(logger.InfoLevel)
	case "warn":
		logger.SetLevel(logger.WarnLevel)
	case "error":
		logger.SetLevel(logger.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", logLevel)
	}

	return nil
}

// loadConfig reads the rig config file, falling back to the defaults when
// no file exists at the configured path.
func loadConfig() (*rig.Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		logger.Warn("config file not found, using defaults", "path", configPath)
		return rig.DefaultConfig(), nil
	}

	return rig.LoadConfig(configPath)
}

// connectRig connects the given roles, tearing down on partial failure.
func connectRig(mgr *rig.SessionManager, roles ...rig.Role) error {
	for _, role := range roles {
		if err := mgr.Connect(role); err != nil {
			_ = mgr.Close()
			return err
		}
	}

	return nil
}
