package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgoodhew/go-hp8902/calfactor"
)

func NewTableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage the calibration-factor table",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the table file with the built-in defaults if it does not exist",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tbl, err := calfactor.Load(cfg.CalTablePath)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d calibration factors.\n", cfg.CalTablePath, len(tbl.Points))

			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the calibration-factor table",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tbl, err := calfactor.Load(cfg.CalTablePath)
			if err != nil {
				return err
			}

			fmt.Println("  freq (GHz)  factor (dB)")
			for _, p := range tbl.Points {
				fmt.Printf("  %10.2f  %11.2f\n", p.FrequencyGHz, p.FactorDB)
			}

			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)

	return cmd
}
