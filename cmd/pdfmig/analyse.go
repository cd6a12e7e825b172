package main

import (
	"os"

	"github.com/spf13/cobra"
)

var analyseCmd = &cobra.Command{
	Use:   "analyse",
	Short: "Census the source prefix by extension and convertibility",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		driver, cleanup, err := newDriver(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		a, err := driver.Analyse(cmd.Context())
		if err != nil {
			return err
		}
		return a.WriteReport(os.Stdout)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Compare source and destination prefixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		driver, cleanup, err := newDriver(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		r, err := driver.Progress(cmd.Context())
		if err != nil {
			return err
		}
		return r.WriteReport(os.Stdout)
	},
}
