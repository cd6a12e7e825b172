package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/pdfmig/ledger"
)

var failuresOut string

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "Mine the run log for failed conversions",
}

var failuresExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Write per-category retry lists from the run log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		counts, err := ledger.New(cfg.SourcePrefix).Extract(cfg.LogPath, failuresOut)
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			fmt.Println("no retryable failures found")
			return nil
		}
		for _, cat := range ledger.Categories() {
			if n := counts[cat]; n > 0 {
				fmt.Printf("%-20s %d -> %s/failed_%s.txt\n", cat, n, failuresOut, cat)
			}
		}
		return nil
	},
}

var failuresPruneCmd = &cobra.Command{
	Use:   "prune LIST",
	Short: "Remove names that have since converted from a retry list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		remaining, removed, err := ledger.New(cfg.SourcePrefix).Prune(args[0], cfg.LogPath)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d converted names, %d remaining\n", removed, remaining)
		return nil
	},
}

func init() {
	failuresCmd.AddCommand(failuresExtractCmd)
	failuresCmd.AddCommand(failuresPruneCmd)
	failuresExtractCmd.Flags().StringVarP(&failuresOut, "output", "o", "failures", "Directory for the retry lists")
}
