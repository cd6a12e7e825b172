package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/pdfmig/convert"
	"github.com/hazyhaar/pdfmig/ledger"
	"github.com/hazyhaar/pdfmig/migrate"
)

var (
	migrateMaxFiles    int
	migrateFilterExt   string
	migrateTestAll     int
	migrateLocalOutput string
	migrateForce       bool
	migrateFileList    string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert the source prefix to PDF under the destination prefix",
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

		opt := migrate.RunOptions{
			MaxFiles:    migrateMaxFiles,
			FilterExt:   migrateFilterExt,
			CategoryCap: migrateTestAll,
			LocalOutput: migrateLocalOutput,
			Force:       migrateForce,
		}
		if migrateFileList != "" {
			names, err := ledger.ReadList(migrateFileList)
			if err != nil {
				return err
			}
			opt.FileList = names
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		sum, err := driver.Run(ctx, opt)
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

func printSummary(sum *migrate.Summary) {
	fmt.Printf("Processed %d, skipped %d, fallbacks %d, errors %d\n",
		sum.Processed, sum.Skipped, sum.Fallbacks, sum.Errors)
	cats := make([]convert.Category, 0, len(sum.ByCategory))
	for cat := range sum.ByCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, cat := range cats {
		fmt.Printf("  %-12s %d\n", cat, sum.ByCategory[cat])
	}
}

func init() {
	migrateCmd.Flags().IntVar(&migrateMaxFiles, "max-files", 0, "Stop after N files (0 = all)")
	migrateCmd.Flags().StringVar(&migrateFilterExt, "filter-extension", "", "Only process files with this extension (e.g. .msg)")
	migrateCmd.Flags().IntVar(&migrateTestAll, "test-all", 0, "Process at most N files per category")
	migrateCmd.Flags().StringVar(&migrateLocalOutput, "local-output", "", "Write PDFs to this directory instead of uploading")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "Reprocess and overwrite existing destination objects")
	migrateCmd.Flags().StringVar(&migrateFileList, "file-list", "", "Process only the object names listed in this file")
}
