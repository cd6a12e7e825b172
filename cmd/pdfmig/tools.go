package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/pdfmig/convert"
	"github.com/hazyhaar/pdfmig/ledger"
	"github.com/hazyhaar/pdfmig/migrate"
)

var downloadDir string

var downloadCmd = &cobra.Command{
	Use:   "download LIST",
	Short: "Download the objects named in a retry list for inspection",
	Args:  cobra.ExactArgs(1),
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

		names, err := ledger.ReadList(args[0])
		if err != nil {
			return err
		}
		n, err := driver.Download(cmd.Context(), names, downloadDir)
		if err != nil {
			return err
		}
		fmt.Printf("downloaded %d of %d files to %s\n", n, len(names), downloadDir)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [FOLDER]",
	Short: "Count objects per top-level folder under the source prefix, or list one folder",
	Args:  cobra.MaximumNArgs(1),
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

		if len(args) == 1 {
			return listFolder(cmd, driver, cfg, args[0])
		}
		return countFolders(cmd, driver, cfg)
	},
}

// countFolders tallies objects per top-level folder under the source prefix.
func countFolders(cmd *cobra.Command, driver *migrate.Driver, cfg *migrate.Config) error {
	objects, err := driver.List(cmd.Context(), cfg.SourcePrefix)
	if err != nil {
		return err
	}

	counts := map[string]int{}
	total := 0
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Name, cfg.SourcePrefix)
		folder := "(root)"
		if i := strings.Index(rel, "/"); i >= 0 {
			folder = rel[:i]
		}
		counts[folder]++
		total++
	}

	folders := make([]string, 0, len(counts))
	for f := range counts {
		folders = append(folders, f)
	}
	sort.Strings(folders)

	fmt.Printf("%d objects under %s\n", total, cfg.SourcePrefix)
	for _, f := range folders {
		fmt.Printf("  %-40s %d\n", f, counts[f])
	}
	return nil
}

// listFolder prints the objects of one folder with size and convertibility.
func listFolder(cmd *cobra.Command, driver *migrate.Driver, cfg *migrate.Config, folder string) error {
	prefix := cfg.SourcePrefix + strings.TrimSuffix(folder, "/") + "/"
	objects, err := driver.List(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		fmt.Printf("no objects under %s\n", prefix)
		return nil
	}
	for _, obj := range objects {
		mark := "yes"
		if !convert.Supported(strings.ToLower(filepath.Ext(obj.Name))) {
			mark = "no (placeholder)"
		}
		fmt.Printf("%10d  %-16s %s\n", obj.Size, "convertible: "+mark, obj.Name)
	}
	return nil
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "downloads", "Local directory for the downloads")
}
