package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/pdfmig/convert"
)

var (
	convertOut      string
	convertNoAttach bool
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Convert a single local file to PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		outDir := convertOut
		if outDir == "" {
			outDir = filepath.Dir(src)
		}

		cc := convert.Config{
			NoAttachOriginal: convertNoAttach,
			Logger:           newLogger(),
		}
		if pw := os.Getenv("PDFMIG_DOC_PASSWORD"); pw != "" {
			cc.PasswordFor = func(string) string { return pw }
		}

		out, err := convert.New(cc).Convert(cmd.Context(), src, outDir)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertOut, "output", "o", "", "Output directory (default: alongside the source)")
	convertCmd.Flags().BoolVar(&convertNoAttach, "no-attach-original", false, "Do not embed the original file in the PDF")
}
