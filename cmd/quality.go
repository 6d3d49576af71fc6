package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"glampdata/internal/batch"
	"glampdata/internal/csvtable"
	"glampdata/internal/report"

	"github.com/spf13/cobra"
)

var (
	qualityOut    string
	qualityXLSX   string
	qualityUpload bool
)

var qualityCmd = &cobra.Command{
	Use:   "quality CSV",
	Short: "Audit a property export for missing and malformed data",
	Long: `Reports duplicate names, missing critical fields, invalid coordinates, URLs
and phone numbers, Google coverage and Url/Google Website agreement, then
prints prioritized recommendations. The text report goes to stdout and to
DATA_QUALITY_REPORT.txt next to the CSV unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if qualityUpload && qualityXLSX == "" {
			return errors.New("--upload needs --xlsx")
		}
		out := cmd.OutOrStdout()
		t, err := csvtable.Load(args[0])
		if err != nil {
			return err
		}
		q := report.AnalyzeQuality(t)

		dest := qualityOut
		if dest == "" {
			dest = filepath.Join(filepath.Dir(args[0]), "DATA_QUALITY_REPORT.txt")
		}
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		q.WriteText(io.MultiWriter(out, f))
		if err := f.Close(); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintf(out, "\nReport saved to: %s\n", dest)

		if qualityXLSX == "" {
			return nil
		}
		if err := report.WriteXLSX(qualityXLSX, q.Sheets()...); err != nil {
			return err
		}
		fmt.Fprintf(out, "Workbook saved to: %s\n", qualityXLSX)
		if qualityUpload {
			return uploadArtifacts(cmd.Context(), out, batch.NewRun("quality"), dest, qualityXLSX)
		}
		return nil
	},
}

func init() {
	qualityCmd.Flags().StringVarP(&qualityOut, "out", "o", "", "text report path")
	qualityCmd.Flags().StringVar(&qualityXLSX, "xlsx", "", "also write the findings to this workbook")
	qualityCmd.Flags().BoolVar(&qualityUpload, "upload", false, "upload the report and workbook to the S3 bucket")
	rootCmd.AddCommand(qualityCmd)
}
