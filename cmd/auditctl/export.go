package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"fleetaudit/internal/repository"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trips as CSV",
	Long:  "Writes the selected trips as CSV to stdout or --out. With --archive, uploads the audit report and CSV to the configured S3 bucket instead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		req, err := runRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		services, cleanup, err := initServices(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if archive, _ := cmd.Flags().GetBool("archive"); archive {
			result, err := services.Report.Archive(ctx, req)
			if err != nil {
				return eris.Wrap(err, "archive report")
			}
			fmt.Fprintf(os.Stdout, "Archived run %s to s3://%s/%s and s3://%s/%s\n",
				result.RunID, result.Bucket, result.ReportKey, result.Bucket, result.CSVKey)
			return nil
		}

		var w io.Writer = os.Stdout
		if out, _ := cmd.Flags().GetString("out"); out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return eris.Wrapf(err, "create %s", out)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		filter := repository.TripFilter{From: req.From, To: req.To, DriverIDs: req.DriverIDs}
		if err := services.Report.ExportCSV(ctx, w, filter); err != nil {
			return eris.Wrap(err, "export trips")
		}
		return nil
	},
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().String("out", "", "write CSV to this file instead of stdout")
	exportCmd.Flags().Bool("archive", false, "upload the audit report and CSV to S3")
	rootCmd.AddCommand(exportCmd)
}
