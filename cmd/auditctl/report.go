package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the markdown audit report",
	Long:  "Evaluates the selected trips without persisting anything and prints the audit report.",
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

		text, _, err := services.Report.AuditReport(ctx, req)
		if err != nil {
			return eris.Wrap(err, "audit report")
		}
		fmt.Fprint(os.Stdout, text)
		return nil
	},
}

func init() {
	addFilterFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}
