package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"fleetaudit/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Audit trips and persist their review status",
	Long:  "Evaluates every trip in the date range against the configured rules and writes changed audit statuses back to the database.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		req, err := runRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		req.DryRun, _ = cmd.Flags().GetBool("dry-run")

		services, cleanup, err := initServices(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		run, err := services.Audit.RunAudit(ctx, req)
		if err != nil {
			return eris.Wrap(err, "audit run")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		formatRun(os.Stdout, run)
		return nil
	},
}

// addFilterFlags registers the trip selection flags shared by every command.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "first trip date to include (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last trip date to include (YYYY-MM-DD)")
	cmd.Flags().StringSlice("driver", nil, "limit to these driver ids (repeatable)")
}

func runRequestFromFlags(cmd *cobra.Command) (service.RunRequest, error) {
	var req service.RunRequest

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	req.DriverIDs, _ = cmd.Flags().GetStringSlice("driver")

	var err error
	if req.From, err = parseDate(from); err != nil {
		return req, eris.Wrap(err, "--from")
	}
	if req.To, err = parseDate(to); err != nil {
		return req, eris.Wrap(err, "--to")
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func formatRun(w io.Writer, run *service.RunResult) {
	mode := "applied"
	if run.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Run %s (%s)\n", run.RunID, mode)
	fmt.Fprintf(w, "Trips audited: %d  needs review: %d  updated: %d  rejected: %d\n\n",
		run.Summary.TotalTrips, run.NeedsReview, run.Updated, len(run.Rejected))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIP\tDRIVER\tSTATUS\tVERDICT\tANOMALIES")
	for _, r := range run.Results {
		if len(r.Anomalies) == 0 {
			continue
		}
		rules := ""
		for i, a := range r.Anomalies {
			if i > 0 {
				rules += ","
			}
			rules += string(a.Rule)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.TripID, r.DriverID, r.Status, r.Verdict, rules)
	}
	_ = tw.Flush()

	if len(run.Rejected) > 0 {
		fmt.Fprintln(w, "\nRejected records:")
		for _, r := range run.Rejected {
			fmt.Fprintf(w, "  %s: %s\n", r.TripID, r.Reason)
		}
	}
}

func init() {
	addFilterFlags(runCmd)
	runCmd.Flags().Bool("dry-run", false, "evaluate without writing statuses")
	runCmd.Flags().Bool("json", false, "print the full run result as JSON")
	rootCmd.AddCommand(runCmd)
}
