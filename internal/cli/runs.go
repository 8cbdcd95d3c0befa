package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/lnquery/internal/catalog"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Tenant      string
	Service     string
	Fingerprint string
	Limit       int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the query run history",
		Long: `Show recorded query runs, newest first.

Runs with the same fingerprint ran the same parsed query, however the SQL
was formatted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "only runs against this tenant")
	cmd.Flags().StringVar(&opts.Service, "service", "", "only runs against this service")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only runs of this query fingerprint")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Limit < 1 {
		return NewExitError(ExitCommandError, "--limit must be positive")
	}

	cat, err := openCatalog(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cat.Close()

	runs, err := cat.Runs(cmd.Context(), catalog.RunFilter{
		Tenant:      opts.Tenant,
		Service:     opts.Service,
		Fingerprint: opts.Fingerprint,
		Limit:       opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run history", err)
	}
	if formatter.JSON() {
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	table := newTable(w, []string{"STARTED", "TENANT", "SERVICE", "OUTCOME", "RECORDS", "DURATION", "SQL"})
	for _, r := range runs {
		records := ""
		if r.Outcome == catalog.OutcomeOK {
			records = strconv.Itoa(r.RecordCount) + "/" + strconv.Itoa(r.TotalAvailable)
		}
		table.Append([]string{
			r.StartedAt.Local().Format(time.DateTime),
			r.Tenant,
			r.Service,
			outcomeLabel(r.Outcome),
			records,
			r.Duration.Round(time.Millisecond).String(),
			r.SQL,
		})
	}
	table.Render()
	return nil
}

func outcomeLabel(o catalog.Outcome) string {
	switch o {
	case catalog.OutcomeOK:
		return okMark + " ok"
	case catalog.OutcomeFault, catalog.OutcomeFailed:
		return failMark + " " + string(o)
	}
	return string(o)
}
