package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lnquery/internal/engine"
	"github.com/roach88/lnquery/internal/queryir"
	"github.com/roach88/lnquery/internal/soap"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Action string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <tenant> <service> <sql>...",
		Short: "Run a SQL statement against a service",
		Long: `Run a SQL statement against a configured LN service.

The remaining arguments are joined into one statement, so quoting the SQL
is optional. Unsupported clauses are skipped and reported as warnings.

Exit codes:
  0 - Query succeeded
  1 - Query failed (remote fault, transport error, encoding error)
  2 - Command error (catalog unavailable, invalid flags)

Examples:
  lnquery query ACME_PRD Customer_v1 "SELECT * FROM Customer_v1 WHERE country = 'Mexico' LIMIT 5"
  lnquery query ACME_PRD SalesOrders SELECT OrderID FROM Orders --format json`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1], strings.Join(args[2:], " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", string(soap.ActionList), "SOAP action (List|Show|Create|Change|Delete)")

	return cmd
}

func runQuery(opts *QueryOptions, tenant, service, sql string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := queryContext(cmd, opts.RootOptions)
	defer cancel()

	res, err := a.engine.Execute(ctx, engine.Request{
		Tenant:  tenant,
		Service: service,
		SQL:     sql,
		Action:  soap.Action(opts.String(cmd, "action")),
	})
	if err != nil {
		return queryFailure(formatter, err)
	}

	if formatter.JSON() {
		return formatter.Success(res)
	}
	w := cmd.OutOrStdout()
	printDiagnostics(formatter, res.Diagnostics)
	renderRecords(w, res.Records)
	formatter.VerboseLog("run %s fingerprint %s in %s", res.RunID, res.Fingerprint, res.Duration)
	return nil
}

// printDiagnostics lists the clauses the parser skipped.
func printDiagnostics(f *OutputFormatter, diags []queryir.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(f.GetErrWriter(), "%s skipped %q: %s\n", warnMark, d.Clause, d.Reason)
	}
}
