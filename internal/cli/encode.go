package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lnquery/internal/engine"
	"github.com/roach88/lnquery/internal/soap"
)

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <tenant> <service> <sql>...",
		Short: "Show the request a statement translates to, without sending it",
		Long: `Translate a SQL statement into the request the service would receive.

Nothing is sent and no credentials are read. The dry run is still recorded
in the run history.

Example:
  lnquery encode ACME_PRD SalesOrders "SELECT * FROM Orders WHERE Amount > 100 ORDER BY OrderDate DESC"`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], args[1], strings.Join(args[2:], " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", string(soap.ActionList), "SOAP action (List|Show|Create|Change|Delete)")

	return cmd
}

func runEncode(opts *QueryOptions, tenant, service, sql string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := queryContext(cmd, opts.RootOptions)
	defer cancel()

	enc, err := a.engine.Encode(ctx, engine.Request{
		Tenant:  tenant,
		Service: service,
		SQL:     sql,
		Action:  soap.Action(opts.String(cmd, "action")),
	})
	if err != nil {
		return queryFailure(formatter, err)
	}

	if formatter.JSON() {
		return formatter.Success(enc)
	}
	w := cmd.OutOrStdout()
	printDiagnostics(formatter, enc.Diagnostics)
	fmt.Fprintf(w, "%s %s\n", enc.Method, enc.URL)
	if enc.Payload != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, indent(enc.Payload, "  "))
	}
	fmt.Fprintf(w, "\nfingerprint: %s\n", enc.Fingerprint)
	return nil
}
