package cli

import (
	"github.com/spf13/cobra"
)

// NewDescribeCommand creates the describe-table command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe-table <tenant> <service>",
		Short: "Infer the table schema of a service",
		Long: `Infer the table schema of a service from a live unfiltered query.

Field types are guesses drawn from the returned data: SOAP values are
classified from their text, REST values from the JSON types of the first
records. A field that was empty in every record is reported as a nullable
string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runDescribe(opts *RootOptions, tenant, service string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := queryContext(cmd, opts)
	defer cancel()

	ts, err := a.engine.Describe(ctx, tenant, service)
	if err != nil {
		return queryFailure(formatter, err)
	}
	if formatter.JSON() {
		return formatter.Success(ts)
	}
	renderSchema(cmd.OutOrStdout(), ts)
	return nil
}
