package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every flag: --db is
// LNQUERY_DB, --limit-policy is LNQUERY_LIMIT_POLICY.
const EnvPrefix = "LNQUERY"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Database    string
	ConfigDir   string
	LimitPolicy string
	Timeout     time.Duration

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the lnquery CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lnquery",
		Short: "SQL over Infor LN web services",
		Long: `Query Infor LN SOAP (BDE) and REST (OData) services with SQL.

Statements are translated into the service's native request format, sent
through the ION API gateway, and the response is returned as flat records
with an inferred table schema.

Every flag can also be set through the environment with the LNQUERY_
prefix. A .env file in the working directory is read first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.bind(cmd); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			configureLogging(cmd.ErrOrStderr(), opts)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "lnquery.db", "path to the SQLite catalog")
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", "tenants", "directory of CUE tenant declarations")
	cmd.PersistentFlags().StringVar(&opts.LimitPolicy, "limit-policy", "client", "where LIMIT is enforced (client|server)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 60*time.Second, "per-query timeout (0 disables)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewTenantsCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// bind resolves every flag through viper so that an explicit flag wins over
// the environment, which wins over the flag default.
func (o *RootOptions) bind(cmd *cobra.Command) error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	o.v = v

	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")
	o.Database = v.GetString("db")
	o.ConfigDir = v.GetString("config")
	o.LimitPolicy = v.GetString("limit-policy")
	o.Timeout = v.GetDuration("timeout")

	if !slices.Contains(ValidFormats, o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	return nil
}

// String returns the resolved value of a command-local flag, honouring the
// environment the same way the global flags do.
func (o *RootOptions) String(cmd *cobra.Command, name string) string {
	if o.v == nil {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return o.v.GetString(name)
}

// loadDotEnv reads path into the environment if it exists. Variables that
// are already set are left untouched.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// configureLogging installs the default logger. Logs always go to w so
// they never mix with command output.
func configureLogging(w io.Writer, opts *RootOptions) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}
