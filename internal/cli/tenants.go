package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lnquery/internal/config"
	"github.com/roach88/lnquery/internal/queryir"
)

// ErrCodeConfig is reported when tenant declarations fail to load.
const ErrCodeConfig = "E_CONFIG"

// NewTenantsCommand creates the tenants command group.
func NewTenantsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Manage the tenant catalog",
	}
	cmd.AddCommand(newTenantsImportCommand(rootOpts))
	cmd.AddCommand(newTenantsListCommand(rootOpts))
	return cmd
}

func newTenantsImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [config-dir]",
		Short: "Load CUE tenant declarations into the catalog",
		Long: `Load CUE tenant declarations into the catalog.

Every error in the directory is reported, with its file position when
known. Nothing is imported unless the whole directory is valid. Importing
a tenant again replaces its services.

The directory defaults to --config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.ConfigDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runTenantsImport(rootOpts, dir, cmd)
		},
	}
}

// loadErrorView is the JSON form of a config.LoadError.
type loadErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func runTenantsImport(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, errs := config.Load(dir, config.LoadModeCollectAll)
	if len(errs) > 0 {
		return configFailure(formatter, dir, errs)
	}
	formatter.VerboseLog("Loaded %d tenant(s) from %s", len(cfg.Tenants), dir)

	cat, err := openCatalog(opts)
	if err != nil {
		return err
	}
	defer cat.Close()

	n, err := cat.ImportConfig(cmd.Context(), cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to import tenants", err)
	}

	if formatter.JSON() {
		return formatter.Success(map[string]any{"imported": n, "dir": dir})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d tenant(s) from %s\n", okMark, n, dir)
	return nil
}

func configFailure(f *OutputFormatter, dir string, errs []error) error {
	views := make([]loadErrorView, len(errs))
	for i, err := range errs {
		views[i] = loadErrorView{Code: ErrCodeConfig, Message: err.Error()}
		var le *config.LoadError
		if errors.As(err, &le) {
			views[i].Code = le.Code
			views[i].Message = le.Message
			if le.Pos.IsValid() {
				views[i].File = le.Pos.Filename()
				views[i].Line = le.Pos.Line()
			}
		}
	}

	msg := fmt.Sprintf("%d configuration error(s) in %s", len(errs), dir)
	if f.JSON() {
		if err := f.Error(ErrCodeConfig, msg, views); err != nil {
			return err
		}
	} else {
		for _, err := range errs {
			fmt.Fprintf(f.Writer, "%s %v\n", failMark, err)
		}
	}
	return NewExitError(ExitCommandError, msg)
}

func newTenantsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalogued tenants and their services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTenantsList(rootOpts, cmd)
		},
	}
}

type serviceView struct {
	Name        string          `json:"name"`
	API         queryir.APIType `json:"api"`
	Path        string          `json:"path,omitempty"`
	Entity      string          `json:"entity,omitempty"`
	Company     string          `json:"company,omitempty"`
	Description string          `json:"description,omitempty"`
}

type tenantView struct {
	Name     string        `json:"name"`
	BaseURL  string        `json:"base_url,omitempty"`
	Company  string        `json:"company,omitempty"`
	Services []serviceView `json:"services"`
}

func runTenantsList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cat, err := openCatalog(opts)
	if err != nil {
		return err
	}
	defer cat.Close()

	tenants, err := cat.Tenants(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list tenants", err)
	}

	views := make([]tenantView, len(tenants))
	for i, t := range tenants {
		views[i] = tenantView{Name: t.Name, BaseURL: t.BaseURL, Company: t.Company, Services: make([]serviceView, len(t.Services))}
		for j, s := range t.Services {
			views[i].Services[j] = serviceView{
				Name:        s.Name,
				API:         s.API,
				Path:        s.Path,
				Entity:      s.Entity,
				Company:     s.Company,
				Description: s.Description,
			}
		}
	}
	if formatter.JSON() {
		return formatter.Success(views)
	}

	w := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(w, "No tenants. Run 'lnquery tenants import' first.")
		return nil
	}
	table := newTable(w, []string{"TENANT", "SERVICE", "API", "ENDPOINT", "COMPANY", "DESCRIPTION"})
	for _, t := range views {
		for _, s := range t.Services {
			endpoint := s.Path
			if s.Entity != "" {
				endpoint += "/" + s.Entity
			}
			company := s.Company
			if company == "" {
				company = t.Company
			}
			table.Append([]string{t.Name, s.Name, string(s.API), endpoint, company, s.Description})
		}
	}
	table.Render()
	return nil
}
