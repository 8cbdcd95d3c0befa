package config

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/lnquery/internal/queryir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeTenantIONAPI   = "E201" // Missing ionapi path
	ErrCodeTenantServices = "E202" // No services declared
	ErrCodeServiceAPI     = "E203" // Missing or unknown api type
	ErrCodeInvalidField   = "E204" // Field has the wrong CUE kind
)

// LoadError is a configuration error with its CUE position when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads every tenant declared in the CUE package in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func Load(dir string, mode LoadMode) (*Config, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	return Compile(value, dir, mode)
}

// Compile extracts tenants from an already built CUE value. Relative paths
// are resolved against dir.
func Compile(value cue.Value, dir string, mode LoadMode) (*Config, []error) {
	cfg := &Config{Dir: dir}
	var errs []error

	tenants := value.LookupPath(cue.ParsePath("tenant"))
	if !tenants.Exists() {
		return cfg, []error{&LoadError{Code: ErrCodeGeneric, Message: "no tenant declarations found", Pos: value.Pos()}}
	}
	iter, err := tenants.Fields()
	if err != nil {
		return cfg, []error{positioned(ErrCodeInvalidField, err, tenants.Pos())}
	}
	for iter.Next() {
		t, err := compileTenant(iter.Selector().Unquoted(), iter.Value(), dir, mode)
		if len(err) > 0 {
			errs = append(errs, err...)
			if mode == LoadModeFailFast {
				return cfg, errs
			}
			continue
		}
		cfg.Tenants = append(cfg.Tenants, *t)
	}
	return cfg, errs
}

func compileTenant(name string, v cue.Value, dir string, mode LoadMode) (*Tenant, []error) {
	t := &Tenant{Name: name}
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	var err error
	if t.IONAPIFile, err = optionalString(v, "ionapi"); err != nil && fail(err) {
		return nil, errs
	}
	if t.IONAPIFile == "" {
		if fail(&LoadError{Code: ErrCodeTenantIONAPI, Message: fmt.Sprintf("tenant %s: ionapi is required", name), Pos: v.Pos()}) {
			return nil, errs
		}
	}
	t.IONAPIFile = resolvePath(dir, t.IONAPIFile)

	for _, f := range []struct {
		path string
		dst  *string
	}{{"base_url", &t.BaseURL}, {"company", &t.Company}, {"identity", &t.Identity}} {
		if *f.dst, err = optionalString(v, f.path); err != nil && fail(err) {
			return nil, errs
		}
	}

	if rl := v.LookupPath(cue.ParsePath("rate_limit")); rl.Exists() {
		if t.RateLimit, err = rl.Float64(); err != nil && fail(positioned(ErrCodeInvalidField, err, rl.Pos())) {
			return nil, errs
		}
	}

	services := v.LookupPath(cue.ParsePath("service"))
	if !services.Exists() {
		if fail(&LoadError{Code: ErrCodeTenantServices, Message: fmt.Sprintf("tenant %s: at least one service is required", name), Pos: v.Pos()}) {
			return nil, errs
		}
	} else {
		iter, err := services.Fields()
		if err != nil {
			if fail(positioned(ErrCodeInvalidField, err, services.Pos())) {
				return nil, errs
			}
		} else {
			for iter.Next() {
				s, err := compileService(iter.Selector().Unquoted(), iter.Value())
				if err != nil {
					if fail(err) {
						return nil, errs
					}
					continue
				}
				t.Services = append(t.Services, *s)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return t, nil
}

func compileService(name string, v cue.Value) (*Service, error) {
	s := &Service{Name: name}

	api, err := optionalString(v, "api")
	if err != nil {
		return nil, err
	}
	s.API = queryir.APIType(api)
	if !s.API.Valid() {
		return nil, &LoadError{
			Code:    ErrCodeServiceAPI,
			Message: fmt.Sprintf("service %s: api must be \"soap\" or \"rest\", got %q", name, api),
			Pos:     v.Pos(),
		}
	}

	for _, f := range []struct {
		path string
		dst  *string
	}{{"path", &s.Path}, {"entity", &s.Entity}, {"full_url", &s.FullURL}, {"company", &s.Company}, {"description", &s.Description}} {
		if *f.dst, err = optionalString(v, f.path); err != nil {
			return nil, err
		}
	}

	if ex := v.LookupPath(cue.ParsePath("expand")); ex.Exists() {
		if err := ex.Decode(&s.Expand); err != nil {
			return nil, positioned(ErrCodeInvalidField, err, ex.Pos())
		}
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", positioned(ErrCodeInvalidField, fmt.Errorf("%s: %w", path, err), f.Pos())
	}
	return s, nil
}

// positioned converts err into a LoadError, preferring the position carried
// by a CUE error over fallback.
func positioned(code string, err error, fallback token.Pos) *LoadError {
	pos := fallback
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		if ps := cueerrors.Positions(errs[0]); len(ps) > 0 {
			pos = ps[0]
		}
	}
	return &LoadError{Code: code, Message: err.Error(), Pos: pos}
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
