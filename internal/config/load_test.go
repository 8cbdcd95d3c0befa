package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lnquery/internal/queryir"
)

func writeCUE(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

const acmeCUE = `package tenants

tenant: ACME_PRD: {
	ionapi:     "secrets/acme.ionapi"
	company:    "100"
	identity:   "lnquery"
	rate_limit: 5
	service: Customer_v1: api: "soap"
	service: SalesOrders: {
		api:         "rest"
		path:        "tdsls.SalesOrders"
		entity:      "Orders"
		company:     "200"
		expand:      ["Lines", "SoldToBP"]
		description: "Sales order headers"
	}
}

tenant: ACME_TST: {
	ionapi:   "/etc/lnquery/tst.ionapi"
	base_url: "https://ion.test.example.com/ACME_TST"
	service: Item_v2: {api: "soap", full_url: "https://soap.test.example.com/Item"}
}
`

func TestLoad(t *testing.T) {
	dir := writeCUE(t, map[string]string{"tenants.cue": acmeCUE})

	cfg, errs := Load(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.Len(t, cfg.Tenants, 2)

	prd, ok := cfg.Tenant("ACME_PRD")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "secrets/acme.ionapi"), prd.IONAPIFile)
	assert.Equal(t, "100", prd.Company)
	assert.Equal(t, "lnquery", prd.Identity)
	assert.Equal(t, 5.0, prd.RateLimit)
	require.Len(t, prd.Services, 2)
	assert.Equal(t, "Customer_v1", prd.Services[0].Name)

	orders, ok := prd.Service("SalesOrders")
	require.True(t, ok)
	assert.Equal(t, queryir.APIREST, orders.API)
	assert.Equal(t, []string{"Lines", "SoldToBP"}, orders.Expand)
	assert.Equal(t, "Sales order headers", orders.Description)

	tst, ok := cfg.Tenant("ACME_TST")
	require.True(t, ok)
	assert.Equal(t, "/etc/lnquery/tst.ionapi", tst.IONAPIFile)
	assert.Equal(t, "https://ion.test.example.com/ACME_TST", tst.BaseURL)
}

func TestLookup(t *testing.T) {
	dir := writeCUE(t, map[string]string{"tenants.cue": acmeCUE})
	cfg, errs := Load(dir, LoadModeFailFast)
	require.Empty(t, errs)

	_, d, err := cfg.Lookup("ACME_PRD", "SalesOrders")
	require.NoError(t, err)
	assert.Equal(t, queryir.ServiceDescriptor{
		Tenant:      "ACME_PRD",
		APIType:     queryir.APIREST,
		ServiceName: "tdsls.SalesOrders",
		EntityName:  "Orders",
		Company:     "200",
		Expand:      []string{"Lines", "SoldToBP"},
	}, d)

	_, d, err = cfg.Lookup("ACME_PRD", "Customer_v1")
	require.NoError(t, err)
	assert.Equal(t, "Customer_v1", d.ServiceName)
	assert.Equal(t, "100", d.Company)
	assert.NoError(t, d.Validate())

	_, _, err = cfg.Lookup("NOPE", "Customer_v1")
	assert.Error(t, err)
	_, _, err = cfg.Lookup("ACME_PRD", "Nope")
	assert.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	bad := `package tenants

tenant: NO_IONAPI: service: X: api: "soap"
tenant: NO_SERVICES: ionapi: "a.ionapi"
tenant: BAD_API: {
	ionapi: "a.ionapi"
	service: X: api: "graphql"
}
`
	dir := writeCUE(t, map[string]string{"bad.cue": bad})

	_, errs := Load(dir, LoadModeCollectAll)
	require.Len(t, errs, 3)

	codes := make([]string, 0, len(errs))
	for _, err := range errs {
		var le *LoadError
		require.ErrorAs(t, err, &le)
		codes = append(codes, le.Code)
	}
	assert.Equal(t, []string{ErrCodeTenantIONAPI, ErrCodeTenantServices, ErrCodeServiceAPI}, codes)

	_, errs = Load(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoad_WrongKind(t *testing.T) {
	dir := writeCUE(t, map[string]string{"kind.cue": `package tenants

tenant: T: {
	ionapi: 42
	service: X: api: "rest"
}
`})

	_, errs := Load(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeInvalidField, le.Code)
	assert.True(t, le.Pos.IsValid())
	assert.Contains(t, le.Error(), "kind.cue")
}

func TestLoad_DirectoryErrors(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "missing"), LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNotFound)

	_, errs = Load(t.TempDir(), LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNoFiles)

	dir := writeCUE(t, map[string]string{"x.cue": "package tenants\n\nfoo: 1\n"})
	_, errs = Load(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no tenant declarations")

	broken := writeCUE(t, map[string]string{"x.cue": "package tenants\n\ntenant: {\n"})
	_, errs = Load(broken, LoadModeFailFast)
	require.Len(t, errs, 1)
}
