package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeResponse(t *testing.T, out string) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

const customersXML = `<?xml version="1.0" encoding="UTF-8"?>
<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/">
  <S:Body>
    <ns2:ListResponse xmlns:ns2="http://www.infor.com/businessinterface/Customer_v1">
      <DataArea>
        <Customer_v1><id>C001</id><name>Comercial Azteca</name><country>Mexico</country></Customer_v1>
        <Customer_v1><id>C002</id><name>Distribuidora del Norte</name><country>Mexico</country></Customer_v1>
      </DataArea>
    </ns2:ListResponse>
  </S:Body>
</S:Envelope>`

const faultXML = `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body><S:Fault>` +
	`<faultcode>S:Server</faultcode><faultstring>Item service unavailable</faultstring></S:Fault></S:Body></S:Envelope>`

// lnEnv is a catalog imported from CUE declarations whose tenant points at
// a fake token endpoint and a fake LN gateway.
type lnEnv struct {
	configDir string
	db        string
	grants    atomic.Int32
	requests  atomic.Int32
}

func newLNEnv(t *testing.T) *lnEnv {
	t.Helper()
	env := &lnEnv{}

	sso := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.grants.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"svc-token","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(sso.Close)

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/xml")
		switch r.URL.Path {
		case "/LN/c4ws/services/Customer_v1":
			fmt.Fprint(w, customersXML)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, faultXML)
		}
	}))
	t.Cleanup(gateway.Close)

	dir := t.TempDir()
	env.configDir = filepath.Join(dir, "tenants")
	env.db = filepath.Join(dir, "lnquery.db")
	require.NoError(t, os.MkdirAll(filepath.Join(env.configDir, "secrets"), 0o755))

	ionapi := fmt.Sprintf(`{"ti":"ACME_PRD","ci":"ACME_PRD~client","cs":"client-secret","iu":"https://mingle-ionapi.example.com",`+
		`"pu":%q,"ot":"token.oauth2","saak":"ACME_PRD#svc","sask":"svc-secret"}`, sso.URL)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "secrets", "acme.ionapi"), []byte(ionapi), 0o600))

	cue := fmt.Sprintf(`package tenants

tenant: ACME_PRD: {
	ionapi:   "secrets/acme.ionapi"
	base_url: %q
	company:  "100"
	service: Customer_v1: {api: "soap", description: "Customers"}
	service: Item_v2: api: "soap"
	service: SalesOrders: {api: "rest", path: "tdsls.SalesOrders", entity: "Orders"}
}
`, gateway.URL)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "tenants.cue"), []byte(cue), 0o644))

	_, _, err := execute(t, "tenants", "import", env.configDir, "--db", env.db)
	require.NoError(t, err)
	return env
}

// run executes args against the environment's catalog.
func (env *lnEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return execute(t, append(args, "--db", env.db)...)
}
