package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Text(t *testing.T) {
	env := newLNEnv(t)

	out, stderr, err := env.run(t, "query", "ACME_PRD", "Customer_v1",
		"SELECT", "id,", "name", "FROM", "Customer_v1", "WHERE", "country", "=", "'Mexico'", "GROUP", "BY", "name")
	require.NoError(t, err)

	assert.Contains(t, out, "Comercial Azteca")
	assert.Contains(t, out, "Distribuidora del Norte")
	assert.NotContains(t, out, "country", "projection drops unselected fields")
	assert.Contains(t, out, "Retrieved 2 of 2 records")
	assert.Contains(t, stderr, "GROUP BY is not supported")
	assert.Equal(t, int32(1), env.requests.Load())
}

func TestQuery_JSON(t *testing.T) {
	env := newLNEnv(t)

	out, _, err := env.run(t, "query", "ACME_PRD", "Customer_v1", "SELECT * FROM Customer_v1 LIMIT 1", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	records := data["records"].(map[string]any)
	assert.Equal(t, float64(1), records["count"])
	assert.Equal(t, float64(2), records["total_available"])
	assert.Equal(t, "Customer_v1", data["schema"].(map[string]any)["table_name"])
}

func TestQuery_RemoteFault(t *testing.T) {
	env := newLNEnv(t)

	out, _, err := env.run(t, "query", "ACME_PRD", "Item_v2", "SELECT * FROM Item_v2", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	e := resp["error"].(map[string]any)
	assert.Equal(t, "REMOTE_FAULT", e["code"])
	assert.Equal(t, "Item service unavailable", e["message"])
	assert.NotEmpty(t, e["details"].(map[string]any)["run_id"])
}

func TestQuery_UnknownService(t *testing.T) {
	env := newLNEnv(t)

	out, _, err := env.run(t, "query", "ACME_PRD", "Nope", "SELECT * FROM Nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [RESOLVE_FAILED]")
	assert.Equal(t, int32(0), env.requests.Load())
}

func TestQuery_TokenReused(t *testing.T) {
	env := newLNEnv(t)

	for i := 0; i < 2; i++ {
		_, _, err := env.run(t, "query", "ACME_PRD", "Customer_v1", "SELECT * FROM Customer_v1")
		require.NoError(t, err)
	}
	// Each invocation is a new process, so each one fetches its own token.
	assert.Equal(t, int32(2), env.grants.Load())
}

func TestQuery_MissingArgs(t *testing.T) {
	_, _, err := execute(t, "query", "ACME_PRD", "Customer_v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 3 arg(s)")
}

func TestEncode(t *testing.T) {
	env := newLNEnv(t)

	out, _, err := env.run(t, "encode", "ACME_PRD", "SalesOrders",
		"SELECT * FROM Orders WHERE Amount > 100 ORDER BY OrderDate DESC LIMIT 10")
	require.NoError(t, err)

	assert.Contains(t, out, "GET ")
	assert.Contains(t, out, "/LN/lnapi/odata/tdsls.SalesOrders/Orders?$filter=Amount%20gt%20100&$orderby=OrderDate%20desc")
	assert.Contains(t, out, "  $filter=Amount gt 100&$orderby=OrderDate desc")
	assert.Contains(t, out, "fingerprint: ")
	assert.Equal(t, int32(0), env.requests.Load(), "encode never calls the gateway")
	assert.Equal(t, int32(0), env.grants.Load(), "encode never fetches a token")
}

func TestEncode_SOAPJSON(t *testing.T) {
	env := newLNEnv(t)

	out, _, err := env.run(t, "encode", "ACME_PRD", "Customer_v1",
		"SELECT * FROM Customer_v1 WHERE id = 'C001'", "--action", "Delete", "--format", "json")
	require.NoError(t, err)

	data := decodeResponse(t, out)["data"].(map[string]any)
	assert.Equal(t, "POST", data["method"])
	assert.Contains(t, data["payload"], "DeleteRequest")
	assert.NotContains(t, data["payload"], "ComparisonExpression")
}

func TestDescribeTable(t *testing.T) {
	env := newLNEnv(t)

	out, _, err := env.run(t, "describe-table", "ACME_PRD", "Customer_v1")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer_v1 (soap)")
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "country")
}

func TestRuns(t *testing.T) {
	env := newLNEnv(t)

	_, _, err := env.run(t, "query", "ACME_PRD", "Customer_v1", "SELECT * FROM Customer_v1")
	require.NoError(t, err)
	_, _, err = env.run(t, "query", "ACME_PRD", "Item_v2", "SELECT * FROM Item_v2")
	require.Error(t, err)

	out, _, err := env.run(t, "runs", "--format", "json")
	require.NoError(t, err)
	runs := decodeResponse(t, out)["data"].([]any)
	require.Len(t, runs, 2)
	assert.Equal(t, "fault", runs[0].(map[string]any)["outcome"])
	assert.Equal(t, "ok", runs[1].(map[string]any)["outcome"])

	out, _, err = env.run(t, "runs", "--service", "Customer_v1")
	require.NoError(t, err)
	assert.Contains(t, out, "2/2")
	assert.NotContains(t, out, "Item_v2")

	_, _, err = env.run(t, "runs", "--limit", "0")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
