package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lnquery/internal/engine"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_AllScenariosPass(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	result := RunWithGolden(t, loadScenario(t, "rest_orders_by_customer"))
	assert.True(t, result.Pass)
}

func TestRun_SOAPEndToEnd(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "soap_customers_in_mexico"))
	require.NoError(t, err)
	require.NoError(t, result.Err)

	require.NotNil(t, result.Encoded)
	assert.Equal(t, "POST", result.Encoded.Method)
	assert.Equal(t, DefaultBaseURL+"/ACME_PRD/LN/c4ws/services/Customer_v1", result.Encoded.URL)
	assert.Equal(t, "Retrieved 3 of 3 records", result.Records.Summary)
}

func TestRun_FailingAssertions(t *testing.T) {
	s := loadScenario(t, "soap_customers_in_mexico")
	five := 5
	s.Assertions = []Assertion{
		{Type: AssertRecordCount, Count: &five},
		{Type: AssertPayloadExcludes, Text: "Mexico"},
		{Type: AssertFaultMessage, Text: "boom"},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected: 5")
	assert.Contains(t, result.Errors[1], "does not contain")
	assert.Contains(t, result.Errors[2], "query succeeded")
}

func TestRun_QueryErrorIsNotRunError(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "soap_fault"))
	require.NoError(t, err)
	require.Error(t, result.Err)
	assert.True(t, engine.IsRemoteFault(result.Err))
	assert.NotNil(t, result.Encoded, "payload is kept from the dry run")
}

func TestRun_ScenarioErrors(t *testing.T) {
	t.Run("missing response file", func(t *testing.T) {
		s := loadScenario(t, "soap_customers_in_mexico")
		s.Response.File = "responses/missing.xml"
		_, err := Run(context.Background(), s)
		assert.ErrorContains(t, err, "failed to read response file")
	})

	t.Run("bad limit policy", func(t *testing.T) {
		s := loadScenario(t, "rest_server_side_limit")
		s.LimitPolicy = "both"
		_, err := Run(context.Background(), s)
		assert.ErrorContains(t, err, "unknown limit policy")
	})
}
