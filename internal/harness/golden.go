package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/lnquery/internal/ir"
)

// Snapshot renders the deterministic part of a result as canonical JSON:
// the request line and payload, the record counts, the inferred field types
// and the failure message. Record values and the fingerprint are left out.
func Snapshot(s *Scenario, r *Result) ([]byte, error) {
	snap := map[string]any{
		"scenario":        s.Name,
		"records":         r.Records.Count(),
		"total_available": r.Records.TotalAvailable,
	}
	if r.Encoded != nil {
		snap["method"] = r.Encoded.Method
		snap["url"] = r.Encoded.URL
		snap["payload"] = r.Encoded.Payload
	}
	fields := make([]string, len(r.Schema.Fields))
	for i, f := range r.Schema.Fields {
		fields[i] = f.FieldName + ":" + string(f.DataType)
	}
	snap["fields"] = fields
	if r.Err != nil {
		snap["error"] = r.Err.Error()
	}
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against
// golden/{scenario.Name}.golden next to the scenario file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run scenario %s: %v", s.Name, err)
	}
	data, err := Snapshot(s, result)
	if err != nil {
		t.Fatalf("snapshot scenario %s: %v", s.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join(s.dir, "golden")),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
	return result
}
