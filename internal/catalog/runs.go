package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/lnquery/internal/queryir"
)

// Outcome classifies how a query run ended.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFault  Outcome = "fault"
	OutcomeFailed Outcome = "failed"
	OutcomeDryRun Outcome = "dry_run"
)

// Run is one executed query.
type Run struct {
	Seq            int64                `json:"seq"`
	ID             string               `json:"id"`
	Tenant         string               `json:"tenant"`
	Service        string               `json:"service"`
	API            queryir.APIType      `json:"api"`
	SQL            string               `json:"sql"`
	Fingerprint    string               `json:"fingerprint"`
	Outcome        Outcome              `json:"outcome"`
	RecordCount    int                  `json:"record_count"`
	TotalAvailable int                  `json:"total_available"`
	Diagnostics    []queryir.Diagnostic `json:"diagnostics,omitempty"`
	Error          string               `json:"error,omitempty"`
	Duration       time.Duration        `json:"duration_ns"`
	StartedAt      time.Time            `json:"started_at"`
}

// RecordRun appends a run to the history and returns its sequence number.
// Uses ON CONFLICT(id) DO NOTHING for idempotency; a duplicate ID returns
// the sequence number of the existing row.
func (c *Catalog) RecordRun(ctx context.Context, run Run) (int64, error) {
	diags, err := marshalDiagnostics(run.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO query_runs
		(id, tenant, service, api, sql_text, fingerprint, outcome,
		 record_count, total_available, diagnostics, error, duration_ns, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Tenant,
		run.Service,
		string(run.API),
		run.SQL,
		run.Fingerprint,
		string(run.Outcome),
		run.RecordCount,
		run.TotalAvailable,
		diags,
		run.Error,
		run.Duration.Nanoseconds(),
		run.StartedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}

	var seq int64
	if err := c.db.QueryRowContext(ctx, `SELECT seq FROM query_runs WHERE id = ?`, run.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("record run: read seq: %w", err)
	}
	return seq, nil
}

// RunFilter narrows a Runs listing. Zero values match everything.
type RunFilter struct {
	Tenant      string
	Service     string
	Fingerprint string
	Limit       int
}

// Runs returns recorded runs, newest first.
func (c *Catalog) Runs(ctx context.Context, f RunFilter) ([]Run, error) {
	query := `
		SELECT seq, id, tenant, service, api, sql_text, fingerprint, outcome,
		       record_count, total_available, diagnostics, error, duration_ns, started_at
		FROM query_runs
		WHERE (? = '' OR tenant = ?)
		  AND (? = '' OR service = ?)
		  AND (? = '' OR fingerprint = ?)
		ORDER BY seq DESC`
	args := []any{f.Tenant, f.Tenant, f.Service, f.Service, f.Fingerprint, f.Fingerprint}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Run returns a single run by ID.
// Returns ErrNotFound if no run has that ID.
func (c *Catalog) Run(ctx context.Context, id string) (Run, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, id, tenant, service, api, sql_text, fingerprint, outcome,
		       record_count, total_available, diagnostics, error, duration_ns, started_at
		FROM query_runs
		WHERE id = ?
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Run{}, fmt.Errorf("read run: %w", err)
		}
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var api, outcome, diags string
	var durationNS, startedNS int64

	if err := rows.Scan(
		&run.Seq, &run.ID, &run.Tenant, &run.Service, &api, &run.SQL, &run.Fingerprint, &outcome,
		&run.RecordCount, &run.TotalAvailable, &diags, &run.Error, &durationNS, &startedNS,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.API = queryir.APIType(api)
	run.Outcome = Outcome(outcome)
	run.Duration = time.Duration(durationNS)
	run.StartedAt = time.Unix(0, startedNS).UTC()

	var err error
	if run.Diagnostics, err = unmarshalDiagnostics(diags); err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return run, nil
}

func marshalDiagnostics(diags []queryir.Diagnostic) (string, error) {
	if len(diags) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(diags)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return string(data), nil
}

func unmarshalDiagnostics(data string) ([]queryir.Diagnostic, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var diags []queryir.Diagnostic
	if err := json.Unmarshal([]byte(data), &diags); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return diags, nil
}

// IsNotFound reports whether err is a catalog ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
