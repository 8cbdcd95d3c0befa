// Package catalog provides SQLite-backed storage for imported tenant
// configuration and the history of executed queries.
//
// The catalog holds three tables:
//   - tenants: one row per ERP environment (credentials path, company, identity)
//   - services: the queryable endpoints of each tenant, in declaration order
//   - query_runs: one row per executed query with its fingerprint and outcome
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Query fingerprints are computed by queryir.Fingerprint using RFC 8785
// canonical JSON and SHA-256 with domain separation, so identical queries
// written with different SQL formatting share one fingerprint.
package catalog
