package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe(t *testing.T) {
	env := newLNEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text", Database: env.db, LimitPolicy: "client", Timeout: 5 * time.Second},
		Ready:       func(addr string) { ready <- addr },
	}
	cmd := &cobra.Command{}
	cmd.Flags().String("addr", "127.0.0.1:0", "")
	cmd.SetContext(ctx)
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	done := make(chan error, 1)
	go func() { done <- runServe(opts, cmd) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/api/tenants")
	require.NoError(t, err)
	var tenants []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tenants))
	resp.Body.Close()
	require.Len(t, tenants, 1)
	assert.Equal(t, "ACME_PRD", tenants[0]["name"])

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Contains(t, out.String(), "Listening on "+addr)
}
