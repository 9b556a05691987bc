package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/create-with-webhook", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"projectId":"p-42"}`))
	})
	mux.HandleFunc("GET /api/projects/p-42/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"completed"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cmd := submitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Kademuur", "--api", srv.URL + "/api", "--token", "tok", "--interval", "10ms"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "submitting")
	assert.Contains(t, out.String(), "analyzing")
	assert.Contains(t, out.String(), "done")
	assert.Contains(t, out.String(), "project p-42")
}

func TestSubmitCommandRequiresToken(t *testing.T) {
	t.Setenv("PORTAAL_TOKEN", "")
	cmd := submitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"Kademuur"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORTAAL_TOKEN")
}
