package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/haven/internal/panel"
)

func TestServe_ServesPanelUntilCanceled(t *testing.T) {
	cmd := &ServeCommand{base: testBase(t)}
	cmd.cfg.Daemon.AuthToken = "s3cret"
	seedActivity(t, cmd.store, time.Now())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	baseURL := fmt.Sprintf("http://%s", ln.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.serve(ctx, ln) }()

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(baseURL + "/view")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, baseURL+"/view", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vm panel.ViewModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vm))
	assert.Equal(t, 4, vm.Counts.Total)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

func TestServeAddrOverrides(t *testing.T) {
	cmd := &ServeCommand{base: testBase(t)}
	cmd.cfg.Daemon.Port = 8722
	assert.Equal(t, "127.0.0.1:8722", cmd.addr())

	cmd.Host = "0.0.0.0"
	cmd.Port = 9000
	assert.Equal(t, "0.0.0.0:9000", cmd.addr())
}

func TestServeFlags(t *testing.T) {
	_, c := parseOnly(t, "serve", "--host", "localhost", "--port", "9999")
	assert.Equal(t, "localhost", c.Serve.Host)
	assert.Equal(t, 9999, c.Serve.Port)
}
