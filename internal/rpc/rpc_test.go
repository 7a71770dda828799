package rpc

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomcat-devloop/internal/models"
)

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(APIPrefix+"/echo", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if r.Method == http.MethodPost {
			json.NewDecoder(r.Body).Decode(&body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"method": r.Method,
			"offset": r.URL.Query().Get("offset"),
			"body":   body,
		})
	})
	mux.HandleFunc(APIPrefix+"/conflict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.ErrorResponse{Code: "server.already_running", Error: "server already running"})
	})
	mux.HandleFunc(APIPrefix+"/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return mux
}

/**
 * Test requests over TCP
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - GET carries query parameters
 * - POST carries a JSON body
 */
func TestHTTPClientTCP(t *testing.T) {
	server := httptest.NewServer(newTestMux())
	defer server.Close()

	client := NewHTTPClient(&HTTPConfig{
		Address: server.Listener.Addr().String(),
		Network: "tcp",
		Timeout: 5 * time.Second,
		BaseURL: "http://localhost",
	})
	defer client.Close()

	resp, err := client.Get(APIPrefix+"/echo", map[string]interface{}{"offset": 12})
	require.NoError(t, err)
	require.True(t, resp.OK())
	var got struct {
		Method string                 `json:"method"`
		Offset string                 `json:"offset"`
		Body   map[string]interface{} `json:"body"`
	}
	require.NoError(t, resp.Decode(&got))
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "12", got.Offset)

	resp, err = client.Post(APIPrefix+"/echo", models.SettingsRequest{Key: "APP_CONTEXT", Value: "web"})
	require.NoError(t, err)
	require.NoError(t, resp.Decode(&got))
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "APP_CONTEXT", got.Body["key"])
	assert.Equal(t, "web", got.Body["value"])
}

/**
 * Test that error bodies are decoded into Code and Error
 * @param {*testing.T} t - Testing framework instance
 */
func TestHTTPClientErrorResponse(t *testing.T) {
	server := httptest.NewServer(newTestMux())
	defer server.Close()

	client := NewHTTPClient(&HTTPConfig{
		Address: server.Listener.Addr().String(),
		Network: "tcp",
		Timeout: 5 * time.Second,
		BaseURL: "http://localhost",
	})
	defer client.Close()

	resp, err := client.Post(APIPrefix+"/conflict", nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "server.already_running", resp.Code)
	assert.Equal(t, "server already running", resp.Error)

	resp, err = client.Get(APIPrefix+"/empty", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "503 Service Unavailable", resp.Error)
}

/**
 * Test requests over a unix socket
 * @param {*testing.T} t - Testing framework instance
 */
func TestHTTPClientUnixSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "devloop-rpc")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	socket := GetSocketPath(dir)
	assert.Equal(t, filepath.Join(dir, SocketName), socket)

	listener, err := net.Listen("unix", socket)
	if err != nil {
		t.Skipf("unix socket not supported: %v", err)
	}
	srv := &http.Server{Handler: newTestMux()}
	go srv.Serve(listener)
	defer srv.Close()

	client := NewHTTPClient(&HTTPConfig{
		Address: socket,
		Network: "unix",
		Timeout: 5 * time.Second,
		BaseURL: "http://localhost",
	})
	defer client.Close()

	resp, err := client.Get(APIPrefix+"/echo", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

/**
 * Test that an unreachable daemon yields an error instead of a response
 * @param {*testing.T} t - Testing framework instance
 */
func TestHTTPClientUnreachable(t *testing.T) {
	client := NewHTTPClient(&HTTPConfig{
		Address: filepath.Join(t.TempDir(), "missing.sock"),
		Network: "unix",
		Timeout: time.Second,
		BaseURL: "http://localhost",
	})
	defer client.Close()

	_, err := client.Get("/healthz", nil)
	assert.Error(t, err)
}

func TestBuildURL(t *testing.T) {
	u, err := buildURL("http://localhost", APIPrefix+"/output", map[string]interface{}{"offset": 3, "follow": true})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/devloop/api/v1/output?follow=true&offset=3", u)

	u, err = buildURL("http://localhost/base", "/healthz", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/base/healthz", u)
}
