package root

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"tomcat-devloop/internal/env"
	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

/**
 * Create a runtime for the current workspace printing to the terminal
 * @returns {*services.Runtime} Runtime with console sink and notifier
 * @returns {error} Settings cannot be read
 */
func LocalRuntime() (*services.Runtime, error) {
	return services.NewRuntime(services.RuntimeOptions{WorkspaceDir: env.WorkspaceDir})
}

/**
 * Connect to a running daemon
 * @param {time.Duration} timeout - Request timeout of the returned client
 * @returns {rpc.HTTPClient} Client, nil when no daemon answers /healthz
 * @description
 * - The client is only returned when the daemon serves the same workspace
 */
func DaemonClient(timeout time.Duration) rpc.HTTPClient {
	probe := rpc.DefaultHTTPConfig()
	probe.Timeout = time.Second
	client := rpc.NewHTTPClient(probe)
	resp, err := client.Get("/healthz", nil)
	client.Close()
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}
	var health struct {
		Workspace string `json:"workspace"`
	}
	if resp.Decode(&health) != nil || health.Workspace != env.WorkspaceDir {
		return nil
	}

	cfg := rpc.DefaultHTTPConfig()
	cfg.Timeout = timeout
	return rpc.NewHTTPClient(cfg)
}

// ResponseError converts a failed daemon response into an error
func ResponseError(resp *rpc.HTTPResponse) error {
	if resp.OK() {
		return nil
	}
	if resp.Code != "" {
		return fmt.Errorf("%s (%s)", resp.Error, resp.Code)
	}
	return errors.New(resp.Error)
}
