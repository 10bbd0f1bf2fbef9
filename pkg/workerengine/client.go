// Package workerengine implements the Worker Runtime (component E): job
// acquisition, lease/heartbeat, collision reporting, filter hydration, and
// the per-core hot-loop drivers.
//
// Grounded on its Client shape reworked from
// gRPC+mTLS to a plain bearer-token JSON contract
// original_source/apps/orchestrator/src/handlers/swarm.rs for the route
// semantics the client calls.
package workerengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nullshard/prospector/pkg/types"
)

// Client is the worker's HTTP surface against the orchestrator's swarm API.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// NewClient constructs a Client against baseURL, authorizing every request
// with authToken.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Acquire calls POST /swarm/job/acquire. A nil, nil return means no mission
// was currently available (204, or 404 for orchestrators that signal it
// that way).
func (c *Client) Acquire(req types.AcquireRequest) (*types.Mission, error) {
	var m types.Mission
	ok, err := c.doJSON(http.MethodPost, "/swarm/job/acquire", req, &m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// Heartbeat calls POST /swarm/job/keepalive.
func (c *Client) Heartbeat(missionID string) error {
	_, err := c.doJSON(http.MethodPost, "/swarm/job/keepalive", types.KeepaliveRequest{ID: missionID}, nil)
	return err
}

// Complete calls POST /swarm/job/complete.
func (c *Client) Complete(report types.AuditReport) error {
	_, err := c.doJSON(http.MethodPost, "/swarm/job/complete", report, nil)
	return err
}

// ReportFinding calls POST /swarm/finding.
func (c *Client) ReportFinding(f types.Finding) error {
	_, err := c.doJSON(http.MethodPost, "/swarm/finding", f, nil)
	return err
}

// SendTelemetry calls POST /swarm/heartbeat with telemetry.
func (c *Client) SendTelemetry(t types.WorkerTelemetry) error {
	_, err := c.doJSON(http.MethodPost, "/swarm/heartbeat", t, nil)
	return err
}

// FetchResource downloads a static resource under /resources/, used for
// filter shards and the stratum manifest.
func (c *Client) FetchResource(name string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/resources/"+name, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("workerengine: fetching %s: status %d", name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// doJSON posts body (if non-nil) to path and decodes the response into out
// (if non-nil and the response isn't empty). ok is false for a 204 or 404,
// the orchestrator's "nothing currently available" signal (e.g. acquire
// with an empty dispatch buffer).
func (c *Client) doJSON(method, path string, body, out any) (ok bool, err error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return false, fmt.Errorf("workerengine: orchestrator not operational (503)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("workerengine: %s %s returned %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}
