// Package cluster consumes the storage cluster's status and node-toggle API
// for the admin surface. The engine itself never depends on cluster state.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrGateway = errors.New("cluster: gateway error")

type NodeStatus struct {
	Node   string `json:"node"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

type Status struct {
	TotalNodes        int          `json:"total_nodes"`
	ReplicationFactor int          `json:"replication_factor"`
	HealthyNodes      int          `json:"healthy_nodes"`
	UnhealthyNodes    int          `json:"unhealthy_nodes"`
	Nodes             []NodeStatus `json:"nodes"`
	Logs              []string     `json:"logs"`
}

// statusPayload matches the node API's response shape, which nests the
// counters under a "cluster" object.
type statusPayload struct {
	Cluster struct {
		TotalNodes        int `json:"total_nodes"`
		ReplicationFactor int `json:"replication_factor"`
		HealthyNodes      int `json:"healthy_nodes"`
		UnhealthyNodes    int `json:"unhealthy_nodes"`
	} `json:"cluster"`
	Nodes []NodeStatus `json:"nodes"`
	Logs  []string     `json:"logs"`
}

type ToggleAction string

const (
	ActionStart ToggleAction = "start"
	ActionStop  ToggleAction = "stop"
)

// Gateway calls the cluster endpoints: GET /api/cluster/status and
// POST /api/node/toggle.
type Gateway struct {
	baseURL string
	client  *http.Client
}

func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *Gateway) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/cluster/status", nil)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("%w: status endpoint returned %d", ErrGateway, resp.StatusCode)
	}

	var payload statusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Status{}, fmt.Errorf("%w: decode status: %v", ErrGateway, err)
	}

	return Status{
		TotalNodes:        payload.Cluster.TotalNodes,
		ReplicationFactor: payload.Cluster.ReplicationFactor,
		HealthyNodes:      payload.Cluster.HealthyNodes,
		UnhealthyNodes:    payload.Cluster.UnhealthyNodes,
		Nodes:             payload.Nodes,
		Logs:              payload.Logs,
	}, nil
}

// Logs fetches the cluster's recent event log lines.
func (g *Gateway) Logs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/cluster/logs", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: logs endpoint returned %d", ErrGateway, resp.StatusCode)
	}

	var payload struct {
		Logs []string `json:"logs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode logs: %v", ErrGateway, err)
	}
	return payload.Logs, nil
}

func (g *Gateway) Toggle(ctx context.Context, node string, action ToggleAction) error {
	if action != ActionStart && action != ActionStop {
		return fmt.Errorf("%w: unknown action %q", ErrGateway, action)
	}
	if node == "" {
		return fmt.Errorf("%w: node is required", ErrGateway)
	}

	body, err := json.Marshal(map[string]string{"node": node, "action": string(action)})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/node/toggle", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: toggle returned %d", ErrGateway, resp.StatusCode)
	}
	return nil
}
