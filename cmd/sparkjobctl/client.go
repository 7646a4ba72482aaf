package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiClient is a thin wrapper over the orchestrator's HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type submitResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

type statusResponse struct {
	JobID      string     `json:"job_id"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	ExitCode   *int       `json:"exit_code"`
	ResultURL  *string    `json:"result_url"`
	LogPreview string     `json:"log_preview"`
}

type logsResponse struct {
	JobID string `json:"job_id"`
	Logs  string `json:"logs"`
}

func (c *apiClient) do(
	ctx context.Context,
	method string,
	path string,
	body any,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}

		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}

	return resp, nil
}

// decode reads a 2xx response into out, or turns the error envelope into an
// error.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("server returned %s", resp.Status)
		}

		return fmt.Errorf(
			"server returned %s: %s",
			resp.Status,
			envelope.Error.Message,
		)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *apiClient) submit(
	ctx context.Context,
	name string,
	jobType string,
	inputs map[string]string,
	outputPath string,
	timeoutSeconds int,
) (*submitResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/jobs/submit", map[string]any{
		"job_name":        name,
		"job_type":        jobType,
		"input_paths":     inputs,
		"output_path":     outputPath,
		"timeout_seconds": timeoutSeconds,
	})
	if err != nil {
		return nil, err
	}

	var out submitResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *apiClient) status(ctx context.Context, id string) (*statusResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/jobs/"+id, nil)
	if err != nil {
		return nil, err
	}

	var out statusResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *apiClient) result(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/jobs/"+id+"/result", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, fmt.Errorf("server returned %s", resp.Status)
		}

		return nil, fmt.Errorf(
			"server returned %s: %s",
			resp.Status,
			envelope.Error.Message,
		)
	}

	return io.ReadAll(resp.Body)
}

func (c *apiClient) logs(ctx context.Context, id string) (*logsResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/jobs/"+id+"/logs", nil)
	if err != nil {
		return nil, err
	}

	var out logsResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
