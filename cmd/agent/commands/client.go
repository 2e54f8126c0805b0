package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:3001"

var (
	apiURL       string
	ownerAddress string
)

// Register wires every subcommand and the shared flags into root.
func Register(root *cobra.Command) {
	defaultURL := os.Getenv("BASESOCIETY_API_URL")
	if defaultURL == "" {
		defaultURL = defaultAPIURL
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "Agent runtime API URL")
	root.PersistentFlags().StringVar(&ownerAddress, "owner", os.Getenv("OWNER_ADDRESS"), "Owner wallet address")

	root.AddCommand(CreateCmd)
	root.AddCommand(ListCmd)
	root.AddCommand(InteractCmd)
	root.AddCommand(HistoryCmd)
	root.AddCommand(DeleteCmd)
	root.AddCommand(TemplateCmd)
}

// apiError is a non-2xx response from the runtime.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &payload) == nil && payload.Error != "" {
		return fmt.Sprintf("%s (HTTP %d)", payload.Error, e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// apiClient is a thin JSON client for the runtime API.
type apiClient struct {
	baseURL string
	owner   string
	http    *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		owner:   ownerAddress,
		// completions can take a while
		http: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.owner != "" {
		req.Header.Set("X-Owner-Address", c.owner)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func requireOwnerFlag() error {
	if ownerAddress == "" {
		return fmt.Errorf("--owner (or OWNER_ADDRESS) is required")
	}
	return nil
}
