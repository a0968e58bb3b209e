package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fabric-bridge/internal/domain"
)

// TokenProvider supplies a bearer token for Fabric API calls. Token
// acquisition and refresh happen upstream; a valid token is a precondition.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken returns a TokenProvider that always yields the given token.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

// Client calls the Fabric metadata API. It is the sole upstream of the
// supported-types registry and the source of available connections.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenProvider
}

// Compile-time checks.
var (
	_ domain.ConnectorMetadataAPI = (*Client)(nil)
	_ domain.ConnectionProvider   = (*Client)(nil)
)

// NewClient creates a Client for the given API base URL.
func NewClient(baseURL string, token TokenProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient, token: token}
}

// supportedConnector is one entry of the supported-connector listing.
type supportedConnector struct {
	Type string `json:"type"`
}

// connectionEntry is one entry of the connections listing.
type connectionEntry struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	ConnectionDetails struct {
		Type string `json:"type"`
	} `json:"connectionDetails"`
}

// listEnvelope is the standard value-wrapped response shape.
type listEnvelope[T any] struct {
	Value []T `json:"value"`
}

// ListSupportedConnectorTypes fetches the connector types Fabric currently
// supports. Failures are returned to the caller (the registry converts them
// into the unavailable status).
func (c *Client) ListSupportedConnectorTypes(ctx context.Context) ([]string, error) {
	var envelope listEnvelope[supportedConnector]
	if err := c.get(ctx, "/v1/metadata/supportedConnectorTypes", &envelope); err != nil {
		return nil, err
	}
	types := make([]string, 0, len(envelope.Value))
	for _, entry := range envelope.Value {
		if entry.Type != "" {
			types = append(types, entry.Type)
		}
	}
	return types, nil
}

// ListConnections fetches the connections available as mapping targets.
func (c *Client) ListConnections(ctx context.Context) ([]domain.FabricConnection, error) {
	var envelope listEnvelope[connectionEntry]
	if err := c.get(ctx, "/v1/connections", &envelope); err != nil {
		return nil, err
	}
	conns := make([]domain.FabricConnection, 0, len(envelope.Value))
	for _, entry := range envelope.Value {
		conns = append(conns, domain.FabricConnection{
			ID:            entry.ID,
			Name:          entry.DisplayName,
			ConnectorType: entry.ConnectionDetails.Type,
		})
	}
	return conns, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
