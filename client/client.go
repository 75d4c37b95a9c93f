package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/concrnt-inscriber"
)

const (
	defaultTimeout = 10 * time.Second

	CommitEndpointKey = "net.concrnt.commit"
	defaultCommitPath = "/commit"
)

type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
}

func New(userAgent string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: userAgent,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// GetServer fetches the node descriptor of host. Results are cached.
func (c *Client) GetServer(ctx context.Context, host string) (concrnt.WellKnownConcrnt, error) {
	cacheKey := "server:" + concrnt.NodeHost(host)

	x, found := c.cache.Get(cacheKey)
	if found {
		return x.(concrnt.WellKnownConcrnt), nil
	}

	var wkc concrnt.WellKnownConcrnt
	err := c.GetJSON(ctx, concrnt.NodeBaseURL(host)+"/.well-known/concrnt", "application/json", &wkc)
	if err != nil {
		return concrnt.WellKnownConcrnt{}, fmt.Errorf("failed to get well-known concrnt: %w", err)
	}

	c.cache.Set(cacheKey, wkc, cache.DefaultExpiration)
	return wkc, nil
}

// CommitURL returns where signed documents for host are posted.
func (c *Client) CommitURL(ctx context.Context, host string) string {
	path := defaultCommitPath

	wkc, err := c.GetServer(ctx, host)
	if err != nil {
		slog.WarnContext(
			ctx, "well-known lookup failed, using default commit endpoint",
			slog.String("host", host),
			slog.String("error", err.Error()),
			slog.String("module", "client"),
		)
	} else if endpoint, ok := wkc.Endpoints[CommitEndpointKey]; ok && endpoint.Template != "" {
		path = endpoint.Template
	}

	return concrnt.NodeBaseURL(host) + path
}

// Commit posts a signed document to host on behalf of the token's issuer.
func (c *Client) Commit(ctx context.Context, host string, sd concrnt.SignedDocument, token string) error {
	body, err := json.Marshal(sd)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.CommitURL(ctx, host), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("commit rejected with status %d: %s", resp.StatusCode, string(msg))
	}

	return nil
}

func (c *Client) GetJSON(ctx context.Context, url, accept string, result any) error {
	resp, err := c.get(ctx, url, accept)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	err = json.NewDecoder(resp.Body).Decode(result)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	resp, err := c.get(ctx, url, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}

func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp, nil
}
