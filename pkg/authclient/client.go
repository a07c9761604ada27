// Package authclient calls the authentication HTTP API on behalf of other
// PetHostel services.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const basePath = "/api/authentication"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// APIError is a non-2xx answer carrying the service's stable code.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Code)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", "", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) RefreshTokens(ctx context.Context, accessToken, refreshToken string) (*AuthResponse, error) {
	var res AuthResponse
	body := refreshRequest{AccessToken: accessToken, RefreshToken: refreshToken}
	if err := c.do(ctx, http.MethodPost, "/refresh", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Revoke(ctx context.Context, bearer, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/revoke", bearer, revokeRequest{RefreshToken: refreshToken}, nil)
}

func (c *Client) RevokeAll(ctx context.Context, bearer string) (int64, error) {
	var res struct {
		Parameters struct {
			Count int64 `json:"count"`
		} `json:"parameters"`
	}
	if err := c.do(ctx, http.MethodPost, "/revoke-all", bearer, nil, &res); err != nil {
		return 0, err
	}
	return res.Parameters.Count, nil
}

func (c *Client) Me(ctx context.Context, bearer string) (*UserInfo, error) {
	var res struct {
		Data UserInfo `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/me", bearer, nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var env envelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		return &APIError{Status: resp.StatusCode, Code: env.Code}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
