package rpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"launchdeck/internal/logger"
)

type httpClient struct {
	config    *HTTPConfig
	client    *http.Client
	transport *http.Transport
	mu        sync.Mutex
}

/**
 * Create a client for the launchdeck server
 * @param {*HTTPConfig} config - Client configuration, nil uses DefaultHTTPConfig
 * @returns {HTTPClient} Client dialing config.Network/config.Address for every request
 * @description
 * - The URL host is ignored, connections always go to the configured address
 * - Nothing is dialed until the first request
 * @example
 * client := NewHTTPClient(nil)
 * defer client.Close()
 * resp, err := client.Get("/api/v1/apps", nil)
 */
func NewHTTPClient(config *HTTPConfig) HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	c := &httpClient{config: config}

	dialer := &net.Dialer{Timeout: config.Timeout}
	c.transport = &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, config.Network, config.Address)
		},
	}
	c.client = &http.Client{
		Transport: c.transport,
		Timeout:   config.Timeout,
	}
	return c
}

func (c *httpClient) Get(path string, params map[string]interface{}) (*HTTPResponse, error) {
	return c.do(http.MethodGet, path, params, nil)
}

func (c *httpClient) Post(path string, data interface{}) (*HTTPResponse, error) {
	return c.do(http.MethodPost, path, nil, data)
}

func (c *httpClient) Put(path string, data interface{}) (*HTTPResponse, error) {
	return c.do(http.MethodPut, path, nil, data)
}

func (c *httpClient) Patch(path string, data interface{}) (*HTTPResponse, error) {
	return c.do(http.MethodPatch, path, nil, data)
}

func (c *httpClient) Delete(path string, params map[string]interface{}) (*HTTPResponse, error) {
	return c.do(http.MethodDelete, path, params, nil)
}

/**
 * Send one request and collect the response
 * @param {string} method - HTTP method
 * @param {string} path - API path, joined to BaseURL
 * @param {map[string]interface{}} params - Query parameters
 * @param {interface{}} data - JSON body, nil sends none
 * @returns {*HTTPResponse} Response, also for non-2xx statuses
 * @returns {error} Transport or encoding errors only
 */
func (c *httpClient) do(method, path string, params map[string]interface{}, data interface{}) (*HTTPResponse, error) {
	url, err := buildURL(c.config.BaseURL, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	body, err := serializeData(data)
	if err != nil {
		return nil, err
	}

	logger.Debugf("Sending %s request to %s via %s://%s", method, url, c.config.Network, c.config.Address)

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return deserializeResponse(resp)
}

func (c *httpClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

/**
 * Connect to the running server if there is one
 * @returns {HTTPClient} Client bound to the server, nil when none answers
 * @returns {bool} True when /healthz answered with 2xx
 * @description
 * - Commands use this to prefer the server and fall back to in-process work
 */
func Connect() (HTTPClient, bool) {
	client := NewHTTPClient(nil)
	resp, err := client.Get("/healthz", nil)
	if err != nil || !resp.OK() {
		client.Close()
		return nil, false
	}
	return client, true
}
