package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"launchdeck/internal/config"
	"launchdeck/internal/env"
	"launchdeck/internal/models"
)

// SocketName is the unix socket the server listens on inside env.RunDir().
const SocketName = "launchdeck.sock"

// HTTPClient talks to a running launchdeck server.
type HTTPClient interface {
	Get(path string, params map[string]interface{}) (*HTTPResponse, error)
	Post(path string, data interface{}) (*HTTPResponse, error)
	Put(path string, data interface{}) (*HTTPResponse, error)
	Patch(path string, data interface{}) (*HTTPResponse, error)
	Delete(path string, params map[string]interface{}) (*HTTPResponse, error)
	Close() error
}

type HTTPConfig struct {
	Address string        // socket path or host:port
	Network string        // unix, tcp
	Timeout time.Duration // per request
	BaseURL string
}

// SocketPath returns where the server creates its unix socket.
func SocketPath() string {
	return filepath.Join(env.RunDir(), SocketName)
}

/**
 * Build the client configuration for the local server
 * @returns {*HTTPConfig} Unix socket config when the socket exists, TCP config otherwise
 * @description
 * - The TCP address comes from server.address of the active configuration
 */
func DefaultHTTPConfig() *HTTPConfig {
	c := &HTTPConfig{
		Address: SocketPath(),
		Network: "unix",
		Timeout: 10 * time.Second,
		BaseURL: "http://localhost",
	}
	if _, err := os.Stat(c.Address); err != nil {
		c.Address = config.App().Server.Address
		c.Network = "tcp"
	}
	if c.Address == "" {
		c.Address = "127.0.0.1:8999"
		c.Network = "tcp"
	}
	return c
}

type HTTPResponse struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
	Error      string              `json:"error"`
	Code       string              `json:"code"`
}

// OK reports a 2xx status.
func (r *HTTPResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err converts a non-2xx response into an error carrying the server's message.
func (r *HTTPResponse) Err() error {
	if r.OK() {
		return nil
	}
	if r.Code != "" {
		return fmt.Errorf("%s (%s)", r.Error, r.Code)
	}
	return errors.New(r.Error)
}

// Decode unmarshals a successful body into v.
func (r *HTTPResponse) Decode(v interface{}) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

func buildURL(baseURL, path string, params map[string]interface{}) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	if u.Path == "" {
		u.Path = path
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	if len(params) > 0 {
		q := u.Query()
		for key, value := range params {
			switch v := value.(type) {
			case string:
				q.Set(key, v)
			case bool:
				q.Set(key, fmt.Sprintf("%t", v))
			default:
				q.Set(key, fmt.Sprintf("%v", v))
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func serializeData(data interface{}) (io.Reader, error) {
	if data == nil {
		return nil, nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize data: %w", err)
	}
	return bytes.NewReader(jsonData), nil
}

func deserializeResponse(resp *http.Response) (*HTTPResponse, error) {
	defer resp.Body.Close()
	httpResp := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	httpResp.Body = body
	if httpResp.OK() {
		return httpResp, nil
	}
	if len(body) == 0 {
		httpResp.Error = resp.Status
	} else {
		var errBody models.ErrorResponse
		if err := json.Unmarshal(body, &errBody); err != nil {
			httpResp.Error = strings.TrimSpace(string(body))
		} else {
			httpResp.Error = errBody.Error
			httpResp.Code = errBody.Code
		}
	}
	if httpResp.Error == "" {
		httpResp.Error = "Unknown error"
	}
	return httpResp, nil
}
