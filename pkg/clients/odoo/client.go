package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"

	"github.com/warelog/skaner/internal/config"
)

// ErrAuthenticationFailed indicates the backend rejected the configured
// credentials.
var ErrAuthenticationFailed = errors.New("odoo authentication failed")

// Client exposes the Odoo JSON-RPC operations used by the application. The
// surface is deliberately untyped: ExecuteKw covers searches, reads, creates,
// writes and named business actions alike.
type Client interface {
	Authenticate(ctx context.Context) (int, error)
	ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error)
	Version(ctx context.Context) (string, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	database   string
	username   string
	password   string
	uid        int
	requestID  atomic.Int64
}

// NewClient builds an Odoo JSON-RPC client from the provided configuration.
// Calls are synchronous round-trips with no client-side timeout or retry; a
// network failure surfaces as an immediate error to the caller.
func NewClient(cfg config.OdooConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetHeader("Content-Type", "application/json")

	return &APIClient{
		httpClient: restyClient,
		database:   cfg.Database,
		username:   cfg.Username,
		password:   cfg.Password,
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int64     `json:"id"`
	Result  any       `json:"result"`
	Error   *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo rpc error: code=%d, message=%s", e.Code, e.Data.Message)
	}
	return fmt.Sprintf("odoo rpc error: code=%d, message=%s", e.Code, e.Message)
}

// Authenticate resolves and caches the backend user id for subsequent
// ExecuteKw calls.
func (c *APIClient) Authenticate(ctx context.Context) (int, error) {
	result, err := c.call(ctx, "common", "authenticate",
		[]any{c.database, c.username, c.password, map[string]any{}})
	if err != nil {
		return 0, err
	}

	// Odoo answers `false` instead of an error payload on bad credentials.
	uid, ok := result.(float64)
	if !ok || uid <= 0 {
		return 0, ErrAuthenticationFailed
	}

	c.uid = int(uid)
	return c.uid, nil
}

// ExecuteKw invokes a named method on a backend model with positional args
// and keyword args, the generic entry point for every entity operation.
func (c *APIClient) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	if c.uid == 0 {
		return nil, errors.New("odoo client not authenticated")
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	return c.call(ctx, "object", "execute_kw",
		[]any{c.database, c.uid, c.password, model, method, args, kwargs})
}

// Version reports the backend server version, used by the connectivity
// heartbeat. It does not require authentication.
func (c *APIClient) Version(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "common", "version", []any{})
	if err != nil {
		return "", err
	}

	info, ok := result.(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected version payload %T", result)
	}

	version, _ := info["server_version"].(string)
	return version, nil
}

func (c *APIClient) call(ctx context.Context, service, method string, args []any) (any, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: rpcParams{
			Service: service,
			Method:  method,
			Args:    args,
		},
		ID: c.requestID.Add(1),
	}

	result := new(rpcResponse)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		Post("/jsonrpc")
	if err != nil {
		return nil, fmt.Errorf("odoo rpc %s.%s: %w", service, method, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("odoo rpc %s.%s: http status %d", service, method, resp.StatusCode())
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return result.Result, nil
}
