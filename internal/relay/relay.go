// Package relay performs authenticated calls against the BigBooks API.
//
// Every call authenticates first, then sends the target request with the
// freshly issued bearer token, and folds every outcome into an Envelope.
// Tokens are never cached; a Client is safe for concurrent use.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	"github.com/oremus-labs/bigbooks-relay/internal/metrics"
)

// Operation describes one target call. Path is relative to the API base URL
// and may carry a query string.
type Operation struct {
	Method string
	Path   string
	Body   any
	// Schema names the JSON schema the success body must satisfy; empty skips validation.
	Schema string
}

// Options configure a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each round-trip; zero means 30s.
	Timeout            time.Duration
	InsecureSkipVerify bool
	// HTTPClient overrides Timeout and InsecureSkipVerify when set.
	HTTPClient *http.Client
	Schemas    *SchemaSet
}

// Client relays authenticated calls to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *Authenticator
	schemas *SchemaSet
}

// New builds a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("relay: base URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout, opts.InsecureSkipVerify)
	}
	return &Client{
		baseURL: base,
		http:    httpClient,
		auth:    NewAuthenticator(httpClient, base),
		schemas: opts.Schemas,
	}, nil
}

// BaseURL returns the normalized API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticator exposes the client's authenticator.
func (c *Client) Authenticator() *Authenticator {
	return c.auth
}

// Do authenticates with creds and performs op, decoding a successful body into T.
func Do[T any](ctx context.Context, c *Client, op Operation, creds Credentials) Envelope[T] {
	start := time.Now()
	env := call[T](ctx, c, op, creds)
	metrics.ObserveRelay(op.Method, env.Kind.String(), time.Since(start))
	return env
}

func call[T any](ctx context.Context, c *Client, op Operation, creds Credentials) Envelope[T] {
	if op.Schema != "" && !c.schemas.Has(op.Schema) {
		return failure[T](FailureRequest, StatusRequestRejected, fmt.Sprintf("unknown response schema %q", op.Schema))
	}

	authEnv := c.auth.Authenticate(ctx, creds)
	if !isSuccess(authEnv.Status) || authEnv.Data == nil || authEnv.Data.Token == "" {
		return authFailure[T](authEnv)
	}

	uri := c.baseURL + op.Path
	var body []byte
	if op.Body != nil {
		encoded, err := json.Marshal(op.Body)
		if err != nil {
			return failure[T](FailureRequest, StatusRequestRejected, fmt.Sprintf("encode request body: %v", err))
		}
		body = encoded
	}

	status, payload, err := exchange(ctx, c.http, op.Method, uri, body, authEnv.Data.Token)
	fields := map[string]interface{}{"method": op.Method, "uri": uri, "status": status}
	if err != nil {
		logutil.Debug("request failed", withError(fields, err))
		return failure[T](FailureTransport, status, err.Error())
	}
	if !isSuccess(status) {
		logutil.Debug("request", fields)
		return failure[T](FailureStatus, status, string(payload))
	}
	logutil.Trace("request", fields)

	data, err := decodeBody[T](c.schemas, op.Schema, payload)
	if err != nil {
		return failure[T](FailureMalformed, status, fmt.Sprintf("malformed response: %v", err))
	}
	return success(status, data)
}

func decodeBody[T any](schemas *SchemaSet, schema string, payload []byte) (*T, error) {
	target := new(T)
	if len(bytes.TrimSpace(payload)) == 0 {
		// bodiless success (e.g. 204) decodes to the zero value
		return target, nil
	}
	if schema != "" {
		if err := schemas.Validate(schema, payload); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, err
	}
	return target, nil
}

// authFailure propagates the authorization outcome unchanged. A 2xx without a
// token still fails; its message comes from the token payload when present.
func authFailure[T any](authEnv Envelope[Token]) Envelope[T] {
	if authEnv.Kind != FailureNone {
		return Envelope[T]{Status: authEnv.Status, Error: authEnv.Error, Kind: authEnv.Kind}
	}
	msg := "authorization response missing token"
	if authEnv.Data != nil && authEnv.Data.Error != "" {
		msg = authEnv.Data.Error
	}
	return Envelope[T]{Status: authEnv.Status, Error: msg, Kind: FailureAuth}
}
