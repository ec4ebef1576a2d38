package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	"github.com/oremus-labs/bigbooks-relay/internal/metrics"
)

// AuthPath is the authorization endpoint relative to the API base URL.
const AuthPath = "/api/authentication/authenticate"

// Credentials identify the caller on every relayed call.
type Credentials struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// String hides the password so credentials can be printed safely.
func (c Credentials) String() string {
	return c.UserID + ":***"
}

// GoString hides the password from %#v as well.
func (c Credentials) GoString() string {
	return fmt.Sprintf("relay.Credentials{UserID:%q, Password:\"***\"}", c.UserID)
}

// Token is the authorization endpoint's success payload.
type Token struct {
	Token      string `json:"token"`
	Expiration string `json:"expiration,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator struct {
	client   *http.Client
	endpoint string
}

// NewAuthenticator returns an Authenticator posting to baseURL + AuthPath.
func NewAuthenticator(client *http.Client, baseURL string) *Authenticator {
	if client == nil {
		client = newHTTPClient(0, false)
	}
	return &Authenticator{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + AuthPath,
	}
}

// Authenticate performs one authorization round-trip. It never returns a Go
// error; every outcome is folded into the envelope.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) Envelope[Token] {
	body, err := json.Marshal(creds)
	if err != nil {
		return failure[Token](FailureRequest, StatusRequestRejected, err.Error())
	}

	status, payload, err := exchange(ctx, a.client, http.MethodPost, a.endpoint, body, "")
	metrics.ObserveAuth(status)
	fields := map[string]interface{}{"userId": creds.UserID, "status": status}
	if err != nil {
		logutil.Debug("auth request failed", withError(fields, err))
		return failure[Token](FailureTransport, status, err.Error())
	}
	if !isSuccess(status) {
		logutil.Debug("auth request rejected", fields)
		return failure[Token](FailureAuth, status, string(payload))
	}

	logutil.Trace("auth request", fields)
	var token Token
	if err := json.Unmarshal(payload, &token); err != nil {
		return failure[Token](FailureAuth, status, fmt.Sprintf("malformed authorization response: %v", err))
	}
	return success(status, &token)
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	fields["error"] = err.Error()
	return fields
}
