package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oremus-labs/bigbooks-relay/internal/apitest"
	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/relay"
	"github.com/oremus-labs/bigbooks-relay/internal/store/storetest"
	"github.com/oremus-labs/bigbooks-relay/internal/supervisor"
)

// These tests share the global logger and metrics registry, so they do not run in parallel.

type harness struct {
	srv    *apitest.Server
	config string
}

func newHarness(t *testing.T, extra map[string]interface{}) *harness {
	t.Helper()
	srv := apitest.New(t, apitest.WithUsers(storetest.Users), apitest.WithBooks(storetest.Books))
	cfg := map[string]interface{}{
		"apiBaseUrl":          srv.URL,
		"adminUserId":         "admin@demo",
		"defaultUserPassword": storetest.DefaultPassword,
		"databaseFile":        storetest.NewCatalog(t),
		"loggingLevel":        "error",
		"logDir":              "",
		"requestTimeout":      "5s",
	}
	for k, v := range extra {
		cfg[k] = v
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "app-config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &harness{srv: srv, config: path}
}

func (h *harness) run(t *testing.T, args ...string) (*app, string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	err := a.run(context.Background(), append([]string{"--config", h.config}, args...))
	return a, stdout.String(), stderr.String(), err
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return out
}

func TestUsersGet(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "users", "get", "3", "-o", "json")
	if err != nil {
		t.Fatalf("users get: %v", err)
	}
	u := decode[bigbooks.UserDetails](t, out)
	if u.UserEmail != "Liam.Nguyen@demo.com" || u.Wallet != 42.5 {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUsersGetAuthFailure(t *testing.T) {
	h := newHarness(t, nil)
	_, _, _, err := h.run(t, "users", "get", "3", "-p", "wrong")
	if !errors.Is(err, relay.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid password") {
		t.Fatalf("expected server message in %q", err)
	}
	if h.srv.TargetHits() != 0 {
		t.Fatalf("target called %d times after failed auth", h.srv.TargetHits())
	}
}

func TestUsersGetForbidden(t *testing.T) {
	h := newHarness(t, nil)
	_, _, _, err := h.run(t, "users", "get", "22", "-u", "Liam.Nguyen@demo.com")
	if !errors.Is(err, relay.ErrStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestBooksGetTable(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "books", "get", "6")
	if err != nil {
		t.Fatalf("books get: %v", err)
	}
	if !strings.Contains(out, "A Gentleman in Moscow") {
		t.Fatalf("table output missing title:\n%s", out)
	}
}

func TestBooksGenre(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "books", "genre", "fantasy", "-o", "json")
	if err != nil {
		t.Fatalf("books genre: %v", err)
	}
	books := decode[[]bigbooks.BookOverview](t, out)
	var titles []string
	for _, b := range books {
		titles = append(titles, b.Title)
	}
	if diff := cmp.Diff([]string{"The Hobbit", "The Name of the Wind"}, titles); diff != "" {
		t.Fatalf("genre titles mismatch (-want +got):\n%s", diff)
	}
}

func TestBooksGenreUnknown(t *testing.T) {
	h := newHarness(t, nil)
	if _, _, _, err := h.run(t, "books", "genre", "cookbooks"); err == nil {
		t.Fatalf("expected unknown genre to fail")
	}
}

func TestBooksReview(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "books", "review", "12", "--score", "7", "--text", "Great book", "-u", "Savannah.Miller@demo.com", "-o", "json")
	if err != nil {
		t.Fatalf("books review: %v", err)
	}
	r := decode[bigbooks.BookReview](t, out)
	if r.BookTitle != "The Hobbit" || r.Score != 7 || r.User != "Savannah Miller" {
		t.Fatalf("unexpected review: %+v", r)
	}
}

func TestBooksReviewScoreValidated(t *testing.T) {
	h := newHarness(t, nil)
	_, _, _, err := h.run(t, "books", "review", "12", "--score", "11")
	if err == nil || !strings.Contains(err.Error(), "--score") {
		t.Fatalf("expected score validation error, got %v", err)
	}
	if h.srv.Hits(apitest.RouteAuthenticate) != 0 {
		t.Fatalf("authentication attempted for an invalid review")
	}
}

func TestPurchase(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "purchase", "--book", "12", "--quantity", "2", "-u", "Savannah.Miller@demo.com", "-o", "yaml")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !strings.Contains(out, "wallet: 95") {
		t.Fatalf("expected wallet 95 in yaml output:\n%s", out)
	}
}

func TestCatalogBook(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "catalog", "book", "14", "-o", "json")
	if err != nil {
		t.Fatalf("catalog book: %v", err)
	}
	if !strings.Contains(out, "The Name of the Wind") {
		t.Fatalf("unexpected catalog output:\n%s", out)
	}
	if h.srv.TargetHits() != 0 || h.srv.Hits(apitest.RouteAuthenticate) != 0 {
		t.Fatalf("catalog lookup must not call the API")
	}
}

func TestVerifyBooks(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "verify", "books", "-o", "json", "--parallel", "2")
	if err != nil {
		t.Fatalf("verify books: %v", err)
	}
	checks := decode[[]bookCheck](t, out)
	if len(checks) != len(storetest.Books) {
		t.Fatalf("expected %d checks, got %d", len(storetest.Books), len(checks))
	}
	for _, c := range checks {
		if !c.OK {
			t.Fatalf("book %d failed: %v", c.Key, c.Problems)
		}
	}
	if got := h.srv.Hits(apitest.RouteGetBook); got != len(storetest.Books) {
		t.Fatalf("expected %d book fetches, got %d", len(storetest.Books), got)
	}
}

func TestVerifyBooksReportsMissing(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "verify", "books", "6", "99", "-o", "json")
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected one failure, got %v", err)
	}
	checks := decode[[]bookCheck](t, out)
	if !checks[0].OK || checks[1].OK {
		t.Fatalf("unexpected checks: %+v", checks)
	}
}

func TestUnsupportedOutput(t *testing.T) {
	h := newHarness(t, nil)
	_, _, _, err := h.run(t, "catalog", "user", "3", "-o", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("expected output format error, got %v", err)
	}
}

func TestConfigViewOmitsSecrets(t *testing.T) {
	h := newHarness(t, nil)
	_, out, _, err := h.run(t, "config", "view")
	if err != nil {
		t.Fatalf("config view: %v", err)
	}
	if !strings.Contains(out, "apiBaseUrl: "+h.srv.URL) {
		t.Fatalf("config view missing base url:\n%s", out)
	}
	if strings.Contains(out, storetest.DefaultPassword) {
		t.Fatalf("config view leaked the default password:\n%s", out)
	}
}

func TestEventsRequiresRedis(t *testing.T) {
	h := newHarness(t, nil)
	if _, _, _, err := h.run(t, "events"); err == nil {
		t.Fatalf("expected events without redis to fail")
	}
}

func launchConfig(t *testing.T, command string) map[string]interface{} {
	return map[string]interface{}{
		"apiRunCommand":         command,
		"apiProjectPath":        t.TempDir(),
		"apiLaunchDelaySec":     5,
		"apiStatusMessage":      "Now listening on",
		"readinessMode":         "poll",
		"readinessPollInterval": "20ms",
	}
}

func TestLaunchStopsProcessAfterCommand(t *testing.T) {
	h := newHarness(t, launchConfig(t, `echo "Now listening on: http://localhost"; sleep 30`))
	a, _, stderr, err := h.run(t, "--launch", "catalog", "book", "6")
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if got := a.sup.State(); got != supervisor.StateTerminated {
		t.Fatalf("expected terminated supervisor, got %s", got)
	}
	for _, want := range []string{"Starting API process...", "API launched", "Closing background process"} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestLaunchFailure(t *testing.T) {
	h := newHarness(t, launchConfig(t, `echo "booting"; exit 3`))
	_, _, _, err := h.run(t, "--launch", "catalog", "book", "6")
	if !errors.Is(err, supervisor.ErrConfirmationNotFound) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestDemo(t *testing.T) {
	h := newHarness(t, launchConfig(t, `echo "Now listening on"; sleep 30`))
	a, _, stderr, err := h.run(t, "demo", "--linger", "0")
	if err != nil {
		t.Fatalf("demo: %v\n%s", err, stderr)
	}
	if got := a.sup.State(); got != supervisor.StateTerminated {
		t.Fatalf("expected terminated supervisor, got %s", got)
	}
	for _, want := range []string{
		"Application started",
		`"userEmail":"Liam.Nguyen@demo.com"`,
		`User details response: {"status":200`,
		`Book review response: {"status":201`,
		"Application exiting",
	} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("stderr missing %q:\n%s", want, stderr)
		}
	}
	for _, line := range strings.Split(stderr, "\n") {
		if strings.Contains(line, "response: {") && strings.Contains(line, `"error"`) {
			t.Fatalf("demo response carried an error: %s", line)
		}
	}
	if got := h.srv.Hits(apitest.RouteAddReview); got != 1 {
		t.Fatalf("expected one review post, got %d", got)
	}
}
