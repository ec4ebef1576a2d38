package relay

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadSchemas(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"schemas/thing.json":    {Data: []byte(`{"type":"object","required":["id"],"properties":{"id":{"type":"integer"}}}`)},
		"schemas/README.md":     {Data: []byte("ignored")},
		"schemas/nested/x.json": {Data: []byte(`{}`)},
	}

	set, err := LoadSchemas(fsys, "schemas")
	if err != nil {
		t.Fatalf("LoadSchemas returned error: %v", err)
	}
	if !set.Has("thing") || set.Has("README") || set.Has("x") {
		t.Fatalf("unexpected schema names in %+v", set.schemas)
	}
	if err := set.Validate("thing", []byte(`{"id":3}`)); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
	err = set.Validate("thing", []byte(`{"id":"3"}`))
	if err == nil || !strings.Contains(err.Error(), "schema thing") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := set.Validate("missing", []byte(`{}`)); err == nil {
		t.Fatal("expected unknown schema error")
	}
}

func TestSchemaSetRejectsBadSchema(t *testing.T) {
	t.Parallel()
	if err := NewSchemaSet().Add("bad", []byte(`{"type": 12}`)); err == nil {
		t.Fatal("expected compile error")
	}
	var nilSet *SchemaSet
	if nilSet.Has("anything") {
		t.Fatal("nil set should have no schemas")
	}
}

func TestEnvelopeErr(t *testing.T) {
	t.Parallel()
	env := failure[Token](FailureStatus, 404, "")
	if env.Error != "Not Found" {
		t.Fatalf("expected status text fallback, got %q", env.Error)
	}
	err := env.Err()
	if err == nil || err.Error() != "status_failure (404): Not Found" {
		t.Fatalf("unexpected error %v", err)
	}
	transport := failure[Token](FailureTransport, StatusTransportError, "")
	if transport.Error != "transport_failure" {
		t.Fatalf("expected kind fallback, got %q", transport.Error)
	}
	rejected := failure[Token](FailureRequest, StatusRequestRejected, "unknown response schema \"x\"")
	if rejected.OK() || rejected.Err().Error() != `invalid_request: unknown response schema "x"` {
		t.Fatalf("unexpected rejected envelope %+v", rejected)
	}
	if ok := success(200, &Token{Token: "t"}); ok.Err() != nil || !ok.OK() {
		t.Fatalf("expected success envelope, got %+v", ok)
	}
}
