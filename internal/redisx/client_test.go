package redisx

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestNewClientWithoutAddrIsNil(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client when no address configured")
	}
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	t.Parallel()

	// reserve a port and release it so nothing is listening there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	client, err := NewClient(context.Background(), Config{Addr: addr, PingTimeout: 500 * time.Millisecond})
	if err == nil {
		_ = client.Close()
		t.Fatalf("expected ping failure for %s", addr)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	opts, err := Config{Addr: "redis://:secret@cache.internal:6380/3", Password: "ignored", DB: 1}.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected url options: addr=%s db=%d", opts.Addr, opts.DB)
	}

	opts, err = Config{Addr: "localhost:6379", Password: "pw", DB: 2}.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected plain options: %+v", opts)
	}

	if _, err := (Config{Addr: "http://localhost:6379"}).options(); err == nil {
		t.Fatalf("expected non-redis scheme to be rejected")
	}
}
