package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func readLine(t *testing.T, peer net.Conn) chan string {
	t.Helper()
	lines := make(chan string, 1)
	go func() {
		buf := make([]byte, 512)
		n, err := peer.Read(buf)
		if err != nil {
			lines <- "read error: " + err.Error()
			return
		}
		lines <- string(buf[:n])
	}()
	return lines
}

func awaitLine(t *testing.T, lines chan string) string {
	t.Helper()
	select {
	case line := <-lines:
		return line
	case <-time.After(time.Second):
		t.Fatal("no metric emitted")
		return ""
	}
}

func TestClientEmitsTaggedLoginCounter(t *testing.T) {
	t.Parallel()

	clientConn, peer := net.Pipe()
	defer peer.Close()

	client := &Client{enabled: true, conn: clientConn, prefix: DefaultPrefix}
	lines := readLine(t, peer)

	client.Count("auth.login", 1, map[string]string{
		"outcome":    "failure",
		"error_type": "provider_error",
	})

	got := awaitLine(t, lines)
	want := "portal.auth.login:1|c|#error_type:provider_error,outcome:failure"
	if got != want {
		t.Fatalf("emitted line mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestClientEmitsAssemblyTiming(t *testing.T) {
	t.Parallel()

	clientConn, peer := net.Pipe()
	defer peer.Close()

	client := &Client{enabled: true, conn: clientConn, prefix: DefaultPrefix}
	lines := readLine(t, peer)

	client.Timing("auth.assemble_profile", 250*time.Millisecond, nil)

	got := awaitLine(t, lines)
	if got != "portal.auth.assemble_profile:250|ms" {
		t.Fatalf("unexpected timing line: %q", got)
	}
}

func TestClientMergesGlobalTags(t *testing.T) {
	t.Parallel()

	clientConn, peer := net.Pipe()
	defer peer.Close()

	client := &Client{
		enabled:    true,
		conn:       clientConn,
		prefix:     DefaultPrefix,
		globalTags: map[string]string{"env": "prod", "outcome": "ignored"},
	}
	lines := readLine(t, peer)

	// Per-call tags win over global tags on key collision.
	client.Count("auth.refresh", 1, map[string]string{"outcome": "success"})

	got := awaitLine(t, lines)
	want := "portal.auth.refresh:1|c|#env:prod,outcome:success"
	if got != want {
		t.Fatalf("emitted line mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" auth.login ":        "auth.login",
		"auth..login":         "auth.login",
		".portal.":            "portal",
		"auth/refresh result": "auth_refresh_result",
		"":                    "",
	}

	for input, want := range tests {
		if got := cleanName(input); got != want {
			t.Fatalf("cleanName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTagSuffixEmpty(t *testing.T) {
	t.Parallel()

	if got := tagSuffix(nil, nil); got != "" {
		t.Fatalf("tagSuffix(nil, nil) = %q, want empty string", got)
	}
	if got := tagSuffix(map[string]string{" ": "dropped"}, nil); got != "" {
		t.Fatalf("tagSuffix with only blank keys = %q, want empty string", got)
	}
}

func TestNewClientDefaultsPrefix(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.prefix != DefaultPrefix {
		t.Fatalf("prefix = %q, want %q", client.prefix, DefaultPrefix)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{
		Enabled: true,
		Address: "   ",
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{
		Enabled: true,
		Address: "bad address",
	})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{enabled: true, conn: clientConn}

	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}
