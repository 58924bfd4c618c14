package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAllowAnyWhenUnconfigured(t *testing.T) {
	a := New(Config{})
	if !a.isAllowed("any-key") {
		t.Fatalf("an authenticator with no location or callback should allow any key")
	}
}

func TestCallbackTakesPrecedence(t *testing.T) {
	called := false
	a := New(Config{CredentialsLocation: t.TempDir(), CredentialsCallback: func(domain, address, publicKey string) bool {
		called = true
		return publicKey == "good-key"
	}})

	resp := a.handleRequest(zapRequest("good-key"))
	if !called {
		t.Fatalf("callback should have been invoked")
	}
	if string(resp[2]) != "200" {
		t.Fatalf("expected status 200, got %s", resp[2])
	}

	resp = a.handleRequest(zapRequest("bad-key"))
	if string(resp[2]) != "400" {
		t.Fatalf("expected status 400 for rejected key, got %s", resp[2])
	}
}

func TestReconcileReloadsOnFileCountChange(t *testing.T) {
	dir := t.TempDir()
	a := New(Config{CredentialsLocation: dir})

	if err := a.Reconcile(); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if a.isAllowed("some-key") {
		t.Fatalf("no certificates loaded yet, key should be rejected")
	}

	writeCert(t, dir, "alice.cert", "some-key")

	if err := a.Reconcile(); err != nil {
		t.Fatalf("Reconcile after add: %v", err)
	}
	if !a.isAllowed("some-key") {
		t.Fatalf("key from newly added certificate should now be allowed")
	}
}

func writeCert(t *testing.T, dir, name, publicKey string) {
	t.Helper()
	content := "curve\n    public-key = \"" + publicKey + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
}

func zapRequest(publicKey string) [][]byte {
	return [][]byte{
		[]byte("1.0"),
		[]byte("1"),
		[]byte("global"),
		[]byte("127.0.0.1"),
		[]byte(""),
		[]byte("CURVE"),
		[]byte(publicKey),
	}
}
