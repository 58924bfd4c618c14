package mdp

import (
	"reflect"
	"testing"
)

func TestPopStr(t *testing.T) {
	head, rest := popStr([]string{"a", "b", "c"})
	if head != "a" || !reflect.DeepEqual(rest, []string{"b", "c"}) {
		t.Fatalf("unexpected pop result: %q %v", head, rest)
	}

	head, rest = popStr(nil)
	if head != "" || len(rest) != 0 {
		t.Fatalf("pop of empty message should be a no-op, got %q %v", head, rest)
	}
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	body := []string{"hello", "world"}
	wrapped := wrap("client-1", body)

	address, rest := unwrap(wrapped)
	if address != "client-1" {
		t.Fatalf("expected address %q, got %q", "client-1", address)
	}
	if !reflect.DeepEqual(rest, body) {
		t.Fatalf("expected body %v, got %v", body, rest)
	}
}

func TestUnwrapWithoutDelimiter(t *testing.T) {
	// unwrap must tolerate a missing empty delimiter rather than eating the
	// first real frame of the body.
	address, rest := unwrap([]string{"client-1", "payload"})
	if address != "client-1" || !reflect.DeepEqual(rest, []string{"payload"}) {
		t.Fatalf("unexpected unwrap result: %q %v", address, rest)
	}
}

func TestFramesRoundTrip(t *testing.T) {
	strs := []string{"", "IDPC01", "echo", "hello"}
	frames := toFrames(strs)
	if len(frames) != len(strs) {
		t.Fatalf("expected %d frames, got %d", len(strs), len(frames))
	}
	back := toStrings(frames)
	if !reflect.DeepEqual(back, strs) {
		t.Fatalf("round trip mismatch: %v != %v", back, strs)
	}
}
