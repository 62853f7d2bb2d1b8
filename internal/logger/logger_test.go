package logger

import "testing"

func TestSanitizeRedactsSecrets(t *testing.T) {
	got := sanitize([]any{"api_key", "abc", "idea_id", "i1", "Authorization", "Bearer x", "dangling"})

	want := []any{"api_key", "[REDACTED]", "idea_id", "i1", "Authorization", "[REDACTED]", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "token", "secret")
	l.Sync()
}
