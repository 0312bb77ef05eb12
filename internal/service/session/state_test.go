package session

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateActive, "ACTIVE"},
		{StateFinal, "FINAL"},
		{StateEvicted, "EVICTED"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	if StateActive.IsTerminal() {
		t.Error("ACTIVE must not be terminal")
	}
	if StateFinal.IsTerminal() {
		t.Error("FINAL must not be terminal, chunks may still arrive until eviction")
	}
	if !StateEvicted.IsTerminal() {
		t.Error("EVICTED must be terminal")
	}
}
