package session

import "testing"

func TestAppendToken(t *testing.T) {
	tests := []struct {
		name   string
		before string
		token  string
		want   string
	}{
		{"first token", "", "Hello", "Hello"},
		{"second token", "Hello", "and", "Hello and"},
		{"empty token ignored", "Hello", "", "Hello"},
		{"whitespace token ignored", "Hello", "   ", "Hello"},
		{"token trimmed", "Hello", " and ", "Hello and"},
		{"first token trimmed", "", "  Hello  ", "Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{Transcript: tt.before}
			s.AppendToken(tt.token)
			if s.Transcript != tt.want {
				t.Errorf("transcript = %q, want %q", s.Transcript, tt.want)
			}
		})
	}
}

func TestAppendToken_NeverLeavesEdgeWhitespace(t *testing.T) {
	s := &Session{}
	for _, tok := range []string{"Hello", "", "and", "  ", "everyone"} {
		s.AppendToken(tok)
	}

	if s.Transcript != "Hello and everyone" {
		t.Errorf("transcript = %q, want %q", s.Transcript, "Hello and everyone")
	}
}
