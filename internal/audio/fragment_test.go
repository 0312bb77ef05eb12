package audio

import (
	"bytes"
	"testing"
)

func TestNormalize_Raw(t *testing.T) {
	chunk := Raw{1, 2, 3}

	got := Normalize(chunk)

	if len(got) != 3 {
		t.Fatalf("expected 3 bytes, got %d", len(got))
	}
	// The view must alias the original storage, not copy it.
	got[0] = 42
	if chunk[0] != 42 {
		t.Error("expected normalized view to alias the fragment storage")
	}
}

func TestNormalize_BytesBuffer(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{10, 20, 30, 40})

	got := Normalize(&buf)

	if len(got) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(got))
	}
	if got[3] != 40 {
		t.Errorf("expected byte 40 at index 3, got %d", got[3])
	}
}

func TestNormalize_Nil(t *testing.T) {
	if got := Normalize(nil); got != nil {
		t.Errorf("expected nil view for nil fragment, got %v", got)
	}
}

func TestNormalize_Empty(t *testing.T) {
	got := Normalize(Raw{})

	if len(got) != 0 {
		t.Errorf("expected empty view, got %d bytes", len(got))
	}
}
