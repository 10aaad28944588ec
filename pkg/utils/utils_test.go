package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewAgentID(t *testing.T) {
	a, b := NewAgentID(), NewAgentID()
	if a == b {
		t.Fatal("ids should be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("expected uuid, got %q: %v", a, err)
	}
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if !strings.HasPrefix(id, "req_") || strings.Contains(id, "-") {
		t.Fatalf("unexpected request id %q", id)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Fatalf("NormalizeEmail() = %q", got)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString(" a\x00b\tc "); got != "ab\tc" {
		t.Fatalf("SanitizeString() = %q", got)
	}
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"ada@example.com": "a**@example.com",
		"a@example.com":   "a@example.com",
		"nope":            "****",
	}
	for in, want := range tests {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
