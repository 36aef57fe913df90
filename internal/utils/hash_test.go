package utils

import (
	"testing"
)

func TestHashString(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "generated key", input: "sk-0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"},
		{name: "seed key", input: "dev_key_123"},
		{name: "empty string", input: ""},
		{name: "unicode string", input: "chave-ção"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashString(tt.input)

			// SHA256 produces 64 hex characters
			if len(hash) != 64 {
				t.Errorf("HashString() length = %d, want 64", len(hash))
			}
			if hash != HashString(tt.input) {
				t.Errorf("HashString() not consistent for %q", tt.input)
			}
			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashString() contains non-hex character: %c", c)
					break
				}
			}
		})
	}
}

func TestHashStringKnownDigest(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashString(""); got != want {
		t.Errorf("HashString(\"\") = %s, want %s", got, want)
	}
}

func TestHashStringDistinguishesKeys(t *testing.T) {
	pairs := [][2]string{
		{"dev_key_123", "dev_key_124"},
		{"sk-abc", "SK-abc"},
		{"admin", "admin "},
	}
	for _, p := range pairs {
		if HashString(p[0]) == HashString(p[1]) {
			t.Errorf("HashString() collision for %q and %q", p[0], p[1])
		}
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "****"},
		{"dev_key_123", "****"},
		{"sk-0123456789abcdef", "sk-0...cdef"},
	}
	for _, tt := range tests {
		if got := MaskKey(tt.key); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
