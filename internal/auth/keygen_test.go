package auth

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey_Format(t *testing.T) {
	t.Parallel()

	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}

	if len(key) != KeyLen {
		t.Errorf("key length = %d, want %d", len(key), KeyLen)
	}

	if key != strings.ToLower(key) {
		t.Errorf("key should be lowercase hex, got: %s", key)
	}

	if !ValidateKeyFormat(key) {
		t.Errorf("generated key should pass format validation: %s", key)
	}
}

func TestGenerateAPIKey_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey failed: %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestValidateKeyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid key", "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
		{"empty", "", false},
		{"too short", "4f8d2e1b", false},
		{"too long", "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b00", false},
		{"uppercase rejected", "4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B", false},
		{"non-hex characters", "zf8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"whitespace", "4f8d2e1b9c7a5f3d 2e1b9c7a5f3d2e1", false},
		{"sql injection attempt", "' OR '1'='1' --xxxxxxxxxxxxxxxxxx", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidateKeyFormat(tt.key); got != tt.want {
				t.Errorf("ValidateKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
