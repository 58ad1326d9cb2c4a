package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecretStringRedactsInFmt(t *testing.T) {
	s := SecretString("AIzaSy-super-secret")
	out := fmt.Sprintf("key=%s", s)
	if strings.Contains(out, "super-secret") {
		t.Errorf("secret leaked through fmt: %q", out)
	}
	if !strings.Contains(out, redactedPlaceholder) {
		t.Errorf("expected redacted placeholder, got %q", out)
	}
}

func TestSecretStringRedactsInJSON(t *testing.T) {
	payload := struct {
		APIKey SecretString `json:"api_key"`
	}{APIKey: "AIzaSy-super-secret"}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Errorf("secret leaked through JSON: %s", data)
	}
}

func TestSecretStringUnmask(t *testing.T) {
	s := SecretString("raw-value")
	if s.Unmask() != "raw-value" {
		t.Errorf("Unmask() = %q, want %q", s.Unmask(), "raw-value")
	}
}
