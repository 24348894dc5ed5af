package secure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
)

func TestSecretRevealRoundtrip(t *testing.T) {
	t.Parallel()

	value := "sk-ant-REDACTED"
	s := NewSecret(value)
	defer s.Destroy()

	var got []byte
	err := s.Reveal(func(v []byte) error {
		got = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}
	if !bytes.Equal(got, []byte(value)) {
		t.Errorf("Reveal() yielded %d bytes, want the original value", len(got))
	}
}

func TestSecretLen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "ordinary key", value: "sk-ant-0123456789"},
		{name: "empty value", value: ""},
		{name: "single char", value: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSecret(tt.value)
			defer s.Destroy()

			if got := s.Len(); got != len(tt.value) {
				t.Errorf("Len() = %d, want %d", got, len(tt.value))
			}
		})
	}
}

func TestSecretFormattingNeverLeaks(t *testing.T) {
	t.Parallel()

	value := "sk-ant-REDACTED"
	s := NewSecret(value)
	defer s.Destroy()

	rendered := []string{
		fmt.Sprintf("%v", s),
		fmt.Sprintf("%s", s),
		fmt.Sprintf("%#v", s),
		fmt.Sprintf("%+v", s),
		s.String(),
	}

	for _, r := range rendered {
		if bytes.Contains([]byte(r), []byte(value)) {
			t.Errorf("formatted output contains the secret value: %q", r)
		}
		if !bytes.Contains([]byte(r), []byte("[REDACTED]")) {
			t.Errorf("formatted output missing redaction marker: %q", r)
		}
	}
}

func TestSecretMarshalFails(t *testing.T) {
	t.Parallel()

	s := NewSecret("sk-ant-serialize-attempt")
	defer s.Destroy()

	if _, err := json.Marshal(s); err == nil {
		t.Error("json.Marshal(secret) succeeded, want error")
	}
	if _, err := s.MarshalText(); err == nil {
		t.Error("MarshalText() succeeded, want error")
	}
	if _, err := s.MarshalYAML(); err == nil {
		t.Error("MarshalYAML() succeeded, want error")
	}

	// Marshalling a struct holding a secret must fail too, not emit it.
	wrapper := struct {
		Key *Secret `json:"key"`
	}{Key: s}
	if _, err := json.Marshal(wrapper); err == nil {
		t.Error("json.Marshal(struct{secret}) succeeded, want error")
	}
}

func TestSecretClone(t *testing.T) {
	t.Parallel()

	value := "sk-ant-clone-0123456789"
	s := NewSecret(value)

	clone, err := s.Clone()
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	defer clone.Destroy()

	// The clone survives destruction of the original.
	s.Destroy()

	var got []byte
	err = clone.Reveal(func(v []byte) error {
		got = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		t.Fatalf("Reveal() on clone error = %v", err)
	}
	if !bytes.Equal(got, []byte(value)) {
		t.Error("clone does not hold the original value")
	}
}

func TestSecretDestroy(t *testing.T) {
	t.Parallel()

	s := NewSecret("sk-ant-destroy-0123456789")
	s.Destroy()

	// Idempotent.
	s.Destroy()

	if got := s.Len(); got != 0 {
		t.Errorf("Len() after destroy = %d, want 0", got)
	}

	err := s.Reveal(func([]byte) error { return nil })
	if err != ErrSecretDestroyed {
		t.Errorf("Reveal() after destroy = %v, want ErrSecretDestroyed", err)
	}

	if _, err := s.Clone(); err != ErrSecretDestroyed {
		t.Errorf("Clone() after destroy = %v, want ErrSecretDestroyed", err)
	}
}

func TestSecretRevealWipesOnPanic(t *testing.T) {
	t.Parallel()

	s := NewSecret("sk-ant-panic-0123456789")
	defer s.Destroy()

	func() {
		defer func() { _ = recover() }()
		_ = s.Reveal(func([]byte) error {
			panic("boom")
		})
	}()

	// The secret is still usable after a panicking callback.
	err := s.Reveal(func([]byte) error { return nil })
	if err != nil {
		t.Errorf("Reveal() after panicking callback error = %v", err)
	}
}
