package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrSerializeSecret is returned by every marshalling method on Secret.
// Serialization must fail loudly rather than silently emit the value.
var ErrSerializeSecret = errors.New("secure: refusing to serialize secret value")

// ErrSecretDestroyed is returned when a destroyed Secret is accessed.
var ErrSecretDestroyed = errors.New("secure: secret already destroyed")

// Secret holds one credential value in a memguard enclave. The plaintext
// exists outside the enclave only inside a Reveal callback, in a locked
// buffer that is wiped when the callback returns.
//
// Secret is safe for concurrent use. Copying a Secret is only allowed
// through the explicit Clone method so call sites stay auditable.
type Secret struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	length    int
	destroyed bool
}

// NewSecret wraps value in a protected container. The caller's copy of
// the backing bytes is wiped by memguard during sealing. An empty value
// gets no enclave; memguard rejects zero-length buffers.
func NewSecret(value string) *Secret {
	if value == "" {
		return &Secret{}
	}
	buf := []byte(value)
	return &Secret{
		// NewEnclave encrypts the buffer and wipes the source bytes.
		enclave: memguard.NewEnclave(buf),
		length:  len(value),
	}
}

// Len returns the length of the underlying value. Safe to log.
func (s *Secret) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.length
}

// Reveal decrypts the value and passes it to fn. The plaintext lives in
// a locked buffer that is destroyed when fn returns, on every exit path
// including a panic inside fn. Reveal must only be called at the
// transmission boundary.
func (s *Secret) Reveal(fn func(value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return ErrSecretDestroyed
	}
	if s.enclave == nil {
		return fn(nil)
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.Bytes())
}

// Clone returns an independent copy of the secret. Cloning is explicit
// so every duplication of a credential shows up in a code review.
func (s *Secret) Clone() (*Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrSecretDestroyed
	}
	if s.enclave == nil {
		return &Secret{}, nil
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return nil, err
	}
	defer locked.Destroy()

	copied := make([]byte, len(locked.Bytes()))
	copy(copied, locked.Bytes())

	return &Secret{
		enclave: memguard.NewEnclave(copied),
		length:  s.length,
	}, nil
}

// Destroy wipes the secret and prevents further use. Idempotent.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	if s.enclave != nil {
		// Open and destroy to actively wipe the plaintext copy; the
		// encrypted enclave itself is then dropped.
		if locked, err := s.enclave.Open(); err == nil {
			locked.Destroy()
		}
	}
	s.enclave = nil
	s.length = 0
	s.destroyed = true
}

// String implements fmt.Stringer and always returns a redaction marker.
func (s *Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s *Secret) GoString() string {
	return "[REDACTED]"
}

// MarshalJSON refuses to serialize the secret.
func (s *Secret) MarshalJSON() ([]byte, error) {
	return nil, ErrSerializeSecret
}

// MarshalText refuses to serialize the secret.
func (s *Secret) MarshalText() ([]byte, error) {
	return nil, ErrSerializeSecret
}

// MarshalYAML refuses to serialize the secret.
func (s *Secret) MarshalYAML() (interface{}, error) {
	return nil, ErrSerializeSecret
}
