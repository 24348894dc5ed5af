package loader

import (
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/systmms/credsync/internal/logging"
	"github.com/systmms/credsync/internal/registry"
)

// keychainService is the service name credentials are filed under in the
// OS keychain (macOS Keychain, Linux Secret Service, Windows Credential
// Manager).
const keychainService = "credsync"

// KeychainSource reads candidate credentials from the OS keychain. It is
// consulted after the environment so an exported variable always wins.
type KeychainSource struct {
	logger *logging.Logger
}

// NewKeychainSource creates a keychain-backed source.
func NewKeychainSource(logger *logging.Logger) *KeychainSource {
	return &KeychainSource{logger: logger}
}

// Name identifies the source in debug logs.
func (s *KeychainSource) Name() string { return "keychain" }

// Lookup reads the provider's entry from the keychain. A missing entry
// is normal; any other keychain error (locked, no backend available) is
// logged at debug and treated as absence so a headless host degrades to
// environment-only loading.
func (s *KeychainSource) Lookup(def registry.ProviderDefinition) (string, bool) {
	value, err := keyring.Get(keychainService, def.Name)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			s.logger.Debug("Keychain lookup for %s failed: %v", def.Name, err)
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}
