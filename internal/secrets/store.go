package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/csvpeek/internal/config"
)

const (
	// BackendEnvVar selects the keyring backend: auto, keychain or file.
	BackendEnvVar = "CSVPEEK_KEYRING_BACKEND"
	// PasswordEnvVar supplies the file backend password without prompting.
	PasswordEnvVar = "CSVPEEK_KEYRING_PASSWORD"

	tokenKeyPrefix = "token:"
	keyringTimeout = 5 * time.Second
)

var (
	// ErrNotFound is returned when no token is stored for a host.
	ErrNotFound = errors.New("token not found")

	errKeyringTimeout = errors.New("timed out opening keyring")

	keyringOpenFunc = keyring.Open
	envGet          = os.Getenv
)

// Token is a bearer token for one remote host.
type Token struct {
	Host      string    `json:"host"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists tokens keyed by host.
type Store interface {
	Keys() ([]string, error)
	SetToken(host string, tok Token) error
	GetToken(host string) (Token, error)
	DeleteToken(host string) error
	ListTokens() ([]Token, error)
}

// KeyringStore is a Store backed by the OS keychain or an encrypted file.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringBackendInfo records the chosen backend and where the choice came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// ResolveKeyringBackendInfo picks the backend from the environment, then the
// config file, then "auto".
func ResolveKeyringBackendInfo() (KeyringBackendInfo, error) {
	if v := strings.TrimSpace(envGet(BackendEnvVar)); v != "" {
		return normalizeBackend(KeyringBackendInfo{Value: v, Source: "env"})
	}
	cfg, err := config.ReadConfig()
	if err != nil {
		return KeyringBackendInfo{}, err
	}
	if v := strings.TrimSpace(cfg.KeyringBackend); v != "" {
		return normalizeBackend(KeyringBackendInfo{Value: v, Source: "config"})
	}
	return KeyringBackendInfo{Value: "auto", Source: "default"}, nil
}

func normalizeBackend(info KeyringBackendInfo) (KeyringBackendInfo, error) {
	info.Value = strings.ToLower(info.Value)
	switch info.Value {
	case "auto", "keychain", "file":
		return info, nil
	default:
		return info, fmt.Errorf("invalid keyring backend %q from %s (expected auto, keychain, or file)", info.Value, info.Source)
	}
}

// OpenDefault opens the store using the configured backend.
func OpenDefault() (Store, error) {
	info, err := ResolveKeyringBackendInfo()
	if err != nil {
		return nil, err
	}
	return Open(info)
}

// Open opens the store for the given backend.
func Open(info KeyringBackendInfo) (Store, error) {
	dbusAddr := envGet("DBUS_SESSION_BUS_ADDRESS")
	if shouldForceFileBackend(runtime.GOOS, info, dbusAddr) {
		info = KeyringBackendInfo{Value: "file", Source: info.Source}
	}

	cfg, err := keyringConfig(info)
	if err != nil {
		return nil, err
	}

	var ring keyring.Keyring
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(cfg, keyringTimeout)
	} else {
		ring, err = keyringOpenFunc(cfg)
	}
	if err != nil {
		return nil, wrapKeychainError(fmt.Errorf("open keyring: %w", err))
	}
	return &KeyringStore{ring: ring}, nil
}

func keyringConfig(info KeyringBackendInfo) (keyring.Config, error) {
	dir, err := config.EnsureKeyringDir()
	if err != nil {
		return keyring.Config{}, err
	}

	cfg := keyring.Config{
		ServiceName:              config.AppName,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         filePassword,
	}
	switch info.Value {
	case "file":
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	case "keychain":
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
		}
	}
	return cfg, nil
}

func filePassword(prompt string) (string, error) {
	if pw := envGet(PasswordEnvVar); pw != "" {
		return keyring.FixedStringPrompt(pw)(prompt)
	}
	return keyring.TerminalPrompt(prompt)
}

// shouldForceFileBackend reports whether auto mode must use the file backend
// because no Secret Service session bus is reachable.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout reports whether opening may hang on a D-Bus call.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr != ""
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring, err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s; the Secret Service may be locked or unresponsive.\n"+
			"Use the encrypted file backend instead:\n"+
			"  export %s=file", errKeyringTimeout, timeout, BackendEnvVar)
	}
}

func tokenKey(host string) string {
	return tokenKeyPrefix + strings.ToLower(strings.TrimSpace(host))
}

func (s *KeyringStore) Keys() ([]string, error) {
	return s.ring.Keys()
}

func (s *KeyringStore) SetToken(host string, tok Token) error {
	if strings.TrimSpace(host) == "" {
		return errors.New("host is required")
	}
	if tok.Value == "" {
		return errors.New("token is required")
	}
	tok.Host = strings.ToLower(strings.TrimSpace(host))
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	err = s.ring.Set(keyring.Item{
		Key:   tokenKey(host),
		Data:  data,
		Label: config.AppName + " token for " + tok.Host,
	})
	return wrapKeychainError(err)
}

func (s *KeyringStore) GetToken(host string) (Token, error) {
	item, err := s.ring.Get(tokenKey(host))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return Token{}, fmt.Errorf("%s: %w", host, ErrNotFound)
	}
	if err != nil {
		return Token{}, wrapKeychainError(err)
	}

	var tok Token
	if err := json.Unmarshal(item.Data, &tok); err != nil {
		return Token{}, fmt.Errorf("decode token for %s: %w", host, err)
	}
	return tok, nil
}

func (s *KeyringStore) DeleteToken(host string) error {
	// Not every backend reports missing keys on Remove.
	if _, err := s.ring.Get(tokenKey(host)); errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", host, ErrNotFound)
	}
	err := s.ring.Remove(tokenKey(host))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", host, ErrNotFound)
	}
	return wrapKeychainError(err)
}

func (s *KeyringStore) ListTokens() ([]Token, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	sort.Strings(keys)

	var tokens []Token
	for _, k := range keys {
		if !strings.HasPrefix(k, tokenKeyPrefix) {
			continue
		}
		tok, err := s.GetToken(strings.TrimPrefix(k, tokenKeyPrefix))
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// wrapKeychainError adds unlock instructions to locked-keychain errors.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	if isLockedMessage(err.Error()) {
		path := loginKeychainPath()
		if path == "" {
			path = "~/Library/Keychains/login.keychain-db"
		}
		return fmt.Errorf("%w\n\nThe login keychain is locked. Unlock it with:\n  security unlock-keychain %s", err, path)
	}
	return err
}

func isLockedMessage(s string) bool {
	return strings.Contains(s, "errSecInteractionNotAllowed") || strings.Contains(s, "-25308")
}

var _ Store = (*KeyringStore)(nil)
