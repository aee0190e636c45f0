package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const keyringService = "notifykit"

// OpenKeyring opens the operating system keyring, falling back to an
// encrypted file under dir protected by password.
func OpenKeyring(dir, password string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt(password),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// KeyringStore keeps the context, token included, in a keyring item.
type KeyringStore struct {
	ring keyring.Keyring
	key  string
}

// NewKeyringStore creates a store backed by ring.
func NewKeyringStore(ring keyring.Keyring, key string) *KeyringStore {
	if key == "" {
		key = DefaultKey
	}
	return &KeyringStore{ring: ring, key: key}
}

func (s *KeyringStore) Load(ctx context.Context) (Context, error) {
	item, err := s.ring.Get(s.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return Context{}, ErrNotFound
	}
	if err != nil {
		return Context{}, errors.Join(ErrStore, err)
	}

	var c Context
	if err := json.Unmarshal(item.Data, &c); err != nil {
		return Context{}, errors.Join(ErrDecode, err)
	}
	return c, nil
}

func (s *KeyringStore) Save(ctx context.Context, c Context) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	err = s.ring.Set(keyring.Item{
		Key:         s.key,
		Data:        raw,
		Label:       "notifykit session",
		Description: "notification session context for " + c.Email,
	})
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (s *KeyringStore) Delete(ctx context.Context) error {
	if err := s.ring.Remove(s.key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return errors.Join(ErrStore, err)
	}
	return nil
}
