package keystore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/D-Rayno/g-agency-admin-go/internal/errs"
)

// Key derivation params.
const (
	saltLen = 16
	keyLen  = 32

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// File is a Store persisted as a single encrypted file. The whole key-value
// map is sealed with XChaCha20-Poly1305 under an Argon2id-derived key; the
// file layout is salt || nonce || ciphertext.
type File struct {
	mu   sync.Mutex
	path string
	pass []byte
}

// NewFile opens (or lazily creates) an encrypted store at path.
func NewFile(path, passphrase string) *File {
	return &File{path: path, pass: []byte(passphrase)}
}

// DefaultPath returns the store location under the user's config dir,
// honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gadmin", "keystore.bin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gadmin", "keystore.bin")
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := kv[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.load()
	if err != nil {
		return err
	}
	kv[key] = value
	return f.save(kv)
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, err := f.load()
	if err != nil {
		return err
	}
	delete(kv, key)
	return f.save(kv)
}

func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) < saltLen+chacha20poly1305.NonceSizeX {
		return nil, errors.New("keystore file truncated")
	}
	salt := raw[:saltLen]
	nonce := raw[saltLen : saltLen+chacha20poly1305.NonceSizeX]
	ct := raw[saltLen+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(f.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	var kv map[string]string
	if err := json.Unmarshal(plain, &kv); err != nil {
		return nil, err
	}
	return kv, nil
}

func (f *File) save(kv map[string]string) error {
	plain, err := json.Marshal(kv)
	if err != nil {
		return err
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(f.deriveKey(salt))
	if err != nil {
		return err
	}
	out := make([]byte, 0, saltLen+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plain, nil)...)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, out, 0o600)
}

func (f *File) deriveKey(salt []byte) []byte {
	return argon2.IDKey(f.pass, salt, argonTime, argonMemory, argonThreads, keyLen)
}
