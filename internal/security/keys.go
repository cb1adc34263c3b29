package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest SESSION_SECRET accepted.
const MinSecretLength = 16

var ErrWeakSecret = errors.New("session secret must be at least 16 bytes")

// CookieKeys authenticate (HashKey) and encrypt (BlockKey, AES-256) cookies.
type CookieKeys struct {
	HashKey  []byte
	BlockKey []byte
}

// DeriveKeys expands one secret into independent hash and block keys, so the
// same secret never serves as both MAC and cipher key.
func DeriveKeys(secret string) (CookieKeys, error) {
	if len(secret) < MinSecretLength {
		return CookieKeys{}, ErrWeakSecret
	}
	hashKey, err := expand(secret, "smartlocker cookie hash")
	if err != nil {
		return CookieKeys{}, err
	}
	blockKey, err := expand(secret, "smartlocker cookie block")
	if err != nil {
		return CookieKeys{}, err
	}
	return CookieKeys{HashKey: hashKey, BlockKey: blockKey}, nil
}

func expand(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

// RandomSecret returns a fresh secret for runs without SESSION_SECRET.
// Cookies signed with it do not survive a restart.
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
