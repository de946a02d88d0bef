package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// HeaderAPIKey carries the shared secret on write requests.
const HeaderAPIKey = "X-API-Key"

const (
	// BcryptCost is the work factor used by HashAPIKey (12 = ~300ms per hash)
	BcryptCost = 12

	// keyBytes is the entropy of generated keys (256 bits)
	keyBytes = 32
)

var (
	ErrMissingAPIKey = errors.New("missing api key")
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// Verifier checks presented keys against a single configured secret, stored
// either in plain text or as a bcrypt hash.
type Verifier struct {
	plain []byte
	hash  []byte
}

// NewVerifier builds a verifier. Exactly one of plainKey or bcryptHash must be
// non-empty.
func NewVerifier(plainKey, bcryptHash string) (*Verifier, error) {
	switch {
	case plainKey != "" && bcryptHash != "":
		return nil, errors.New("api key and api key hash are mutually exclusive")
	case plainKey != "":
		return &Verifier{plain: []byte(plainKey)}, nil
	case bcryptHash != "":
		if _, err := bcrypt.Cost([]byte(bcryptHash)); err != nil {
			return nil, fmt.Errorf("parse api key hash: %w", err)
		}
		return &Verifier{hash: []byte(bcryptHash)}, nil
	default:
		return nil, errors.New("api key is not configured")
	}
}

// Verify returns ErrMissingAPIKey for an empty key and ErrInvalidAPIKey for
// any mismatch.
func (v *Verifier) Verify(presented string) error {
	if presented == "" {
		return ErrMissingAPIKey
	}
	if v == nil {
		return ErrInvalidAPIKey
	}
	if v.hash != nil {
		if err := bcrypt.CompareHashAndPassword(v.hash, []byte(presented)); err != nil {
			return ErrInvalidAPIKey
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(presented), v.plain) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}

// VerifyRequest extracts the key from r and verifies it.
func (v *Verifier) VerifyRequest(r *http.Request) error {
	key, err := APIKeyFromRequest(r)
	if err != nil {
		return err
	}
	return v.Verify(key)
}

func APIKeyFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrMissingAPIKey
	}
	return APIKeyFromHeader(r.Header.Get(HeaderAPIKey))
}

// APIKeyFromHeader returns the header value as sent. Surrounding whitespace is
// part of the key and will fail verification.
func APIKeyFromHeader(value string) (string, error) {
	if value == "" {
		return "", ErrMissingAPIKey
	}
	if !utf8.ValidString(value) {
		return "", ErrInvalidAPIKey
	}
	return value, nil
}

// GenerateKey returns a new random URL-safe key.
func GenerateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashAPIKey generates a bcrypt hash suitable for API_KEY_HASH.
func HashAPIKey(key string) (string, error) {
	return HashAPIKeyWithCost(key, BcryptCost)
}

func HashAPIKeyWithCost(key string, cost int) (string, error) {
	if key == "" {
		return "", ErrMissingAPIKey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}
