package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAPIKeyFromHeader(t *testing.T) {
	if _, err := APIKeyFromHeader(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key, got %v", err)
	}
	if key, err := APIKeyFromHeader("   "); err != nil || key != "   " {
		t.Fatalf("expected whitespace key passed through, got %q err %v", key, err)
	}
	if _, err := APIKeyFromHeader("abc\xff"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("expected invalid api key, got %v", err)
	}
	if key, err := APIKeyFromHeader(" abc123 "); err != nil || key != " abc123 " {
		t.Fatalf("expected untrimmed key, got %q err %v", key, err)
	}
}

func TestVerifyRequestComparesHeaderExactly(t *testing.T) {
	v, err := NewVerifier("secret", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, sent := range []string{" secret ", "secret ", "\tsecret", "   "} {
		req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
		req.Header.Set(HeaderAPIKey, sent)
		if err := v.VerifyRequest(req); !errors.Is(err, ErrInvalidAPIKey) {
			t.Fatalf("key %q: expected invalid api key, got %v", sent, err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req.Header.Set(HeaderAPIKey, "secret")
	if err := v.VerifyRequest(req); err != nil {
		t.Fatalf("expected exact key accepted, got %v", err)
	}
}

func TestNewVerifierConfiguration(t *testing.T) {
	if _, err := NewVerifier("", ""); err == nil {
		t.Fatal("expected error when nothing is configured")
	}
	if _, err := NewVerifier("key", "$2a$04$x"); err == nil {
		t.Fatal("expected error when both are configured")
	}
	if _, err := NewVerifier("", "not-a-bcrypt-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestVerifierPlain(t *testing.T) {
	v, err := NewVerifier("s3cret-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.Verify("s3cret-key"); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
	if err := v.Verify("s3cret-kex"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("expected invalid api key, got %v", err)
	}
	if err := v.Verify("s3cret"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("expected invalid api key for prefix, got %v", err)
	}
	if err := v.Verify(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key, got %v", err)
	}
}

func TestVerifierBcrypt(t *testing.T) {
	hash, err := HashAPIKeyWithCost("hashed-key", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	v, err := NewVerifier("", hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.Verify("hashed-key"); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
	if err := v.Verify("other-key"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("expected invalid api key, got %v", err)
	}
}

func TestVerifyRequest(t *testing.T) {
	v, _ := NewVerifier("header-key", "")

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	if err := v.VerifyRequest(req); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key, got %v", err)
	}

	req.Header.Set("Authorization", "Bearer header-key")
	if err := v.VerifyRequest(req); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("bearer tokens must not be accepted, got %v", err)
	}

	req.Header.Set(HeaderAPIKey, "header-key")
	if err := v.VerifyRequest(req); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := GenerateKey()
	if a == b {
		t.Fatal("expected distinct keys")
	}
	if len(a) != 43 {
		t.Fatalf("expected 43 characters, got %d", len(a))
	}
}

func TestHashAPIKeyEmpty(t *testing.T) {
	if _, err := HashAPIKey(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key, got %v", err)
	}
}
