package auth

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyring_RoundTrip(t *testing.T) {
	keyring.MockInit()

	store := NewKeyring()
	base := "http://localhost:3000/api/sunday-school"

	if _, err := store.LoadToken(base); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	if err := store.SaveToken(base, "tok-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	token, err := store.LoadToken(base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("expected tok-1, got %s", token)
	}

	if err := store.DeleteToken(base); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Deleting twice is not an error
	if err := store.DeleteToken(base); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.LoadToken(base); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKeyring_TokensArePerBackend(t *testing.T) {
	keyring.MockInit()

	store := NewKeyring()
	if err := store.SaveToken("http://a", "token-a"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveToken("http://b", "token-b"); err != nil {
		t.Fatal(err)
	}

	a, _ := store.LoadToken("http://a")
	b, _ := store.LoadToken("http://b")
	if a != "token-a" || b != "token-b" {
		t.Errorf("tokens crossed: a=%q b=%q", a, b)
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	store := NewMemory()

	if _, err := store.LoadToken("x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = store.SaveToken("x", "abc")
	if token, _ := store.LoadToken("x"); token != "abc" {
		t.Errorf("expected abc, got %q", token)
	}
	_ = store.DeleteToken("x")
	if _, err := store.LoadToken("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
