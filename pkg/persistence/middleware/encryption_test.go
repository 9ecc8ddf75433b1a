package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/persistence/middleware"
	"github.com/aretw0/panelstate/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, mw(NewMockStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	id := "test-panel"
	original := domain.NewMap().Set("secret", domain.FromString("my-secret-sauce"))

	if err := secureStore.Save(ctx, id, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The underlying store only ever sees the envelope.
	stored, err := underlyingStore.Load(ctx, id)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Has("secret") {
		t.Fatalf("Expected secret to be hidden, found: %v", stored.Get("secret").Value())
	}
	if !stored.Has(middleware.EnvelopeKey) {
		t.Fatal("Expected envelope key in stored tree")
	}

	loaded, err := secureStore.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if got := loaded.Get("secret").String; got != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", got)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	id := "rotation-panel"
	if err := secureStoreOld.Save(ctx, id, domain.NewMap().Set("data", domain.FromString("old"))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Get("data").String != "old" {
		t.Errorf("Decryption with fallback key failed")
	}

	loaded.Set("data", domain.FromString("new"))
	if err := secureStoreNew.Save(ctx, id, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, id); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "plain", domain.NewMap().Set("a", domain.FromInt(1))); err != nil {
		t.Fatal(err)
	}

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err == nil {
		t.Error("Expected plain state to be rejected")
	}
	if _, err := secureStore.GetStateSnapshot(ctx); err == nil {
		t.Error("Expected snapshot with a plain state to fail")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
