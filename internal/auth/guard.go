package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nf_gateway/internal/logging"
)

const (
	keyPrefix = "sk-"
	keyBytes  = 32

	// maxIssueAttempts bounds regeneration on the (astronomically unlikely)
	// collision with an existing key.
	maxIssueAttempts = 5
)

// GenerateKey returns a fresh credential: "sk-" followed by 256 random bits
// in hex.
func GenerateKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return keyPrefix + hex.EncodeToString(buf), nil
}

// Guard classifies credentials and manages ordinary keys. The administrative
// key is fixed at construction and never enters the store.
type Guard struct {
	adminKey string
	store    KeyStore
	generate func() (string, error)
	now      func() time.Time
}

// NewGuard creates a guard over store with the given administrative key
func NewGuard(adminKey string, store KeyStore) *Guard {
	return &Guard{
		adminKey: adminKey,
		store:    store,
		generate: GenerateKey,
		now:      time.Now,
	}
}

// Authenticate classifies key. Unknown and empty keys yield ErrForbidden;
// store failures are returned wrapped.
func (g *Guard) Authenticate(ctx context.Context, key string) (*Principal, error) {
	if key == "" {
		return nil, ErrForbidden
	}
	if g.adminKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(g.adminKey)) == 1 {
		return &Principal{Privilege: Administrative}, nil
	}

	rec, err := g.store.Lookup(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("validating API key: %w", err)
	}
	return &Principal{Privilege: Ordinary, Owner: rec.Owner, KeyID: rec.ID}, nil
}

// RequireAdmin returns ErrForbidden unless p holds the administrative key
func (g *Guard) RequireAdmin(p *Principal) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// IssueKey creates a new ordinary key for owner. Only administrative callers
// may issue keys. The plaintext key is returned once and not stored.
func (g *Guard) IssueKey(ctx context.Context, p *Principal, owner string) (string, *KeyRecord, error) {
	if err := g.RequireAdmin(p); err != nil {
		return "", nil, err
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", nil, ErrInvalidOwner
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		key, err := g.generate()
		if err != nil {
			return "", nil, err
		}
		if key == g.adminKey {
			continue
		}

		rec := &KeyRecord{ID: uuid.NewString(), Owner: owner, CreatedAt: g.now().UTC()}
		err = g.store.Insert(ctx, key, rec)
		if errors.Is(err, ErrKeyExists) {
			logging.Warningf("Generated API key collided with an existing key, regenerating")
			continue
		}
		if err != nil {
			return "", nil, err
		}

		logging.Infof("Issued API key %s for owner %q", rec.ID, owner)
		return key, rec, nil
	}
	return "", nil, fmt.Errorf("failed to generate a unique API key after %d attempts", maxIssueAttempts)
}

// ListKeys returns the stored key records. Plaintext keys are never listed.
func (g *Guard) ListKeys(ctx context.Context, p *Principal) ([]*KeyRecord, error) {
	if err := g.RequireAdmin(p); err != nil {
		return nil, err
	}
	return g.store.List(ctx)
}

// Seed inserts configured key -> owner pairs. Keys already present, for
// example in a persistent store after a restart, are left as they are.
func (g *Guard) Seed(ctx context.Context, keys map[string]string) error {
	for key, owner := range keys {
		if key == g.adminKey {
			return fmt.Errorf("seed key for %q reuses the administrative key", owner)
		}
		rec := &KeyRecord{ID: uuid.NewString(), Owner: owner, CreatedAt: g.now().UTC()}
		err := g.store.Insert(ctx, key, rec)
		if errors.Is(err, ErrKeyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding key for %q: %w", owner, err)
		}
	}
	return nil
}
