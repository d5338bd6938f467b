package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/jwkset"
	"golang.org/x/sync/singleflight"
)

const maxJWKSBytes = 1 << 20

// DocumentCache shares the raw JWKS document between replicas.
// Get returns (nil, nil) on a miss.
type DocumentCache interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, doc []byte, ttl time.Duration) error
}

type KeySetOptions struct {
	HTTPClient *http.Client

	// RefreshInterval is how long a fetched set is considered fresh.
	RefreshInterval time.Duration

	// MinRefreshGap throttles refreshes triggered by unknown key ids and
	// retries after a failed refresh. Zero means the default; negative
	// disables throttling.
	MinRefreshGap time.Duration

	Cache  DocumentCache
	Logger *slog.Logger
}

// KeySet is the issuer's published verification keys, keyed by kid.
// It is safe for concurrent use; refreshes are collapsed into one fetch.
type KeySet struct {
	url      string
	client   *http.Client
	interval time.Duration
	minGap   time.Duration
	cache    DocumentCache
	log      *slog.Logger
	clock    func() time.Time

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	fetchedAt  time.Time
	lastForced time.Time
	failedAt   time.Time
	lastErr    error

	group singleflight.Group
}

func NewKeySet(url string, opts KeySetOptions) (*KeySet, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("jwks url is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 10 * time.Minute
	}
	switch {
	case opts.MinRefreshGap == 0:
		opts.MinRefreshGap = 15 * time.Second
	case opts.MinRefreshGap < 0:
		opts.MinRefreshGap = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &KeySet{
		url:      url,
		client:   opts.HTTPClient,
		interval: opts.RefreshInterval,
		minGap:   opts.MinRefreshGap,
		cache:    opts.Cache,
		log:      opts.Logger.With("component", "jwks"),
		clock:    time.Now,
		keys:     map[string]*rsa.PublicKey{},
	}, nil
}

// Key returns the public key for kid. An unknown kid triggers at most one
// refresh from the issuer before failing with ErrKeyNotFound.
// While the issuer is failing, fetches are retried at most once per
// MinRefreshGap and cached keys keep being served.
func (s *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if s.stale() {
		if err := s.backoff(); err != nil {
			if !s.hasKeys() {
				return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
			}
		} else if err := s.refresh(ctx, false); err != nil {
			if !s.hasKeys() {
				return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
			}
			s.log.Warn("jwks refresh failed, serving cached keys", "err", err)
		}
	}
	if k, ok := s.lookup(kid); ok {
		return k, nil
	}

	if !s.forcedAllowed() || s.backoff() != nil {
		return nil, ErrKeyNotFound
	}
	if err := s.refresh(ctx, true); err != nil {
		s.log.Warn("jwks refresh on unknown kid failed", "kid", kid, "err", err)
		if !s.hasKeys() {
			return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
		}
		return nil, ErrKeyNotFound
	}
	if k, ok := s.lookup(kid); ok {
		return k, nil
	}
	return nil, ErrKeyNotFound
}

// Refresh reloads the key set, preferring the shared cache when present.
func (s *KeySet) Refresh(ctx context.Context) error {
	return s.refresh(ctx, false)
}

// Run refreshes the key set every interval until ctx is done.
func (s *KeySet) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.refresh(ctx, false); err != nil {
				s.log.Warn("scheduled jwks refresh failed", "err", err)
			}
		}
	}
}

func (s *KeySet) lookup(kid string) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[kid]
	return k, ok
}

func (s *KeySet) hasKeys() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys) > 0
}

func (s *KeySet) stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt.IsZero() || s.clock().Sub(s.fetchedAt) >= s.interval
}

// backoff returns the last refresh error while retries are held back.
func (s *KeySet) backoff() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failedAt.IsZero() || s.clock().Sub(s.failedAt) >= s.minGap {
		return nil
	}
	return s.lastErr
}

func (s *KeySet) forcedAllowed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastForced.IsZero() || s.clock().Sub(s.lastForced) >= s.minGap
}

// refresh loads keys. Forced refreshes skip the shared cache, since a
// missing kid usually means the cached document predates a key rotation.
func (s *KeySet) refresh(ctx context.Context, force bool) error {
	flight := "scheduled"
	if force {
		flight = "forced"
	}
	_, err, _ := s.group.Do(flight, func() (any, error) {
		if force {
			s.mu.Lock()
			s.lastForced = s.clock()
			s.mu.Unlock()
		}

		var keys map[string]*rsa.PublicKey
		if !force && s.cache != nil {
			keys = s.fromCache(ctx)
		}
		fromCache := keys != nil
		var doc []byte
		if !fromCache {
			var err error
			if doc, err = s.fetch(ctx); err == nil {
				keys, err = ParseJWKS(doc)
			}
			if err != nil {
				s.mu.Lock()
				s.failedAt, s.lastErr = s.clock(), err
				s.mu.Unlock()
				return nil, err
			}
		}

		s.mu.Lock()
		s.keys = keys
		s.fetchedAt = s.clock()
		s.failedAt, s.lastErr = time.Time{}, nil
		s.mu.Unlock()

		if !fromCache && s.cache != nil {
			if err := s.cache.Set(ctx, doc, s.interval); err != nil {
				s.log.Warn("jwks shared cache write failed", "err", err)
			}
		}
		s.log.Debug("jwks refreshed", "keys", len(keys), "from_cache", fromCache)
		return nil, nil
	})
	return err
}

func (s *KeySet) fromCache(ctx context.Context) map[string]*rsa.PublicKey {
	doc, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("jwks shared cache read failed", "err", err)
		return nil
	}
	if doc == nil {
		return nil
	}
	keys, err := ParseJWKS(doc)
	if err != nil {
		s.log.Warn("jwks shared cache holds an unusable document", "err", err)
		return nil
	}
	return keys
}

func (s *KeySet) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}
	doc, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("read jwks: %w", err)
	}
	return doc, nil
}

// ParseJWKS extracts the RSA signing keys of a JWKS document.
// Keys of other types or uses are skipped; a malformed RSA signing key
// fails the whole document.
func ParseJWKS(doc []byte) (map[string]*rsa.PublicKey, error) {
	var set jwkset.JWKSMarshal
	if err := json.Unmarshal(doc, &set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	out := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, m := range set.Keys {
		if m.KTY != jwkset.KtyRSA || m.KID == "" {
			continue
		}
		if m.USE != "" && m.USE != jwkset.UseSig {
			continue
		}
		k, err := jwkset.NewJWKFromMarshal(m, jwkset.JWKMarshalOptions{}, jwkset.JWKValidateOptions{})
		if err != nil {
			return nil, fmt.Errorf("jwks key %q: %w", m.KID, err)
		}
		pub, ok := k.Key().(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("jwks key %q: unexpected key type %T", m.KID, k.Key())
		}
		out[m.KID] = pub
	}
	if len(out) == 0 {
		return nil, errors.New("jwks has no usable signing keys")
	}
	return out, nil
}
