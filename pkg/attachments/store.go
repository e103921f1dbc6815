package attachments

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/goliatone/go-formwizard/pkg/listing"
)

// DefaultPrefix is prepended to preview handles minted by MemoryStore.
const DefaultPrefix = "/previews/"

// ErrStoreClosed is returned by Acquire after Close.
var ErrStoreClosed = errors.New("attachments: store closed")

// Store mints and frees preview handles. Implementations must be safe for
// concurrent use.
type Store interface {
	Acquire(att listing.Attachment) (string, error)
	Release(url string)
	Live() int
	Lookup(url string) (listing.Attachment, bool)
}

// StoreOption configures a MemoryStore.
type StoreOption func(*MemoryStore)

// WithPrefix sets the URL prefix of minted handles.
func WithPrefix(prefix string) StoreOption {
	return func(s *MemoryStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires handles that were never released, e.g. when a session is
// abandoned. Zero keeps handles until Release.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIDFunc replaces the uuid generator, mostly for tests.
func WithIDFunc(fn func() string) StoreOption {
	return func(s *MemoryStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// MemoryStore keeps preview payloads in an in-process cache.
type MemoryStore struct {
	cache  *gocache.Cache
	prefix string
	ttl    time.Duration
	newID  func() string
	closed atomic.Bool
}

// NewMemoryStore builds a store. Without WithTTL handles never expire.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		prefix: DefaultPrefix,
		ttl:    gocache.NoExpiration,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	cleanup := time.Duration(0)
	if s.ttl > 0 {
		cleanup = s.ttl / 2
	}
	s.cache = gocache.New(s.ttl, cleanup)
	return s
}

// Acquire stores a copy of att and returns its handle.
func (s *MemoryStore) Acquire(att listing.Attachment) (string, error) {
	if s.closed.Load() {
		return "", ErrStoreClosed
	}
	url := s.prefix + s.newID()
	if err := s.cache.Add(url, listing.CloneAttachments([]listing.Attachment{att})[0], gocache.DefaultExpiration); err != nil {
		return "", fmt.Errorf("attachments: acquire %s: %w", url, err)
	}
	return url, nil
}

// Release frees url. Unknown handles are ignored.
func (s *MemoryStore) Release(url string) {
	s.cache.Delete(url)
}

// Live reports how many handles are currently held.
func (s *MemoryStore) Live() int {
	return s.cache.ItemCount()
}

// Lookup returns the attachment behind url.
func (s *MemoryStore) Lookup(url string) (listing.Attachment, bool) {
	value, found := s.cache.Get(url)
	if !found {
		return listing.Attachment{}, false
	}
	att, ok := value.(listing.Attachment)
	return att, ok
}

// Prefix returns the URL prefix handles are minted under.
func (s *MemoryStore) Prefix() string {
	return s.prefix
}

// Close drops every handle and refuses further acquisitions.
func (s *MemoryStore) Close() {
	s.closed.Store(true)
	s.cache.Flush()
}
