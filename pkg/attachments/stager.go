package attachments

import (
	"fmt"

	"github.com/goliatone/go-formwizard/pkg/listing"
)

// ErrInvalidArgument is listing.ErrInvalidArgument, re-exported for callers
// that only import this package.
var ErrInvalidArgument = listing.ErrInvalidArgument

// Preview is a displayable handle for one staged attachment.
type Preview struct {
	Index       int    `json:"index"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
}

// Stager owns the live generation of previews for one wizard. It is not safe
// for concurrent use; the controller driving it is single-threaded.
type Stager struct {
	store Store
	live  []Preview
}

// NewStager binds a stager to store. A nil store gets a private MemoryStore.
func NewStager(store Store) *Stager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Stager{store: store}
}

// Store exposes the backing store so transports can serve preview payloads.
func (s *Stager) Store() Store {
	return s.store
}

// Previews returns a copy of the live generation.
func (s *Stager) Previews() []Preview {
	return append([]Preview(nil), s.live...)
}

// DerivePreviews acquires one handle per attachment, in order, and releases
// the previous generation whatever the outcome. When an acquisition fails the
// handles acquired so far are released too and no generation stays live.
func (s *Stager) DerivePreviews(items []listing.Attachment) ([]Preview, error) {
	prior := s.live
	s.live = nil
	defer s.releaseAll(prior)

	next := make([]Preview, 0, len(items))
	for i, att := range items {
		url, err := s.store.Acquire(att)
		if err != nil {
			s.releaseAll(next)
			return nil, fmt.Errorf("attachments: preview %d (%s): %w", i, att.Name, err)
		}
		next = append(next, Preview{
			Index:       i,
			URL:         url,
			Name:        att.Name,
			ContentType: att.ContentType,
			Size:        att.Size,
		})
	}

	s.live = next
	return s.Previews(), nil
}

// Release frees the live generation.
func (s *Stager) Release() {
	s.releaseAll(s.live)
	s.live = nil
}

func (s *Stager) releaseAll(previews []Preview) {
	for _, p := range previews {
		s.store.Release(p.URL)
	}
}

// Remove returns a new slice without the attachment at index, keeping the
// order of the rest. The input slice is not modified.
func Remove(items []listing.Attachment, index int) ([]listing.Attachment, error) {
	if index < 0 || index >= len(items) {
		return nil, fmt.Errorf("%w: attachment index %d out of range [0,%d)", ErrInvalidArgument, index, len(items))
	}
	out := make([]listing.Attachment, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	return out, nil
}
