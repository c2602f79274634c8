package workflow

import (
	"fmt"
	"sync"

	"github.com/assinafacil/mcp-pdf-signer/internal/geom"
)

// Document is one PDF moving through the signing workflow. Placement is nil
// until detection or manual confirmation produces one; SignedPath is set
// only in the signed state.
type Document struct {
	ID           string          `json:"id"`
	Path         string          `json:"path"`
	Name         string          `json:"name"`
	Size         int64           `json:"size"`
	PageCount    int             `json:"page_count"`
	Status       Status          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Placement    *geom.Placement `json:"placement,omitempty"`
	SignedPath   string          `json:"signed_path,omitempty"`
}

// Summary counts documents per lifecycle state, the shape the review screen
// renders its progress bar from.
type Summary struct {
	Total      int `json:"total"`
	Waiting    int `json:"waiting"`
	Processing int `json:"processing"`
	AutoFound  int `json:"auto_found"`
	Review     int `json:"review"`
	Signed     int `json:"signed"`
	Errored    int `json:"errored"`
}

// Store holds the session's documents, preserving insertion order. All
// mutation goes through mutate so status transitions stay validated under
// one lock.
type Store struct {
	mu    sync.Mutex
	docs  map[string]*Document
	order []string
}

// NewStore creates an empty document store
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Add inserts a document. The ID must be unused.
func (s *Store) Add(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("document already exists: %s", doc.ID)
	}

	d := doc
	s.docs[doc.ID] = &d
	s.order = append(s.order, doc.ID)
	return nil
}

// Get returns a copy of the document with the given ID
func (s *Store) Get(id string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}
	return copyDocument(doc), true
}

// List returns copies of all documents in insertion order
func (s *Store) List() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyDocument(s.docs[id]))
	}
	return out
}

// Remove deletes the document with the given ID
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	delete(s.docs, id)

	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored documents
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Mutate applies fn to the stored document under the lock. An error from fn
// leaves the document unchanged only if fn itself made no changes; fn is
// expected to fail before mutating, as transition does.
func (s *Store) Mutate(id string, fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	return fn(doc)
}

// Counts summarizes documents per state
func (s *Store) Counts() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Total: len(s.docs)}
	for _, doc := range s.docs {
		switch doc.Status {
		case StatusWaiting:
			sum.Waiting++
		case StatusProcessing:
			sum.Processing++
		case StatusAutoFound:
			sum.AutoFound++
		case StatusReview:
			sum.Review++
		case StatusSigned:
			sum.Signed++
		case StatusError:
			sum.Errored++
		}
	}
	return sum
}

// copyDocument returns a deep copy so callers never share the stored
// placement pointer.
func copyDocument(doc *Document) Document {
	out := *doc
	if doc.Placement != nil {
		p := *doc.Placement
		out.Placement = &p
	}
	return out
}
