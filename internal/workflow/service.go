// Package workflow drives documents through the signing lifecycle: register,
// detect a signature anchor, confirm or adjust the placement, sign, export.
// Detection runs concurrently per document with results merged only after
// every document resolves; signing is sequential and isolates failures per
// document so one bad file never aborts the batch.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/assinafacil/mcp-pdf-signer/internal/anchor"
	"github.com/assinafacil/mcp-pdf-signer/internal/export"
	"github.com/assinafacil/mcp-pdf-signer/internal/geom"
	"github.com/assinafacil/mcp-pdf-signer/internal/pdf"
	"github.com/assinafacil/mcp-pdf-signer/internal/quota"
	"github.com/assinafacil/mcp-pdf-signer/internal/sign"
	"github.com/assinafacil/mcp-pdf-signer/internal/signature"
)

// DocumentSource supplies document facts, positioned text and page geometry
type DocumentSource interface {
	DocumentInfo(path string) (*pdf.DocumentInfo, error)
	ExtractDocument(path string, maxPages int) (anchor.Document, error)
	PageLayout(path string, pageNum int) (*pdf.PageLayoutResult, error)
	PageSize(path string, pageIndex int) (geom.Size, error)
}

// DocumentSigner stamps a signature image onto a PDF
type DocumentSigner interface {
	Sign(req sign.Request) (*sign.Result, error)
}

// Service is the signing workflow over a session's documents
type Service struct {
	source   DocumentSource
	detector *anchor.Detector
	signer   DocumentSigner
	gate     *quota.Gate
	store    *Store
	maxPages int

	mu      sync.Mutex
	sig     *signature.Signature
	runners map[string]*layoutRunner
}

// NewService creates a workflow service. maxPages bounds the detection scan
// per document.
func NewService(source DocumentSource, signer DocumentSigner, detector *anchor.Detector,
	gate *quota.Gate, maxPages int,
) *Service {
	if maxPages <= 0 {
		maxPages = anchor.DefaultMaxPages
	}
	return &Service{
		source:   source,
		detector: detector,
		signer:   signer,
		gate:     gate,
		store:    NewStore(),
		maxPages: maxPages,
		runners:  make(map[string]*layoutRunner),
	}
}

// AddDocument validates and registers a PDF, starting it in the waiting
// state.
func (s *Service) AddDocument(path string) (Document, error) {
	info, err := s.source.DocumentInfo(path)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:        uuid.NewString(),
		Path:      info.Path,
		Name:      info.Name,
		Size:      info.Size,
		PageCount: info.PageCount,
		Status:    StatusWaiting,
	}
	if err := s.store.Add(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RemoveDocument drops a document from the session. The signed artifact, if
// any, stays on disk.
func (s *Service) RemoveDocument(id string) error {
	s.mu.Lock()
	delete(s.runners, id)
	s.mu.Unlock()
	return s.store.Remove(id)
}

// Documents returns all session documents in insertion order
func (s *Service) Documents() []Document {
	return s.store.List()
}

// Document returns the document with the given ID
func (s *Service) Document(id string) (Document, error) {
	doc, ok := s.store.Get(id)
	if !ok {
		return Document{}, fmt.Errorf("document not found: %s", id)
	}
	return doc, nil
}

// Counts summarizes the session per lifecycle state
func (s *Service) Counts() Summary {
	return s.store.Counts()
}

// SetSignature stores the signature image used by subsequent signing
func (s *Service) SetSignature(sig *signature.Signature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sig = sig
}

// Signature returns the configured signature image, or nil
func (s *Service) Signature() *signature.Signature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sig
}

// DetectAll runs anchor detection over every document that is not already
// signed or errored. Documents run concurrently; results are merged into the
// store only after all of them resolve, so a batch never surfaces half done.
// A document whose text cannot be extracted or yields no anchor fails closed
// into the review state with the default placement.
func (s *Service) DetectAll(ctx context.Context) (Summary, error) {
	var batch []Document
	for _, doc := range s.store.List() {
		switch doc.Status {
		case StatusWaiting, StatusAutoFound, StatusReview:
			batch = append(batch, doc)
		}
	}
	if len(batch) == 0 {
		return s.store.Counts(), nil
	}

	for _, doc := range batch {
		if err := s.store.Mutate(doc.ID, func(d *Document) error {
			return d.transition(StatusProcessing)
		}); err != nil {
			return s.store.Counts(), err
		}
	}

	type outcome struct {
		placement geom.Placement
		found     bool
	}
	outcomes := make([]outcome, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			placement, found := s.detect(doc.Path, doc.PageCount)
			outcomes[i] = outcome{placement: placement, found: found}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Cancelled mid-batch: nothing was merged, park the whole batch in
		// review so no document is stranded in processing.
		for _, doc := range batch {
			placement := geom.DefaultReviewPlacement(doc.PageCount)
			_ = s.store.Mutate(doc.ID, func(d *Document) error {
				d.Placement = &placement
				return d.transition(StatusReview)
			})
		}
		return s.store.Counts(), err
	}

	for i, doc := range batch {
		out := outcomes[i]
		status := StatusReview
		if out.found {
			status = StatusAutoFound
		}
		if err := s.store.Mutate(doc.ID, func(d *Document) error {
			placement := out.placement
			d.Placement = &placement
			return d.transition(status)
		}); err != nil {
			return s.store.Counts(), err
		}
	}

	return s.store.Counts(), nil
}

// DetectDocument runs anchor detection for a single document
func (s *Service) DetectDocument(ctx context.Context, id string) (Document, error) {
	doc, err := s.Document(id)
	if err != nil {
		return Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	if err := s.store.Mutate(id, func(d *Document) error {
		return d.transition(StatusProcessing)
	}); err != nil {
		return Document{}, err
	}

	placement, found := s.detect(doc.Path, doc.PageCount)
	status := StatusReview
	if found {
		status = StatusAutoFound
	}
	if err := s.store.Mutate(id, func(d *Document) error {
		p := placement
		d.Placement = &p
		return d.transition(status)
	}); err != nil {
		return Document{}, err
	}
	return s.Document(id)
}

// detect extracts the document's text and derives a placement from the best
// anchor. Extraction failure and no-match both fall back to the review
// placement; the caller distinguishes the two states only by found.
func (s *Service) detect(path string, pageCount int) (geom.Placement, bool) {
	doc, err := s.source.ExtractDocument(path, s.maxPages)
	if err != nil {
		return geom.DefaultReviewPlacement(pageCount), false
	}

	best := s.detector.FindBest(doc)
	if best == nil {
		return geom.DefaultReviewPlacement(pageCount), false
	}

	page := doc.Pages[best.PageIndex]
	viewport := geom.Size{Width: page.Width, Height: page.Height}
	return geom.PlacementForAnchor(best.PageIndex, best.X, best.Y, viewport), true
}

// Candidates returns every scored anchor candidate for a document, ranked
// best first, for clients that show alternatives instead of taking the top
// match.
func (s *Service) Candidates(id string) ([]anchor.Match, error) {
	doc, err := s.Document(id)
	if err != nil {
		return nil, err
	}

	extracted, err := s.source.ExtractDocument(doc.Path, s.maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	return s.detector.FindAll(extracted), nil
}

// SetPlacement records a manually confirmed or adjusted placement. The
// document moves to auto-found, ready to sign; a previously signed artifact
// is invalidated and removed because it no longer reflects the placement.
func (s *Service) SetPlacement(id string, placement geom.Placement) (Document, error) {
	doc, err := s.Document(id)
	if err != nil {
		return Document{}, err
	}

	if placement.PageIndex < 0 || placement.PageIndex >= doc.PageCount {
		return Document{}, fmt.Errorf("page index %d out of range (document has %d pages)",
			placement.PageIndex, doc.PageCount)
	}
	if placement.ViewportSize.Width <= 0 || placement.ViewportSize.Height <= 0 {
		return Document{}, fmt.Errorf("placement viewport must have positive dimensions")
	}

	err = s.store.Mutate(id, func(d *Document) error {
		if err := d.transition(StatusAutoFound); err != nil {
			return err
		}
		if d.SignedPath != "" {
			os.Remove(d.SignedPath)
			d.SignedPath = ""
		}
		p := placement
		d.Placement = &p
		d.ErrorMessage = ""
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return s.Document(id)
}

// SignAll signs every document that has a placement and is not already
// signed or errored. The whole batch is checked against the quota up front;
// individual failures mark only their document as errored and the rest of
// the batch continues.
func (s *Service) SignAll(ctx context.Context) (Summary, error) {
	sig := s.Signature()
	if sig == nil {
		return s.store.Counts(), fmt.Errorf("no signature configured")
	}

	var batch []Document
	for _, doc := range s.store.List() {
		if doc.Placement == nil {
			continue
		}
		switch doc.Status {
		case StatusAutoFound, StatusReview:
			batch = append(batch, doc)
		}
	}
	if len(batch) == 0 {
		return s.store.Counts(), fmt.Errorf("no documents ready to sign")
	}

	if err := s.gate.Check(len(batch)); err != nil {
		return s.store.Counts(), err
	}

	for _, doc := range batch {
		if err := ctx.Err(); err != nil {
			return s.store.Counts(), err
		}
		s.signOne(doc, sig)
	}
	return s.store.Counts(), nil
}

// SignDocument signs a single document with a confirmed placement
func (s *Service) SignDocument(ctx context.Context, id string) (Document, error) {
	sig := s.Signature()
	if sig == nil {
		return Document{}, fmt.Errorf("no signature configured")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	doc, err := s.Document(id)
	if err != nil {
		return Document{}, err
	}
	if doc.Placement == nil {
		return Document{}, fmt.Errorf("document %s has no placement", id)
	}
	if doc.Status != StatusAutoFound && doc.Status != StatusReview {
		return Document{}, fmt.Errorf("document %s is not ready to sign (status %s)", id, doc.Status)
	}

	if err := s.gate.Check(1); err != nil {
		return Document{}, err
	}

	s.signOne(doc, sig)
	return s.Document(id)
}

// signOne signs a single document and records the outcome in the store.
// Failures land in the error state with a message; they never propagate.
func (s *Service) signOne(doc Document, sig *signature.Signature) {
	if err := s.store.Mutate(doc.ID, func(d *Document) error {
		return d.transition(StatusProcessing)
	}); err != nil {
		return
	}

	result, err := s.stamp(doc, sig)
	if err != nil {
		_ = s.store.Mutate(doc.ID, func(d *Document) error {
			d.ErrorMessage = err.Error()
			return d.transition(StatusError)
		})
		return
	}

	_ = s.store.Mutate(doc.ID, func(d *Document) error {
		d.SignedPath = result.OutputPath
		d.ErrorMessage = ""
		return d.transition(StatusSigned)
	})
	_ = s.gate.Consume(1)
}

func (s *Service) stamp(doc Document, sig *signature.Signature) (*sign.Result, error) {
	pageSize, err := s.source.PageSize(doc.Path, doc.Placement.PageIndex)
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(filepath.Dir(doc.Path), export.SignedName(doc.Name))
	return s.signer.Sign(sign.Request{
		InputPath:  doc.Path,
		OutputPath: outputPath,
		Placement:  *doc.Placement,
		PageSize:   pageSize,
		Signature:  sig,
	})
}

// ExportArchive packs every signed document into a single ZIP at outputPath
func (s *Service) ExportArchive(outputPath string) (int, error) {
	var entries []export.Entry
	for _, doc := range s.store.List() {
		if doc.Status == StatusSigned && doc.SignedPath != "" {
			entries = append(entries, export.Entry{Name: doc.Name, Path: doc.SignedPath})
		}
	}

	if err := export.CreateArchive(entries, outputPath); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// PageLayout returns the positioned text of one page for manual placement.
// Requests are latest-wins per document: a request issued while an earlier
// one is still extracting supersedes it, and the superseded call returns
// ErrSuperseded instead of a stale page.
func (s *Service) PageLayout(ctx context.Context, id string, pageNum int) (*pdf.PageLayoutResult, error) {
	doc, err := s.Document(id)
	if err != nil {
		return nil, err
	}
	if pageNum < 1 || pageNum > doc.PageCount {
		return nil, fmt.Errorf("invalid page number %d (document has %d pages)", pageNum, doc.PageCount)
	}

	runner := s.runnerFor(id)
	return runner.run(ctx, func(runCtx context.Context) (*pdf.PageLayoutResult, error) {
		if err := runCtx.Err(); err != nil {
			return nil, err
		}
		return s.source.PageLayout(doc.Path, pageNum)
	})
}

func (s *Service) runnerFor(id string) *layoutRunner {
	s.mu.Lock()
	defer s.mu.Unlock()

	runner, ok := s.runners[id]
	if !ok {
		runner = &layoutRunner{}
		s.runners[id] = runner
	}
	return runner
}
