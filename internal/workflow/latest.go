package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/assinafacil/mcp-pdf-signer/internal/pdf"
)

// ErrSuperseded reports that a newer request replaced this one before its
// result was delivered. Callers drop the result and wait for the newer one.
var ErrSuperseded = errors.New("superseded by a newer request")

// layoutRunner serializes page-layout extraction for one document. Each new
// request cancels the in-flight one and bumps the generation; a request that
// finishes after being superseded has its result discarded, so the page the
// caller asked for last is always the page they get.
type layoutRunner struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (r *layoutRunner) run(ctx context.Context,
	fn func(context.Context) (*pdf.PageLayoutResult, error),
) (*pdf.PageLayoutResult, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	result, err := fn(runCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return nil, ErrSuperseded
	}
	cancel()
	r.cancel = nil
	return result, err
}
