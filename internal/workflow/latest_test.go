package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assinafacil/mcp-pdf-signer/internal/pdf"
)

func TestLayoutRunnerLatestWins(t *testing.T) {
	r := &layoutRunner{}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	var firstErr error
	var firstCtxErr error
	go func() {
		defer close(done)
		_, firstErr = r.run(context.Background(), func(ctx context.Context) (*pdf.PageLayoutResult, error) {
			close(started)
			<-release
			firstCtxErr = ctx.Err()
			return &pdf.PageLayoutResult{Page: 1}, nil
		})
	}()
	<-started

	// A second request while the first is still extracting takes over.
	result, err := r.run(context.Background(), func(ctx context.Context) (*pdf.PageLayoutResult, error) {
		return &pdf.PageLayoutResult{Page: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Page)

	close(release)
	<-done
	assert.ErrorIs(t, firstErr, ErrSuperseded)
	assert.ErrorIs(t, firstCtxErr, context.Canceled)
}

func TestLayoutRunnerSequentialRequests(t *testing.T) {
	r := &layoutRunner{}

	for page := 1; page <= 3; page++ {
		result, err := r.run(context.Background(), func(ctx context.Context) (*pdf.PageLayoutResult, error) {
			require.NoError(t, ctx.Err())
			return &pdf.PageLayoutResult{Page: page}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, page, result.Page)
	}
}
