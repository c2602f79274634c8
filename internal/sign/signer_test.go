package sign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assinafacil/mcp-pdf-signer/internal/geom"
	"github.com/assinafacil/mcp-pdf-signer/internal/signature"
)

func TestSignRequiresSignature(t *testing.T) {
	s := NewSigner()

	_, err := s.Sign(Request{InputPath: "in.pdf", OutputPath: "out.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature image configured")
}

func TestSignUnreadableInput(t *testing.T) {
	s := NewSigner()
	sig, err := signature.FromTypedName("Ana")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.pdf")
	_, err = s.Sign(Request{
		InputPath:  "/nonexistent/contract.pdf",
		OutputPath: out,
		Placement:  geom.DefaultReviewPlacement(1),
		PageSize:   geom.Size{Width: 612, Height: 792},
		Signature:  sig,
	})
	require.Error(t, err)

	// No partial output is left behind.
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteImageFileUsesFormatExtension(t *testing.T) {
	s := NewSigner()

	png := &signature.Signature{Data: []byte("png-bytes"), Format: "png"}
	path, cleanup, err := s.writeImageFile(png)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, ".png", filepath.Ext(path))

	jpg := &signature.Signature{Data: []byte("jpg-bytes"), Format: "jpeg"}
	path2, cleanup2, err := s.writeImageFile(jpg)
	require.NoError(t, err)
	defer cleanup2()
	assert.Equal(t, ".jpg", filepath.Ext(path2))

	data, err := os.ReadFile(path2)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpg-bytes"), data)
}
