package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServerIntegration(t *testing.T) {
	server, wf, cfg := newTestServer(t)

	// Create test PDF files in the workspace
	testFiles := []string{"doc1.pdf", "doc2.pdf"}
	for _, filename := range testFiles {
		filePath := filepath.Join(cfg.PDFDirectory, filename)
		if err := os.WriteFile(filePath, []byte("%PDF-1.4 test"), 0o644); err != nil {
			t.Fatalf("failed to create test file %s: %v", filename, err)
		}
	}

	// Verify server properties
	if server.config != cfg {
		t.Error("server config not set correctly")
	}
	if server.workflow != wf {
		t.Error("server workflow not set correctly")
	}
	if server.mcpServer == nil {
		t.Error("mcpServer should be initialized")
	}

	// The workspace scan sees the files even before any document is added
	result, err := server.handleScanWorkspace(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(extractTextFromResult(result), "Found 2 PDF file(s)") {
		t.Errorf("scan should find the workspace files, got: %s", extractTextFromResult(result))
	}

	// A full signature + quota round trip through the handlers
	result, err = server.handleSignatureTyped(context.Background(),
		callRequest(map[string]interface{}{"name": "João Pereira"}))
	if err != nil || result.IsError {
		t.Fatalf("typed signature failed: %v / %s", err, extractTextFromResult(result))
	}

	result, err = server.handleQuotaStatus(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("quota status failed: %v", err)
	}
	if !strings.Contains(extractTextFromResult(result), "Used: 0 of 3") {
		t.Errorf("expected untouched quota, got: %s", extractTextFromResult(result))
	}
}
