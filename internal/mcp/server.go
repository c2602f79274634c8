package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/assinafacil/mcp-pdf-signer/internal/anchor"
	"github.com/assinafacil/mcp-pdf-signer/internal/config"
	"github.com/assinafacil/mcp-pdf-signer/internal/geom"
	"github.com/assinafacil/mcp-pdf-signer/internal/pdf"
	"github.com/assinafacil/mcp-pdf-signer/internal/quota"
	"github.com/assinafacil/mcp-pdf-signer/internal/signature"
	"github.com/assinafacil/mcp-pdf-signer/internal/workflow"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	workflow   *workflow.Service
	gate       *quota.Gate
	keywords   anchor.KeywordStore
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, wf *workflow.Service,
	gate *quota.Gate, keywords anchor.KeywordStore,
) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if wf == nil {
		return nil, fmt.Errorf("workflow cannot be nil")
	}
	if gate == nil {
		return nil, fmt.Errorf("gate cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		workflow:   wf,
		gate:       gate,
		keywords:   keywords,
		mcpServer:  mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	scanWorkspaceTool := mcp.NewTool(
		"pdf_scan_workspace",
		mcp.WithDescription("List signable PDF files in the workspace directory"),
		mcp.WithString("directory",
			mcp.Description("Directory to scan (uses the configured workspace if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional case-insensitive filename filter"),
		),
	)
	s.mcpServer.AddTool(scanWorkspaceTool, s.handleScanWorkspace)

	addDocumentTool := mcp.NewTool(
		"pdf_add_document",
		mcp.WithDescription("Validate a PDF file and add it to the signing session"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(addDocumentTool, s.handleAddDocument)

	listDocumentsTool := mcp.NewTool(
		"pdf_list_documents",
		mcp.WithDescription("List the session's documents with their signing status"),
	)
	s.mcpServer.AddTool(listDocumentsTool, s.handleListDocuments)

	removeDocumentTool := mcp.NewTool(
		"pdf_remove_document",
		mcp.WithDescription("Remove a document from the signing session"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID"),
		),
	)
	s.mcpServer.AddTool(removeDocumentTool, s.handleRemoveDocument)

	detectFieldsTool := mcp.NewTool(
		"pdf_detect_fields",
		mcp.WithDescription("Detect signature field positions in session documents; "+
			"documents without a detectable field are routed to manual review"),
		mcp.WithString("id",
			mcp.Description("Document ID (detects all pending documents if empty)"),
		),
	)
	s.mcpServer.AddTool(detectFieldsTool, s.handleDetectFields)

	fieldCandidatesTool := mcp.NewTool(
		"pdf_field_candidates",
		mcp.WithDescription("List every scored signature field candidate for a document, best first"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID"),
		),
	)
	s.mcpServer.AddTool(fieldCandidatesTool, s.handleFieldCandidates)

	setPlacementTool := mcp.NewTool(
		"pdf_set_placement",
		mcp.WithDescription("Confirm or adjust the signature position for a document"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID"),
		),
		mcp.WithNumber("page_index",
			mcp.Required(),
			mcp.Description("Zero-based page index"),
		),
		mcp.WithNumber("x",
			mcp.Required(),
			mcp.Description("Left edge of the signature box in viewport coordinates"),
		),
		mcp.WithNumber("y",
			mcp.Required(),
			mcp.Description("Top edge of the signature box in viewport coordinates"),
		),
		mcp.WithNumber("width",
			mcp.Description("Signature box width (default 200)"),
		),
		mcp.WithNumber("height",
			mcp.Description("Signature box height (default 80)"),
		),
		mcp.WithNumber("viewport_width",
			mcp.Required(),
			mcp.Description("Width of the viewport the coordinates are relative to"),
		),
		mcp.WithNumber("viewport_height",
			mcp.Required(),
			mcp.Description("Height of the viewport the coordinates are relative to"),
		),
	)
	s.mcpServer.AddTool(setPlacementTool, s.handleSetPlacement)

	pageLayoutTool := mcp.NewTool(
		"pdf_page_layout",
		mcp.WithDescription("Get the positioned text of one page for manual signature placement"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID"),
		),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("Page number (1-based)"),
		),
	)
	s.mcpServer.AddTool(pageLayoutTool, s.handlePageLayout)

	signatureUploadTool := mcp.NewTool(
		"signature_upload",
		mcp.WithDescription("Set the signature image from an uploaded PNG or JPEG"),
		mcp.WithString("data",
			mcp.Required(),
			mcp.Description("Base64-encoded image data"),
		),
	)
	s.mcpServer.AddTool(signatureUploadTool, s.handleSignatureUpload)

	signatureTypedTool := mcp.NewTool(
		"signature_typed",
		mcp.WithDescription("Render a typed name as the signature image"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name to render in a script style"),
		),
	)
	s.mcpServer.AddTool(signatureTypedTool, s.handleSignatureTyped)

	signatureDrawnTool := mcp.NewTool(
		"signature_drawn",
		mcp.WithDescription("Render drawn strokes as the signature image"),
		mcp.WithString("strokes",
			mcp.Required(),
			mcp.Description(`Stroke points as JSON, e.g. [[{"x":0,"y":0},{"x":50,"y":20}]]`),
		),
	)
	s.mcpServer.AddTool(signatureDrawnTool, s.handleSignatureDrawn)

	signTool := mcp.NewTool(
		"pdf_sign",
		mcp.WithDescription("Stamp the configured signature onto documents with a confirmed placement"),
		mcp.WithString("id",
			mcp.Description("Document ID (signs every ready document if empty)"),
		),
	)
	s.mcpServer.AddTool(signTool, s.handleSign)

	exportArchiveTool := mcp.NewTool(
		"pdf_export_archive",
		mcp.WithDescription("Pack all signed documents into a single ZIP archive"),
		mcp.WithString("output",
			mcp.Description("Archive path (defaults to assinados.zip in the workspace)"),
		),
	)
	s.mcpServer.AddTool(exportArchiveTool, s.handleExportArchive)

	keywordsGetTool := mcp.NewTool(
		"keywords_get",
		mcp.WithDescription("List the custom detection keywords"),
	)
	s.mcpServer.AddTool(keywordsGetTool, s.handleKeywordsGet)

	keywordsSetTool := mcp.NewTool(
		"keywords_set",
		mcp.WithDescription("Replace the custom detection keywords; they apply on the next detection run"),
		mcp.WithString("keywords",
			mcp.Required(),
			mcp.Description("Comma-separated keywords (empty string clears the list)"),
		),
	)
	s.mcpServer.AddTool(keywordsSetTool, s.handleKeywordsSet)

	quotaStatusTool := mcp.NewTool(
		"quota_status",
		mcp.WithDescription("Show signature quota usage"),
	)
	s.mcpServer.AddTool(quotaStatusTool, s.handleQuotaStatus)

	quotaUpgradeTool := mcp.NewTool(
		"quota_upgrade",
		mcp.WithDescription("Upgrade to premium, removing the signature limit (simulated checkout)"),
	)
	s.mcpServer.AddTool(quotaUpgradeTool, s.handleQuotaUpgrade)

	serverInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription("Get server information, available tools and usage guidance"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleScanWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory := s.config.PDFDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	result, err := s.pdfService.ScanWorkspace(directory, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if query != "" {
			text += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(text), nil
	}

	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n\nFiles:\n", result.TotalCount, result.Directory)
	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleAddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.workflow.AddDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Added document: %s\n", doc.Name)
	text += fmt.Sprintf("ID: %s\n", doc.ID)
	text += fmt.Sprintf("Pages: %d\n", doc.PageCount)
	text += fmt.Sprintf("Size: %d bytes\n", doc.Size)
	text += fmt.Sprintf("Status: %s\n", doc.Status)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := s.workflow.Documents()
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents in the session. Use pdf_add_document to add one."), nil
	}

	sum := s.workflow.Counts()
	text := fmt.Sprintf("Session documents: %d total (%d auto-found, %d need review, %d signed, %d failed)\n\n",
		sum.Total, sum.AutoFound, sum.Review, sum.Signed, sum.Errored)
	for i, doc := range docs {
		text += fmt.Sprintf("%d. %s [%s]\n", i+1, doc.Name, doc.Status)
		text += fmt.Sprintf("   ID: %s\n", doc.ID)
		text += fmt.Sprintf("   Pages: %d\n", doc.PageCount)
		if doc.Placement != nil {
			text += fmt.Sprintf("   Placement: page %d at (%.0f, %.0f)\n",
				doc.Placement.PageIndex+1, doc.Placement.UIRect.X, doc.Placement.UIRect.Y)
		}
		if doc.SignedPath != "" {
			text += fmt.Sprintf("   Signed file: %s\n", doc.SignedPath)
		}
		if doc.ErrorMessage != "" {
			text += fmt.Sprintf("   Error: %s\n", doc.ErrorMessage)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleRemoveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.workflow.RemoveDocument(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed document %s", id)), nil
}

func (s *Server) handleDetectFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	if id, ok := args["id"].(string); ok && id != "" {
		doc, err := s.workflow.DetectDocument(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(s.formatDetectedDocument(doc)), nil
	}

	sum, err := s.workflow.DetectAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := "Signature field detection finished\n"
	text += fmt.Sprintf("Auto-found: %d\n", sum.AutoFound)
	text += fmt.Sprintf("Need manual review: %d\n", sum.Review)
	text += fmt.Sprintf("Already signed: %d\n", sum.Signed)
	if sum.Review > 0 {
		text += "\nDocuments in review have a default placement on the last page. " +
			"Use pdf_page_layout and pdf_set_placement to position the signature."
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) formatDetectedDocument(doc workflow.Document) string {
	text := fmt.Sprintf("Detection finished for %s\n", doc.Name)
	text += fmt.Sprintf("Status: %s\n", doc.Status)
	if doc.Placement != nil {
		text += fmt.Sprintf("Placement: page %d at (%.0f, %.0f), box %.0fx%.0f\n",
			doc.Placement.PageIndex+1, doc.Placement.UIRect.X, doc.Placement.UIRect.Y,
			doc.Placement.UIRect.Width, doc.Placement.UIRect.Height)
	}
	if doc.Status == workflow.StatusReview {
		text += "No signature field was detected; the placement defaults to the last page " +
			"and needs manual confirmation."
	}
	return text
}

func (s *Server) handleFieldCandidates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches, err := s.workflow.Candidates(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(matches) == 0 {
		return mcp.NewToolResultText("No signature field candidates found. Place the signature manually."), nil
	}

	text := fmt.Sprintf("Found %d candidate(s), best first:\n\n", len(matches))
	for i, m := range matches {
		text += fmt.Sprintf("%d. %q on page %d\n", i+1, m.Text, m.PageIndex+1)
		text += fmt.Sprintf("   Position: (%.0f, %.0f)\n", m.X, m.Y)
		text += fmt.Sprintf("   Score: %.0f\n", m.Score)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSetPlacement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pageIndex, err := request.RequireInt("page_index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := request.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	viewportWidth, err := request.RequireFloat("viewport_width")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	viewportHeight, err := request.RequireFloat("viewport_height")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	width := request.GetFloat("width", geom.DefaultSignatureWidth)
	height := request.GetFloat("height", geom.DefaultSignatureHeight)

	doc, err := s.workflow.SetPlacement(id, geom.Placement{
		PageIndex:    pageIndex,
		UIRect:       geom.Rect{X: x, Y: y, Width: width, Height: height},
		ViewportSize: geom.Size{Width: viewportWidth, Height: viewportHeight},
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Placement confirmed for %s\n", doc.Name)
	text += fmt.Sprintf("Page %d at (%.0f, %.0f), box %.0fx%.0f\n",
		doc.Placement.PageIndex+1, doc.Placement.UIRect.X, doc.Placement.UIRect.Y,
		doc.Placement.UIRect.Width, doc.Placement.UIRect.Height)
	text += fmt.Sprintf("Status: %s", doc.Status)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePageLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.workflow.PageLayout(ctx, id, page)
	if err != nil {
		if errors.Is(err, workflow.ErrSuperseded) {
			return mcp.NewToolResultText("Request superseded by a newer page layout request."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleSignatureUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded, err := request.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid base64 data: %v", err)), nil
	}

	sig, err := signature.FromUpload(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.workflow.SetSignature(sig)
	return mcp.NewToolResultText(fmt.Sprintf("Signature image set: %s, %dx%d pixels",
		sig.Format, sig.Width, sig.Height)), nil
}

func (s *Server) handleSignatureTyped(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sig, err := signature.FromTypedName(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.workflow.SetSignature(sig)
	return mcp.NewToolResultText(fmt.Sprintf("Typed signature rendered for %q: %dx%d pixels",
		name, sig.Width, sig.Height)), nil
}

func (s *Server) handleSignatureDrawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded, err := request.RequireString("strokes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var strokes [][]signature.Point
	if err := json.Unmarshal([]byte(encoded), &strokes); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid strokes JSON: %v", err)), nil
	}

	sig, err := signature.FromStrokes(strokes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.workflow.SetSignature(sig)
	return mcp.NewToolResultText(fmt.Sprintf("Drawn signature rendered: %dx%d pixels",
		sig.Width, sig.Height)), nil
}

func (s *Server) handleSign(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	if id, ok := args["id"].(string); ok && id != "" {
		doc, err := s.workflow.SignDocument(ctx, id)
		if err != nil {
			return s.signErrorResult(err), nil
		}
		text := fmt.Sprintf("Signed %s\n", doc.Name)
		text += fmt.Sprintf("Output: %s\n", doc.SignedPath)
		text += s.formatQuotaLine()
		return mcp.NewToolResultText(text), nil
	}

	sum, err := s.workflow.SignAll(ctx)
	if err != nil {
		return s.signErrorResult(err), nil
	}

	text := "Signing finished\n"
	text += fmt.Sprintf("Signed: %d\n", sum.Signed)
	if sum.Errored > 0 {
		text += fmt.Sprintf("Failed: %d (see pdf_list_documents for details)\n", sum.Errored)
	}
	text += s.formatQuotaLine()
	return mcp.NewToolResultText(text), nil
}

// signErrorResult turns a quota refusal into guidance instead of a bare
// error.
func (s *Server) signErrorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, quota.ErrLimitReached) {
		st := s.gate.Status()
		text := fmt.Sprintf("Free signature limit reached (%d of %d used). ", st.Used, st.FreeLimit)
		text += "Your documents and placements are preserved; run quota_upgrade to continue signing."
		return mcp.NewToolResultText(text)
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) formatQuotaLine() string {
	st := s.gate.Status()
	if st.Premium {
		return "Quota: premium, unlimited\n"
	}
	return fmt.Sprintf("Quota: %d of %d free signatures used\n", st.Used, st.FreeLimit)
}

func (s *Server) handleExportArchive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	output := filepath.Join(s.config.PDFDirectory, "assinados.zip")
	if out, ok := args["output"].(string); ok && out != "" {
		output = out
	}

	count, err := s.workflow.ExportArchive(output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Exported %d signed document(s) to %s", count, output)), nil
}

func (s *Server) handleKeywordsGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var custom []string
	if s.keywords != nil {
		custom = s.keywords.Get()
	}

	if len(custom) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No custom keywords configured. Detection uses the %d built-in keywords.",
			len(anchor.DefaultKeywords))), nil
	}

	text := fmt.Sprintf("Custom keywords (%d), applied in addition to the %d built-in keywords:\n",
		len(custom), len(anchor.DefaultKeywords))
	for _, kw := range custom {
		text += fmt.Sprintf("  - %s\n", kw)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleKeywordsSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("keywords")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var keywords []string
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	if s.keywords == nil {
		return mcp.NewToolResultError("keyword store is not configured"), nil
	}
	if err := s.keywords.Set(keywords); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(keywords) == 0 {
		return mcp.NewToolResultText("Custom keywords cleared. The next detection run uses only the built-in keywords."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Stored %d custom keyword(s). They apply on the next detection run.", len(keywords))), nil
}

func (s *Server) handleQuotaStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.gate.Status()

	text := "Signature quota\n"
	if st.Premium {
		text += "Plan: premium (unlimited signatures)\n"
		text += fmt.Sprintf("Signatures used before upgrading: %d\n", st.Used)
	} else {
		text += "Plan: free\n"
		text += fmt.Sprintf("Used: %d of %d\n", st.Used, st.FreeLimit)
		text += fmt.Sprintf("Remaining: %d\n", st.Remaining)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleQuotaUpgrade(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Upgrade(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Upgraded to premium. Signing is no longer limited."), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - PDF Signing MCP Server\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Workspace: %s\n", s.config.PDFDirectory)
	text += fmt.Sprintf("Max file size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Detection page limit: %d\n", s.config.MaxPages)
	text += "\n" + s.formatQuotaLine()

	text += "\nTypical flow:\n"
	text += "  1. pdf_scan_workspace, then pdf_add_document for each file\n"
	text += "  2. pdf_detect_fields to locate signature positions\n"
	text += "  3. pdf_page_layout + pdf_set_placement for documents in review\n"
	text += "  4. signature_typed, signature_drawn or signature_upload\n"
	text += "  5. pdf_sign, then pdf_export_archive\n"
	return mcp.NewToolResultText(text), nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	} else {
		return s.runStdioMode(ctx)
	}
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF signing MCP server in stdio mode")
		log.Printf("Workspace directory: %s", s.config.PDFDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
