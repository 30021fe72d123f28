package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "clox-lsp"

var lspLog = commonlog.GetLogger("clox.lsp")

// LspServer bridges LSP editor features to the clox VM via VMWorker.
type LspServer struct {
	worker *VMWorker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server wrapping the given VM.
func NewLSP(v *vm.VM) *LspServer {
	worker := NewVMWorker(v)
	s := &LspServer{
		worker:  worker,
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	lspLog.Info("clox LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// document returns the stored text for uri.
func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)

	result, err := s.worker.Do(func(v *vm.VM) interface{} {
		return hover(v, text, word)
	})
	if err != nil {
		lspLog.Warningf("hover: %s", err)
		return nil, nil
	}
	return result.(*protocol.Hover), nil
}

// literalWords are the keywords that are valid expressions on their own.
var literalWords = []string{"false", "nil", "true"}

// complete offers the literal keywords that start with prefix.
func complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindKeyword
	for _, word := range literalWords {
		if strings.HasPrefix(word, prefix) && word != prefix {
			items = append(items, protocol.CompletionItem{
				Label: word,
				Kind:  &kind,
			})
		}
	}
	return items
}

// hover evaluates the whole document and shows its value and bytecode.
// Must be called on the VM worker goroutine.
func hover(v *vm.VM, text, word string) *protocol.Hover {
	var b strings.Builder

	if word != "" {
		tok := compiler.NewLexer(word).NextToken()
		switch {
		case tok.Type == compiler.TokenNumber:
			fmt.Fprintf(&b, "**%s** number literal\n\n", word)
		case tok.Type.IsKeyword():
			fmt.Fprintf(&b, "**%s** keyword\n\n", word)
		}
	}

	chunk, err := compiler.Compile(text)
	if err != nil {
		b.WriteString("**Compile error**\n\n")
		for _, d := range diagnosticsOf(err) {
			fmt.Fprintf(&b, "- %s\n", d.Text)
		}
		return markdownHover(b.String())
	}

	value, status, err := v.InterpretChunk(chunk)
	if status == vm.StatusOK {
		fmt.Fprintf(&b, "**Result:** `%s`\n\n", value)
	} else {
		fmt.Fprintf(&b, "**Runtime error:** %s\n\n", err)
	}

	b.WriteString("```\n")
	b.WriteString(chunk.Disassemble("document"))
	b.WriteString("```\n")

	return markdownHover(b.String())
}

func markdownHover(value string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: documentDiagnostics(text),
	})
}

// documentDiagnostics compiles text and converts any compile diagnostics
// to zero-based LSP ranges. A diagnostic that names a lexeme spans that
// lexeme at its column, one reported at end of input is empty, and a
// lexical error spans its whole line.
func documentDiagnostics(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	_, err := compiler.Compile(text)
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return diagnostics
	}

	lines := strings.Split(text, "\n")
	severity := protocol.DiagnosticSeverityError
	source := lspName

	for _, d := range ce.Diagnostics {
		line := d.Line - 1
		if line < 0 {
			line = 0
		}
		var lineText string
		if line < len(lines) {
			lineText = lines[line]
		}

		start, end := 0, len(lineText)
		switch {
		case d.Lexeme != "" && !strings.Contains(d.Lexeme, "\n") && d.Column+len(d.Lexeme) <= len(lineText):
			start, end = d.Column, d.Column+len(d.Lexeme)
		case d.Where == "at end":
			start = min(d.Column, end)
			end = start
		}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(start)},
				End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(end)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return diagnostics
}

// --- Text extraction helpers ---

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier or number under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 && (isWordByte(line[start-1]) || line[start-1] == '.') {
		start--
	}

	// Find end
	end := col
	for end < len(line) && (isWordByte(line[end]) || line[end] == '.') {
		end++
	}

	if start == end {
		return ""
	}

	return strings.Trim(line[start:end], ".")
}

func isWordByte(b byte) bool {
	ch := rune(b)
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}
