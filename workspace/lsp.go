package workspace

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhamidi/phpreflect/format"
	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/broker"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "phpreflect"

type LSPServer struct {
	workspace *Workspace
	opts      []broker.Option
	handler   protocol.Handler
	server    *server.Server
	version   string
}

func NewLSPServer(version string, opts ...broker.Option) *LSPServer {
	ls := &LSPServer{
		version: version,
		opts:    opts,
	}

	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDidSave:        ls.textDocumentDidSave,
		TextDocumentCompletion:     ls.textDocumentCompletion,
		TextDocumentHover:          ls.textDocumentHover,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	ls.workspace = New(rootDir, ls.opts...)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    intPtr(int(protocol.TextDocumentSyncKindFull)),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{":"},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return ls.workspace.ScanAll()
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.workspace.UpdateFile(path, []byte(params.TextDocument.Text))
	ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.workspace.UpdateFile(path, []byte(textChange.Text))
			ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.workspace.UpdateFile(path, []byte(*params.Text))
	} else if err := ls.workspace.ScanFile(path); err != nil {
		log.Warningf("rescan %s: %s", path, err)
	}
	ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
	return nil
}

func (ls *LSPServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, path string) {
	diagnostics := []protocol.Diagnostic{}
	for _, err := range ls.workspace.Diagnostics(path) {
		diagnostics = append(diagnostics, toDiagnostic(err))
	}
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func toDiagnostic(err error) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityWarning
	line := 0
	var perr *php.ParseError
	if errors.As(err, &perr) {
		severity = protocol.DiagnosticSeverityError
		if perr.Line > 0 {
			line = perr.Line - 1
		}
	}
	source := lsName
	pos := protocol.Position{Line: protocol.UInteger(line)}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: pos, End: pos},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}

	line := int(params.Position.Line) + 1
	col := int(params.Position.Character)

	doc := ls.workspace.Document(path)
	if doc == nil {
		return nil, nil
	}

	triggerCol := findTriggerPosition(doc.Content, line, col)
	if triggerCol < 0 {
		return nil, nil
	}

	completions := ls.workspace.CompletionsAtPoint(path, line, triggerCol)
	if len(completions) == 0 {
		return nil, nil
	}

	var items []protocol.CompletionItem
	for _, c := range completions {
		kind := toProtocolKind(c.Kind)
		detail := c.Detail
		insertText := c.InsertText
		insertFormat := protocol.InsertTextFormatSnippet

		items = append(items, protocol.CompletionItem{
			Label:            c.Label,
			Kind:             &kind,
			Detail:           &detail,
			InsertText:       &insertText,
			InsertTextFormat: &insertFormat,
		})
	}

	return items, nil
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	text, ok := ls.workspace.Describe(path, int(params.Position.Line)+1, int(params.Position.Character))
	if !ok {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}, nil
}

func (ls *LSPServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	doc := ls.workspace.Document(path)
	if doc == nil || doc.File == nil {
		return nil, nil
	}
	return DocumentSymbols(doc.File), nil
}

// DocumentSymbols outlines a file: one symbol per namespace segment with
// its classes, functions and constants nested below.
func DocumentSymbols(file *php.File) []protocol.DocumentSymbol {
	var symbols []protocol.DocumentSymbol
	for _, ns := range file.Namespaces() {
		var children []protocol.DocumentSymbol
		for _, c := range ns.Classes() {
			children = append(children, classSymbol(c))
		}
		for _, fn := range ns.Functions() {
			detail := format.Signature(fn)
			children = append(children, symbol(fn.ShortName(), &detail, protocol.SymbolKindFunction, fn, nil))
		}
		for _, k := range ns.Constants() {
			detail := k.ValueDefinition()
			children = append(children, symbol(k.ShortName(), &detail, protocol.SymbolKindConstant, k, nil))
		}
		if ns.Name() == "" {
			symbols = append(symbols, children...)
			continue
		}
		r := spanOf(children)
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           ns.Name(),
			Kind:           protocol.SymbolKindNamespace,
			Range:          r,
			SelectionRange: r,
			Children:       children,
		})
	}
	return symbols
}

func classSymbol(c php.ClassInfo) protocol.DocumentSymbol {
	kind := protocol.SymbolKindClass
	if c.IsInterface() {
		kind = protocol.SymbolKindInterface
	}
	var members []protocol.DocumentSymbol
	for _, k := range c.OwnConstants() {
		detail := k.ValueDefinition()
		members = append(members, symbol(k.ShortName(), &detail, protocol.SymbolKindConstant, k, nil))
	}
	for _, p := range c.OwnProperties() {
		detail := strings.TrimSpace(format.Visibility(p.Modifiers()) + " " + p.Type())
		members = append(members, symbol("$"+p.Name(), &detail, protocol.SymbolKindProperty, p, nil))
	}
	for _, m := range c.OwnMethods() {
		detail := format.MethodSignature(m)
		members = append(members, symbol(m.Name(), &detail, protocol.SymbolKindMethod, m, nil))
	}
	header := format.ClassHeader(c)
	return symbol(c.ShortName(), &header, kind, c, members)
}

func symbol(name string, detail *string, kind protocol.SymbolKind, e php.Entity, children []protocol.DocumentSymbol) protocol.DocumentSymbol {
	r := lineRange(e.StartLine(), e.EndLine())
	return protocol.DocumentSymbol{
		Name:           name,
		Detail:         detail,
		Kind:           kind,
		Range:          r,
		SelectionRange: r,
		Children:       children,
	}
}

func lineRange(start, end int) protocol.Range {
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(start - 1)},
		End:   protocol.Position{Line: protocol.UInteger(end - 1)},
	}
}

func spanOf(symbols []protocol.DocumentSymbol) protocol.Range {
	if len(symbols) == 0 {
		return protocol.Range{}
	}
	r := symbols[0].Range
	for _, s := range symbols[1:] {
		if s.Range.Start.Line < r.Start.Line {
			r.Start = s.Range.Start
		}
		if s.Range.End.Line > r.End.Line {
			r.End = s.Range.End
		}
	}
	return r
}

// findTriggerPosition returns the column of the "::" preceding the cursor,
// or -1.
func findTriggerPosition(content []byte, line, col int) int {
	lines := strings.Split(string(content), "\n")
	if line <= 0 || line > len(lines) {
		return -1
	}
	lineContent := lines[line-1]
	if col > len(lineContent) {
		col = len(lineContent)
	}

	for i := col - 1; i > 0; i-- {
		if lineContent[i] == ':' && lineContent[i-1] == ':' {
			return i - 1
		}
		if !isNameByte(lineContent[i]) {
			return -1
		}
	}
	return -1
}

func toProtocolKind(kind CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case CompletionKindMethod:
		return protocol.CompletionItemKindMethod
	case CompletionKindProperty:
		return protocol.CompletionItemKindProperty
	case CompletionKindConstant:
		return protocol.CompletionItemKindConstant
	case CompletionKindClass:
		return protocol.CompletionItemKindClass
	default:
		return protocol.CompletionItemKindText
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *protocol.TextDocumentSyncKind {
	v := protocol.TextDocumentSyncKind(i)
	return &v
}
