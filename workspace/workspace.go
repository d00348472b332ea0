// Package workspace keeps the PHP sources of a project in memory, including
// unsaved editor buffers, and answers editor queries against a broker
// rebuilt from them.
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dhamidi/phpreflect/format"
	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/broker"
	"github.com/dhamidi/phpreflect/php/phpdoc"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("phpreflect.workspace")

type Workspace struct {
	mu      sync.RWMutex
	rootDir string
	opts    []broker.Option
	filter  *broker.Broker
	docs    map[string]*Document
	broker  *broker.Broker
}

// Document is one source file as last seen by the workspace.
type Document struct {
	Path    string
	Content []byte
	File    *php.File
	Err     error
}

func New(rootDir string, opts ...broker.Option) *Workspace {
	return &Workspace{
		rootDir: rootDir,
		opts:    opts,
		filter:  broker.New(opts...),
		docs:    make(map[string]*Document),
		broker:  broker.New(opts...),
	}
}

func (w *Workspace) RootDir() string {
	return w.rootDir
}

// ScanAll reads every accepted file below the root directory.
func (w *Workspace) ScanAll() error {
	contents := make(map[string][]byte)
	err := filepath.WalkDir(w.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.rootDir && w.filter.Excluded(w.rootDir, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.filter.Accepts(w.rootDir, path) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warningf("read %s: %s", path, err)
			return nil
		}
		contents[path] = content
		return nil
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for path, content := range contents {
		if _, open := w.docs[path]; !open {
			w.docs[path] = &Document{Path: path, Content: content}
		}
	}
	w.rebuildLocked()
	return nil
}

func (w *Workspace) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	w.UpdateFile(path, content)
	return nil
}

// UpdateFile replaces the content of path and rebuilds the model.
func (w *Workspace) UpdateFile(path string, content []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[path] = &Document{Path: path, Content: content}
	w.rebuildLocked()
}

func (w *Workspace) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, path)
	w.rebuildLocked()
}

func (w *Workspace) rebuildLocked() {
	b := broker.New(w.opts...)
	paths := make([]string, 0, len(w.docs))
	for path := range w.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		content := w.docs[path].Content
		file, err := b.ProcessSource(path, content)
		w.docs[path] = &Document{Path: path, Content: content, File: file, Err: err}
	}
	w.broker = b
	log.Debugf("rebuilt workspace with %d file(s)", len(paths))
}

// Broker returns the model built from the current documents.
func (w *Workspace) Broker() *broker.Broker {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.broker
}

func (w *Workspace) Document(path string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[path]
}

// Diagnostics lists the parse and registration problems of a document.
func (w *Workspace) Diagnostics(path string) []error {
	doc := w.Document(path)
	if doc == nil || doc.Err == nil {
		return nil
	}
	var reg *php.RegistrationError
	if errors.As(doc.Err, &reg) {
		return reg.Errors
	}
	return []error{doc.Err}
}

// ClassAt returns the class whose declaration spans line in path.
func (w *Workspace) ClassAt(path string, line int) php.ClassInfo {
	doc := w.Document(path)
	if doc == nil || doc.File == nil {
		return nil
	}
	for _, c := range doc.File.Classes() {
		if c.StartLine() <= line && line <= c.EndLine() {
			return c
		}
	}
	return nil
}

// namespaceAt picks the namespace segment of the file that line belongs
// to, judged by where its declarations start.
func namespaceAt(file *php.File, line int) *php.FileNamespace {
	segments := file.Namespaces()
	if len(segments) == 0 {
		return nil
	}
	best := segments[0]
	for _, ns := range segments {
		start := firstLine(ns)
		if start > 0 && start <= line {
			best = ns
		}
	}
	return best
}

func firstLine(ns *php.FileNamespace) int {
	first := 0
	consider := func(line int) {
		if line > 0 && (first == 0 || line < first) {
			first = line
		}
	}
	for _, c := range ns.Classes() {
		consider(c.StartLine())
	}
	for _, f := range ns.Functions() {
		consider(f.StartLine())
	}
	for _, k := range ns.Constants() {
		consider(k.StartLine())
	}
	return first
}

// ResolveAt resolves a class name as written at line in path, honoring
// the namespace, imports and self/parent references in scope.
func (w *Workspace) ResolveAt(path string, line int, name string) string {
	switch strings.ToLower(name) {
	case "self", "static":
		if c := w.ClassAt(path, line); c != nil {
			return c.Name()
		}
		return name
	case "parent":
		if c := w.ClassAt(path, line); c != nil && c.ParentClassName() != "" {
			return c.ParentClassName()
		}
		return name
	}
	doc := w.Document(path)
	if doc == nil || doc.File == nil {
		return php.TrimName(name)
	}
	ns := namespaceAt(doc.File, line)
	if ns == nil {
		return php.TrimName(name)
	}
	return php.ResolveClassName(name, ns.Name(), ns.Imports())
}

// WordAt returns the qualified identifier under the cursor. line is one
// based and column zero based.
func WordAt(content []byte, line, column int) string {
	lines := strings.Split(string(content), "\n")
	if line <= 0 || line > len(lines) {
		return ""
	}
	text := lines[line-1]
	if column > len(text) {
		column = len(text)
	}
	start := column
	for start > 0 && isNameByte(text[start-1]) {
		start--
	}
	end := column
	for end < len(text) && isNameByte(text[end]) {
		end++
	}
	return strings.TrimLeft(text[start:end], "$")
}

func isNameByte(b byte) bool {
	return b == '_' || b == '\\' || b == '$' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Describe renders a markdown description of the class, function or
// constant named at the cursor, with its inherited documentation.
func (w *Workspace) Describe(path string, line, column int) (string, bool) {
	doc := w.Document(path)
	if doc == nil {
		return "", false
	}
	word := WordAt(doc.Content, line, column)
	if word == "" {
		return "", false
	}
	b := w.Broker()

	if member, ok := w.describeMember(doc.Content, path, line, column, word); ok {
		return member, true
	}
	if c, err := b.Class(w.ResolveAt(path, line, word)); err == nil && c.Exists() {
		return markdown(format.ClassHeader(c), c.Annotations()), true
	}
	if fn, ok := w.lookupFunction(b, path, line, word); ok {
		return markdown(format.Signature(fn), fn.Annotations()), true
	}
	if k, ok := w.lookupConstant(b, path, line, word); ok {
		return markdown("const "+k.Name()+" = "+k.ValueDefinition(), k.Annotations()), true
	}
	return "", false
}

// describeMember handles Name::member under the cursor.
func (w *Workspace) describeMember(content []byte, path string, line, column int, word string) (string, bool) {
	lines := strings.Split(string(content), "\n")
	text := lines[line-1]
	start := column
	if start > len(text) {
		start = len(text)
	}
	for start > 0 && isNameByte(text[start-1]) {
		start--
	}
	if start < 2 || text[start-2:start] != "::" {
		return "", false
	}
	owner := WordAt(content, line, start-2)
	if owner == "" {
		return "", false
	}
	c, err := w.Broker().Class(w.ResolveAt(path, line, owner))
	if err != nil {
		return "", false
	}
	if m, err := c.Method(word); err == nil {
		return markdown(format.MethodSignature(m), m.Annotations()), true
	}
	if k, err := c.Constant(word); err == nil {
		return markdown("const "+c.Name()+"::"+k.Name()+" = "+k.ValueDefinition(), k.Annotations()), true
	}
	if p, err := c.Property(word); err == nil {
		decl := format.Visibility(p.Modifiers()) + " "
		if p.Type() != "" {
			decl += p.Type() + " "
		}
		return markdown(decl+"$"+p.Name(), p.Annotations()), true
	}
	return "", false
}

func (w *Workspace) lookupFunction(b *broker.Broker, path string, line int, name string) (php.FunctionInfo, bool) {
	for _, candidate := range w.candidates(path, line, name) {
		if fn, err := b.Function(candidate); err == nil {
			return fn, true
		}
	}
	return nil, false
}

func (w *Workspace) lookupConstant(b *broker.Broker, path string, line int, name string) (php.ConstantInfo, bool) {
	for _, candidate := range w.candidates(path, line, name) {
		if k, err := b.Constant(candidate); err == nil {
			return k, true
		}
	}
	return nil, false
}

// candidates lists the names an unqualified function or constant could
// refer to: the current namespace first, then the global one.
func (w *Workspace) candidates(path string, line int, name string) []string {
	if strings.HasPrefix(name, "\\") {
		return []string{php.TrimName(name)}
	}
	doc := w.Document(path)
	if doc == nil || doc.File == nil {
		return []string{name}
	}
	ns := namespaceAt(doc.File, line)
	if ns == nil || ns.Name() == "" {
		return []string{name}
	}
	return []string{php.JoinName(ns.Name(), name), name}
}

func markdown(decl string, doc *phpdoc.DocBlock) string {
	var sb strings.Builder
	sb.WriteString("```php\n")
	sb.WriteString(decl)
	sb.WriteString("\n```")
	if doc == nil {
		return sb.String()
	}
	if doc.Short != "" {
		sb.WriteString("\n\n")
		sb.WriteString(doc.Short)
	}
	if doc.Long != "" {
		sb.WriteString("\n\n")
		sb.WriteString(doc.Long)
	}
	for _, tag := range doc.Tags {
		sb.WriteString("\n\n*@")
		sb.WriteString(tag.Name)
		sb.WriteString("* ")
		sb.WriteString(tag.Value)
	}
	return sb.String()
}

type CompletionKind int

const (
	CompletionKindMethod CompletionKind = iota
	CompletionKindProperty
	CompletionKindConstant
	CompletionKindClass
)

type CompletionItem struct {
	Label      string
	Kind       CompletionKind
	Detail     string
	InsertText string
}

// CompletionsAtPoint lists the static members reachable through the class
// name ending at column, where column points at the first ':' of "::".
func (w *Workspace) CompletionsAtPoint(path string, line, column int) []CompletionItem {
	doc := w.Document(path)
	if doc == nil {
		return nil
	}
	owner := WordAt(doc.Content, line, column)
	if owner == "" {
		return nil
	}
	c, err := w.Broker().Class(w.ResolveAt(path, line, owner))
	if err != nil || !c.Exists() {
		return nil
	}
	same, related := false, false
	if cur := w.ClassAt(path, line); cur != nil {
		same = strings.EqualFold(cur.Name(), c.Name())
		related, _ = cur.IsSubclassOf(c.Name())
		related = related || same
	}
	visible := func(private, protected bool) bool {
		return (!private || same) && (!protected || related)
	}

	var items []CompletionItem
	methods, err := c.Methods()
	if err == nil {
		for _, m := range methods {
			if !visible(m.IsPrivate(), m.IsProtected()) {
				continue
			}
			items = append(items, CompletionItem{
				Label:      m.Name(),
				Kind:       CompletionKindMethod,
				Detail:     format.MethodSignature(m),
				InsertText: formatMethodInsert(m),
			})
		}
	}
	constants, err := c.Constants()
	if err == nil {
		for _, k := range constants {
			mods := k.Modifiers()
			if !visible(mods&php.ModifierPrivate != 0, mods&php.ModifierProtected != 0) {
				continue
			}
			items = append(items, CompletionItem{
				Label:      k.Name(),
				Kind:       CompletionKindConstant,
				Detail:     k.ValueDefinition(),
				InsertText: k.Name(),
			})
		}
	}
	props, err := c.Properties()
	if err == nil {
		for _, p := range props {
			if !p.IsStatic() || !visible(p.IsPrivate(), p.IsProtected()) {
				continue
			}
			items = append(items, CompletionItem{
				Label:      "$" + p.Name(),
				Kind:       CompletionKindProperty,
				Detail:     strings.TrimSpace(p.Type() + " $" + p.Name()),
				InsertText: "$" + p.Name(),
			})
		}
	}
	items = append(items, CompletionItem{
		Label:      "class",
		Kind:       CompletionKindClass,
		Detail:     c.Name(),
		InsertText: "class",
	})
	return items
}

func formatMethodInsert(m php.MethodInfo) string {
	params := m.Parameters()
	if len(params) == 0 {
		return m.Name() + "()"
	}
	var placeholders []string
	for i, p := range params {
		if p.IsOptional() || p.IsVariadic() {
			break
		}
		placeholders = append(placeholders, "${"+strconv.Itoa(i+1)+":$"+p.Name()+"}")
	}
	return m.Name() + "(" + strings.Join(placeholders, ", ") + ")$0"
}
