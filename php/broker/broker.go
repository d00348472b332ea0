// Package broker registers parsed PHP files into per-namespace tables and
// answers lookups by fully-qualified name, falling back to the builtin
// catalog for symbols that have no source.
package broker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/builtin"
)

var log = commonlog.GetLogger("phpreflect.broker")

// Class categories for Classes. They may be combined.
const (
	ClassTokenized = 1 << iota
	ClassInternal
	ClassNonexistent

	ClassAll = ClassTokenized | ClassInternal | ClassNonexistent
)

// DefaultExtensions are the file extensions ProcessDirectory parses when
// none are configured.
var DefaultExtensions = []string{".php"}

// sharedCatalog is the embedded catalog. Catalogs are read-only once
// loaded, so every broker built without WithCatalog shares one.
var sharedCatalog = sync.OnceValue(builtin.Default)

type Option func(*Broker)

// WithCatalog sets the catalog consulted for names no file declares. A nil
// catalog disables the fallback.
func WithCatalog(catalog *builtin.Catalog) Option {
	return func(b *Broker) { b.catalog = catalog }
}

func WithExtensions(extensions ...string) Option {
	return func(b *Broker) {
		b.extensions = nil
		for _, ext := range extensions {
			if ext != "" && !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			b.extensions = append(b.extensions, strings.ToLower(ext))
		}
	}
}

// WithExclude skips files and directories during ProcessDirectory whose
// base name or slash-separated path relative to the processed directory
// matches one of the globs.
func WithExclude(globs ...glob.Glob) Option {
	return func(b *Broker) { b.exclude = append(b.exclude, globs...) }
}

// WithRetainTokens keeps the token stream of every processed file.
func WithRetainTokens(retain bool) Option {
	return func(b *Broker) { b.retainTokens = retain }
}

// Broker is the registry every cross-reference resolves against. It
// implements php.Storage. Registration is serialized; lookups may run
// concurrently with each other but not with registration.
type Broker struct {
	catalog      *builtin.Catalog
	extensions   []string
	exclude      []glob.Glob
	retainTokens bool

	mu         sync.RWMutex
	files      map[string]*php.File
	fileOrder  []string
	namespaces map[string]*php.Namespace
	nsOrder    []string
}

var _ php.Storage = (*Broker)(nil)

func New(opts ...Option) *Broker {
	b := &Broker{
		catalog:    sharedCatalog(),
		extensions: DefaultExtensions,
		files:      make(map[string]*php.File),
		namespaces: make(map[string]*php.Namespace),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Catalog returns the builtin fallback, or nil.
func (b *Broker) Catalog() *builtin.Catalog { return b.catalog }

// ProcessFile parses and registers the file at path. A file processed
// before is returned as is. The error is a *php.ParseError when the file
// could not be parsed and a *php.RegistrationError when it was registered
// with conflicting declarations.
func (b *Broker) ProcessFile(path string) (*php.File, error) {
	if f, ok := b.File(path); ok {
		log.Debugf("already processed: %s", path)
		return f, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b.ProcessSource(path, src)
}

// ProcessSource parses source as if read from the named file and registers
// it.
func (b *Broker) ProcessSource(name string, src []byte) (*php.File, error) {
	file, err := php.ParseSource(name, src, b, php.RetainTokens(b.retainTokens))
	if err != nil {
		log.Errorf("%s", err)
		return nil, err
	}
	if err := b.AddFile(file); err != nil {
		return file, err
	}
	return file, nil
}

// ProcessDirectory processes every matching file below dir. A file that
// fails does not stop the walk; all failures are returned joined, along
// with the files that were registered.
func (b *Broker) ProcessDirectory(dir string) ([]*php.File, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && b.excluded(dir, path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !b.hasExtension(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	var files []*php.File
	var errs []error
	for _, path := range paths {
		f, err := b.ProcessFile(path)
		if f != nil {
			files = append(files, f)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	log.Infof("processed %d of %d files in %s", len(files), len(paths), dir)
	return files, errors.Join(errs...)
}

func (b *Broker) hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range b.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (b *Broker) excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	for _, g := range b.exclude {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

// Accepts reports whether ProcessDirectory(root) would process path.
func (b *Broker) Accepts(root, path string) bool {
	return b.hasExtension(path) && !b.excluded(root, path)
}

// Excluded reports whether an exclude pattern matches path, relative to
// root or by base name.
func (b *Broker) Excluded(root, path string) bool {
	return b.excluded(root, path)
}

// AddFile registers a parsed file. Names already registered turn into
// Invalid markers; every other declaration is registered normally and all
// conflicts are returned together as one *php.RegistrationError.
func (b *Broker) AddFile(file *php.File) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.files[file.Name()]; ok {
		if existing == file {
			return nil
		}
		return fmt.Errorf("file %s is already registered", file.Name())
	}
	b.files[file.Name()] = file
	b.fileOrder = append(b.fileOrder, file.Name())

	errs := file.Errors()
	for _, seg := range file.Namespaces() {
		ns := b.namespaceLocked(seg.Name())
		errs = append(errs, ns.AddFileNamespace(seg)...)
		for _, k := range seg.Constants() {
			if strings.EqualFold(k.NamespaceName(), ns.Name()) {
				continue
			}
			errs = append(errs, b.namespaceLocked(k.NamespaceName()).AddConstant(k)...)
		}
	}
	log.Debugf("registered %s", file.Name())
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs {
		log.Warningf("%s", err)
	}
	return &php.RegistrationError{File: file.Name(), Errors: errs}
}

func (b *Broker) namespaceLocked(name string) *php.Namespace {
	name = php.TrimName(name)
	key := strings.ToLower(name)
	ns, ok := b.namespaces[key]
	if !ok {
		ns = php.NewNamespace(name)
		b.namespaces[key] = ns
		b.nsOrder = append(b.nsOrder, key)
	}
	return ns
}

func (b *Broker) namespaceOf(name string) (*php.Namespace, bool) {
	nsName, _ := php.SplitName(name)
	ns, ok := b.namespaces[strings.ToLower(nsName)]
	return ns, ok
}

// Class looks up a class, interface or trait: a registered declaration
// first, then the builtin catalog.
func (b *Broker) Class(name string) (php.ClassInfo, error) {
	b.mu.RLock()
	ns, ok := b.namespaceOf(name)
	var info php.ClassInfo
	if ok {
		info, ok = ns.Class(name)
	}
	b.mu.RUnlock()
	if ok {
		return info, nil
	}
	if b.catalog != nil {
		if info, err := b.catalog.Class(name); err == nil {
			return info, nil
		}
	}
	return nil, fmt.Errorf("class %s: %w", php.TrimName(name), php.ErrNotFound)
}

func (b *Broker) HasClass(name string) bool {
	_, err := b.Class(name)
	return err == nil
}

func (b *Broker) Function(name string) (php.FunctionInfo, error) {
	b.mu.RLock()
	ns, ok := b.namespaceOf(name)
	var info php.FunctionInfo
	if ok {
		info, ok = ns.Function(name)
	}
	b.mu.RUnlock()
	if ok {
		return info, nil
	}
	if b.catalog != nil {
		if info, err := b.catalog.Function(name); err == nil {
			return info, nil
		}
	}
	return nil, fmt.Errorf("function %s: %w", php.TrimName(name), php.ErrNotFound)
}

func (b *Broker) HasFunction(name string) bool {
	_, err := b.Function(name)
	return err == nil
}

func (b *Broker) Constant(name string) (php.ConstantInfo, error) {
	b.mu.RLock()
	ns, ok := b.namespaceOf(name)
	var info php.ConstantInfo
	if ok {
		info, ok = ns.Constant(name)
	}
	b.mu.RUnlock()
	if ok {
		return info, nil
	}
	if b.catalog != nil {
		if info, err := b.catalog.Constant(name); err == nil {
			return info, nil
		}
	}
	return nil, fmt.Errorf("constant %s: %w", php.TrimName(name), php.ErrNotFound)
}

func (b *Broker) HasConstant(name string) bool {
	_, err := b.Constant(name)
	return err == nil
}

// Namespace returns the merged view of a namespace. The global namespace
// is named "".
func (b *Broker) Namespace(name string) (*php.Namespace, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if ns, ok := b.namespaces[strings.ToLower(php.TrimName(name))]; ok {
		return ns, nil
	}
	return nil, fmt.Errorf("namespace %s: %w", php.TrimName(name), php.ErrNotFound)
}

func (b *Broker) HasNamespace(name string) bool {
	_, err := b.Namespace(name)
	return err == nil
}

// Namespaces returns every namespace in the order first registered.
func (b *Broker) Namespaces() []*php.Namespace {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*php.Namespace, len(b.nsOrder))
	for i, key := range b.nsOrder {
		out[i] = b.namespaces[key]
	}
	return out
}

func (b *Broker) File(path string) (*php.File, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	f, ok := b.files[path]
	return f, ok
}

// Files returns the registered files in registration order.
func (b *Broker) Files() []*php.File {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*php.File, len(b.fileOrder))
	for i, name := range b.fileOrder {
		out[i] = b.files[name]
	}
	return out
}

// Functions returns every registered function.
func (b *Broker) Functions() []php.FunctionInfo {
	var out []php.FunctionInfo
	for _, ns := range b.Namespaces() {
		out = append(out, ns.Functions()...)
	}
	return out
}

// Constants returns every registered free constant.
func (b *Broker) Constants() []php.ConstantInfo {
	var out []php.ConstantInfo
	for _, ns := range b.Namespaces() {
		out = append(out, ns.Constants()...)
	}
	return out
}

// Classes returns the classes of the requested categories. Internal and
// nonexistent classes are those reached from a registered class through its
// parent, interfaces and traits; nonexistent ones come back as
// *php.MissingClass.
func (b *Broker) Classes(filter int) []php.ClassInfo {
	var tokenized []php.ClassInfo
	for _, ns := range b.Namespaces() {
		tokenized = append(tokenized, ns.Classes()...)
	}
	var out []php.ClassInfo
	if filter&ClassTokenized != 0 {
		out = append(out, tokenized...)
	}
	if filter&(ClassInternal|ClassNonexistent) == 0 {
		return out
	}

	internal := make(map[string]php.ClassInfo)
	missing := make(map[string]php.ClassInfo)
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		key := php.ClassKey(name)
		if seen[key] {
			return
		}
		seen[key] = true
		info, err := b.Class(name)
		switch {
		case err != nil:
			missing[key] = php.NewMissingClass(php.TrimName(name))
		case info.IsInternal():
			internal[key] = info
			fallthrough
		default:
			for _, ancestor := range references(info) {
				visit(ancestor)
			}
		}
	}
	for _, c := range tokenized {
		seen[php.ClassKey(c.Name())] = true
		for _, name := range references(c) {
			visit(name)
		}
	}
	if filter&ClassInternal != 0 {
		out = append(out, sortedClasses(internal)...)
	}
	if filter&ClassNonexistent != 0 {
		out = append(out, sortedClasses(missing)...)
	}
	return out
}

// references lists the names a class refers to by extends, implements and
// use. Invalid markers contribute the references of every declaration.
func references(c php.ClassInfo) []string {
	if inv, ok := c.(*php.InvalidClass); ok {
		var names []string
		for _, decl := range inv.Declarations() {
			names = append(names, references(decl)...)
		}
		return names
	}
	var names []string
	if parent := c.ParentClassName(); parent != "" {
		names = append(names, parent)
	}
	names = append(names, c.OwnInterfaceNames()...)
	return append(names, c.TraitNames()...)
}

func sortedClasses(m map[string]php.ClassInfo) []php.ClassInfo {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]php.ClassInfo, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
