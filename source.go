package hwcover

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtensions are the file extensions indexed for source locators.
var DefaultExtensions = []string{".scala", ".sv", ".v", ".vhd", ".vhdl", ".py", ".fir"}

// Source lists the source files a SourceIndex is built from.
type Source interface {
	// ListFiles returns every source file path known to this source.
	ListFiles() ([]string, error)
}

// SourceOption configures a source.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	extensions []string
}

func defaultSourceConfig() sourceConfig {
	return sourceConfig{
		extensions: DefaultExtensions,
	}
}

// WithExtensions sets the file extensions to recognize for this source.
func WithExtensions(exts ...string) SourceOption {
	return func(c *sourceConfig) {
		c.extensions = exts
	}
}

// --- Dir Source (single directory) ---

type dirSource struct {
	path   string
	config sourceConfig
}

// Dir creates a Source listing a single directory (no recursion).
func Dir(path string, opts ...SourceOption) (Source, error) {
	if err := checkDir(path); err != nil {
		return nil, err
	}
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &dirSource{path: path, config: cfg}, nil
}

// MustDir is like Dir but panics on error.
func MustDir(path string, opts ...SourceOption) Source {
	src, err := Dir(path, opts...)
	if err != nil {
		panic(err)
	}
	return src
}

func (s *dirSource) ListFiles() ([]string, error) {
	extSet := makeExtensionSet(s.config.extensions)
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(s.path, entry.Name())
		if hasValidExtension(p, extSet) {
			files = append(files, p)
		}
	}
	return files, nil
}

// --- DirTree Source (recursive directory) ---

type treeSource struct {
	root   string
	config sourceConfig
}

// DirTree creates a Source that recursively lists a directory tree in
// lexical order. Unreadable subdirectories are skipped.
func DirTree(root string, opts ...SourceOption) (Source, error) {
	if err := checkDir(root); err != nil {
		return nil, err
	}
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &treeSource{root: root, config: cfg}, nil
}

// MustDirTree is like DirTree but panics on error.
func MustDirTree(root string, opts ...SourceOption) Source {
	src, err := DirTree(root, opts...)
	if err != nil {
		panic(err)
	}
	return src
}

func (s *treeSource) ListFiles() ([]string, error) {
	extSet := makeExtensionSet(s.config.extensions)
	var files []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && hasValidExtension(p, extSet) {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// --- FS Source (for embed.FS, testing) ---

type fsSource struct {
	name   string
	fsys   fs.FS
	config sourceConfig
}

// FS creates a Source backed by an fs.FS (e.g., embed.FS). Listed paths
// are prefixed with name.
func FS(name string, fsys fs.FS, opts ...SourceOption) Source {
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &fsSource{name: name, fsys: fsys, config: cfg}
}

func (s *fsSource) ListFiles() ([]string, error) {
	extSet := makeExtensionSet(s.config.extensions)
	var files []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && hasValidExtension(p, extSet) {
			files = append(files, path.Join(s.name, p))
		}
		return nil
	})
	return files, err
}

// --- Multi Source (combines multiple sources) ---

type multiSource struct {
	sources []Source
}

// Multi combines multiple sources into one, listing them in order.
func Multi(sources ...Source) Source {
	return &multiSource{sources: sources}
}

func (s *multiSource) ListFiles() ([]string, error) {
	var files []string
	for _, src := range s.sources {
		f, err := src.ListFiles()
		if err != nil {
			return nil, err
		}
		files = append(files, f...)
	}
	return files, nil
}

// --- SourceIndex ---

// SourceIndex maps the file key of a source locator, the base name as in
// "Core.scala 12:3", to the file path it names. A key shared by several
// files is ambiguous and never resolves.
type SourceIndex struct {
	paths      map[string]string
	duplicates map[string][]string
}

// NewSourceIndex lists src and indexes every file by base name.
func NewSourceIndex(src Source) (*SourceIndex, error) {
	files, err := src.ListFiles()
	if err != nil {
		return nil, err
	}
	idx := &SourceIndex{
		paths:      make(map[string]string),
		duplicates: make(map[string][]string),
	}
	for _, p := range files {
		key := sourceKey(p)
		first, exists := idx.paths[key]
		if !exists {
			idx.paths[key] = p
			continue
		}
		if first == p {
			continue
		}
		if _, dup := idx.duplicates[key]; !dup {
			idx.duplicates[key] = []string{first}
		}
		if !slices.Contains(idx.duplicates[key], p) {
			idx.duplicates[key] = append(idx.duplicates[key], p)
		}
	}
	return idx, nil
}

// Resolve returns the path of the file named key.
func (x *SourceIndex) Resolve(key string) (string, bool) {
	if x == nil {
		return "", false
	}
	if _, dup := x.duplicates[key]; dup {
		return "", false
	}
	p, ok := x.paths[key]
	return p, ok
}

// Len returns the number of indexed keys, ambiguous ones included.
func (x *SourceIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.paths)
}

// DuplicateKeys returns the ambiguous keys in sorted order.
func (x *SourceIndex) DuplicateKeys() []string {
	if x == nil {
		return nil
	}
	keys := make([]string, 0, len(x.duplicates))
	for k := range x.duplicates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Candidates returns every file sharing an ambiguous key.
func (x *SourceIndex) Candidates(key string) []string {
	if x == nil {
		return nil
	}
	return slices.Clone(x.duplicates[key])
}

// --- Helpers ---

func checkDir(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "open", Path: p, Err: os.ErrInvalid}
	}
	return nil
}

func makeExtensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

func hasValidExtension(p string, extSet map[string]struct{}) bool {
	ext := strings.ToLower(filepath.Ext(p))
	_, ok := extSet[ext]
	return ok
}

func sourceKey(p string) string {
	return filepath.Base(filepath.FromSlash(p))
}
