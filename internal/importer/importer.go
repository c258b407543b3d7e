package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cashcheck-dev/cashcheck/internal/model"
)

// Parser converts provider CSV rows into canonical transactions.
type Parser interface {
	Parse(rows []Row, accountID string, loc *time.Location) ([]model.Transaction, error)
	Provider() model.Provider
}

// Registry holds one parser per provider.
type Registry struct {
	parsers map[model.Provider]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[model.Provider]Parser)}
}

// Register adds a parser. Panics on duplicate provider.
func (r *Registry) Register(p Parser) {
	key := p.Provider()
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser provider: " + string(key))
	}
	r.parsers[key] = p
}

// Get returns the parser for provider, or nil. Lookup is case-insensitive.
func (r *Registry) Get(provider model.Provider) Parser {
	return r.parsers[model.Provider(strings.ToUpper(string(provider)))]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&VenmoParser{})
	return r
}

// ParseRows parses rows with the default parser for provider.
func ParseRows(provider model.Provider, rows []Row, accountID string, loc *time.Location) ([]model.Transaction, error) {
	p := DefaultRegistry().Get(provider)
	if p == nil {
		return nil, fmt.Errorf("no parser for provider %q", provider)
	}
	return p.Parse(rows, accountID, loc)
}

// ProcessedDir is the subdirectory, relative to the import directory, that
// imported files are moved into.
const ProcessedDir = "processed"

// Scan returns the CSV files directly inside dir. A missing dir yields nil.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, ProcessedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
