package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ruleworks/arbiter/pkg/engine"
	"ruleworks/arbiter/pkg/rules"
)

// Directory loads every rule document in a directory into an Engine and
// tracks which file produced which registration, so the Watcher can
// re-register or deregister on file changes.
type Directory struct {
	dir    string
	engine *engine.Engine
	logger *slog.Logger

	mu    sync.Mutex
	names map[string]string // file path -> registered rule set name
}

// NewDirectory creates a directory loader targeting the given engine.
func NewDirectory(dir string, eng *engine.Engine, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		dir:    dir,
		engine: eng,
		logger: logger.With("component", "loader", "dir", dir),
		names:  make(map[string]string),
	}
}

// LoadAll loads every supported file in the directory (non-recursive) and
// registers the resulting rule sets. It returns the number of rule sets
// registered. Partial documents (some rules dropped) are registered and
// logged; unreadable documents are skipped and logged.
func (d *Directory) LoadAll() (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read ruleset directory %q: %w", d.dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !supportedFile(entry.Name()) {
			continue
		}
		path := filepath.Join(d.dir, entry.Name())
		if err := d.LoadFile(path); err != nil {
			d.logger.Warn("skipping rule document", "path", path, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// LoadFile loads one rule document and registers it under its document
// name, replacing any previous registration from the same file.
func (d *Directory) LoadFile(path string) error {
	rs, err := loadFile(path)

	var docErr *DocumentError
	switch {
	case err == nil:
	case rs != nil && isDocumentError(err, &docErr):
		// Partial load: register what compiled, report what did not.
		d.logger.Warn("rule document loaded partially",
			"path", path,
			"loaded", rs.Len(),
			"dropped", len(docErr.RuleErrors),
			"error", docErr,
		)
	default:
		return err
	}

	if err := d.engine.RegisterRuleSet(rs.Name(), rs); err != nil {
		return err
	}

	d.mu.Lock()
	previous, hadPrevious := d.names[path]
	d.names[path] = rs.Name()
	d.mu.Unlock()

	// A file whose document was renamed leaves a stale registration
	// behind; drop it.
	if hadPrevious && previous != rs.Name() {
		d.engine.DeregisterRuleSet(previous)
	}

	return nil
}

// Remove deregisters the rule set loaded from path, if any.
func (d *Directory) Remove(path string) {
	d.mu.Lock()
	name, ok := d.names[path]
	delete(d.names, path)
	d.mu.Unlock()

	if ok {
		d.engine.DeregisterRuleSet(name)
	}
}

func loadFile(path string) (*rules.RuleSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAMLFile(path)
	case ".csv":
		return FromTableFile(path)
	}
	return nil, fmt.Errorf("unsupported rule document %q", path)
}

func supportedFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".csv":
		return true
	}
	return false
}

func isDocumentError(err error, target **DocumentError) bool {
	de, ok := err.(*DocumentError)
	if ok {
		*target = de
	}
	return ok
}
