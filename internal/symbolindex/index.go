// Package symbolindex implements the workspace symbol index and its
// persistent cache: name/kind/container/file indices built from
// textDocument/documentSymbol responses, content-hash keyed caching so
// unchanged files are not re-queried, and a small event bus reindexing
// consumers can subscribe to.
package symbolindex

import (
	"strings"
	"sync"

	"go.lsp.dev/protocol"
)

// Symbol is one indexed workspace symbol, flattened out of a possibly
// nested DocumentSymbol response: hierarchical document symbols are
// flattened, retaining the parent name as Container.
type Symbol struct {
	Name      string
	Kind      protocol.SymbolKind
	Container string
	File      string
	Range     protocol.Range
	External  bool
}

// Query describes a symbol lookup's matching rules: an exact name match
// is preferred; if none exists, names are matched by substring. Kinds,
// when non-empty, intersect the result. External symbols are excluded
// unless IncludeExternal or OnlyExternal is set.
type Query struct {
	Name            string
	Kinds           []protocol.SymbolKind
	IncludeExternal bool
	OnlyExternal    bool
}

// Stats summarizes index size for diagnosability.
type Stats struct {
	Files   int
	Symbols int
}

// Index is a thread-safe in-memory multi-index over a workspace's symbols.
type Index struct {
	mu          sync.RWMutex
	byFile      map[string][]*Symbol
	byName      map[string][]*Symbol
	byContainer map[string][]*Symbol
	byKind      map[protocol.SymbolKind][]*Symbol
}

// New constructs an empty Index.
func New() *Index {
	return &Index{
		byFile:      make(map[string][]*Symbol),
		byName:      make(map[string][]*Symbol),
		byContainer: make(map[string][]*Symbol),
		byKind:      make(map[protocol.SymbolKind][]*Symbol),
	}
}

// IndexFile replaces all symbols previously indexed for file with symbols.
func (idx *Index) IndexFile(file string, symbols []*Symbol) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(file)
	idx.byFile[file] = symbols
	for _, s := range symbols {
		key := strings.ToLower(s.Name)
		idx.byName[key] = append(idx.byName[key], s)
		if s.Container != "" {
			ckey := strings.ToLower(s.Container)
			idx.byContainer[ckey] = append(idx.byContainer[ckey], s)
		}
		idx.byKind[s.Kind] = append(idx.byKind[s.Kind], s)
	}
}

// RemoveFile drops every symbol indexed for file, used on the
// file-removed invalidation path.
func (idx *Index) RemoveFile(file string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(file)
}

func (idx *Index) removeFileLocked(file string) {
	old, ok := idx.byFile[file]
	if !ok {
		return
	}
	delete(idx.byFile, file)
	for _, s := range old {
		key := strings.ToLower(s.Name)
		idx.byName[key] = removeSymbol(idx.byName[key], s)
		if len(idx.byName[key]) == 0 {
			delete(idx.byName, key)
		}
		if s.Container != "" {
			ckey := strings.ToLower(s.Container)
			idx.byContainer[ckey] = removeSymbol(idx.byContainer[ckey], s)
			if len(idx.byContainer[ckey]) == 0 {
				delete(idx.byContainer, ckey)
			}
		}
		idx.byKind[s.Kind] = removeSymbol(idx.byKind[s.Kind], s)
		if len(idx.byKind[s.Kind]) == 0 {
			delete(idx.byKind, s.Kind)
		}
	}
}

func removeSymbol(list []*Symbol, target *Symbol) []*Symbol {
	out := list[:0]
	for _, s := range list {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// Query returns symbols matching q: exact name match first, falling back
// to substring; kind filter intersects; external symbols excluded unless
// asked for.
func (idx *Index) Query(q Query) []*Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var candidates []*Symbol
	if q.Name == "" {
		if len(q.Kinds) > 0 {
			for _, k := range q.Kinds {
				candidates = append(candidates, idx.byKind[k]...)
			}
		} else {
			for _, list := range idx.byFile {
				candidates = append(candidates, list...)
			}
		}
	} else {
		key := strings.ToLower(q.Name)
		if exact, ok := idx.byName[key]; ok {
			candidates = append(candidates, exact...)
		} else {
			for name, list := range idx.byName {
				if strings.Contains(name, key) {
					candidates = append(candidates, list...)
				}
			}
		}
	}

	kindSet := make(map[protocol.SymbolKind]bool, len(q.Kinds))
	for _, k := range q.Kinds {
		kindSet[k] = true
	}

	out := make([]*Symbol, 0, len(candidates))
	for _, s := range candidates {
		if len(kindSet) > 0 && !kindSet[s.Kind] {
			continue
		}
		if s.External {
			if !q.IncludeExternal && !q.OnlyExternal {
				continue
			}
		} else if q.OnlyExternal {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SymbolAt returns the innermost symbol in file whose range contains pos,
// used to resolve "the symbol at this line" tool arguments.
func (idx *Index) SymbolAt(file string, pos protocol.Position) *Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var best *Symbol
	for _, s := range idx.byFile[file] {
		if !contains(s.Range, pos) {
			continue
		}
		if best == nil || smaller(s.Range, best.Range) {
			best = s
		}
	}
	return best
}

func contains(r protocol.Range, p protocol.Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character > r.End.Character {
		return false
	}
	return true
}

func smaller(a, b protocol.Range) bool {
	spanLines := func(r protocol.Range) uint32 { return r.End.Line - r.Start.Line }
	return spanLines(a) < spanLines(b)
}

// Stats returns the current size of the index.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	total := 0
	for _, list := range idx.byFile {
		total += len(list)
	}
	return Stats{Files: len(idx.byFile), Symbols: total}
}
