// Package tsindex is a lexical TypeScript navigation service. It understands top level
// declarations, import and export clauses and namespace member access, which is enough to
// follow names across the declaration modules the stylesheet adapter produces and the
// scripts that import them. Scopes are not modeled: every identifier matching a top level
// name is treated as a use of it.
package tsindex

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/gocssmods/pkg/host"
	"gitlab.com/tozd/go/errors"
)

// re-export and alias chains longer than this are treated as unresolved
const maxResolveDepth = 16

var moduleSuffixes = []string{"", ".ts", ".tsx", ".d.ts", "/index.ts"}

type symbolKind int

const (
	symbolBinding symbolKind = iota
	symbolExport
)

type symbol struct {
	kind symbolKind
	file string
	name string
}

// Index answers navigation queries over the files of a host. Parsed modules are cached
// per file and reparsed when the snapshot version changes.
type Index struct {
	host host.Host

	mu      sync.Mutex
	modules map[string]*module
}

var _ host.Service = (*Index)(nil)

func New(h host.Host) *Index {
	return &Index{host: h, modules: map[string]*module{}}
}

func (me *Index) load(fileName string) (*module, error) {
	snap, ok := me.host.ScriptSnapshot(fileName)
	if !ok {
		return nil, errors.Errorf("%s: %w", fileName, host.ErrFileNotFound)
	}

	me.mu.Lock()
	defer me.mu.Unlock()

	if mod, ok := me.modules[fileName]; ok && mod.version == snap.Version() {
		return mod, nil
	}

	mod, err := parseModule(fileName, snap.Version(), snap.Text())
	if err != nil {
		return nil, errors.Errorf("parsing module %s: %w", fileName, err)
	}
	me.modules[fileName] = mod
	return mod, nil
}

func (me *Index) resolveModule(from, specifier string) (*module, bool) {
	if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
		return nil, false
	}
	base := filepath.Join(filepath.Dir(from), filepath.FromSlash(specifier))
	for _, suffix := range moduleSuffixes {
		mod, err := me.load(base + filepath.FromSlash(suffix))
		if err == nil {
			return mod, true
		}
	}
	return nil, false
}

// resolveLocal finds the symbol a name refers to inside mod.
func (me *Index) resolveLocal(mod *module, name string, depth int) (symbol, bool) {
	if imp, ok := mod.imports[name]; ok && imp.name != "*" {
		target, ok := me.resolveModule(mod.fileName, imp.specifier)
		if !ok {
			return symbol{}, false
		}
		return me.canonicalExport(target, imp.name, depth+1)
	}
	if _, ok := mod.bindings[name]; ok {
		return symbol{kind: symbolBinding, file: mod.fileName, name: name}, true
	}
	return symbol{}, false
}

// canonicalExport follows re-exports that keep the exported name to the module owning the
// export. A re-export under another name is an export of its own.
func (me *Index) canonicalExport(mod *module, name string, depth int) (symbol, bool) {
	if depth > maxResolveDepth {
		return symbol{}, false
	}
	if re, ok := mod.reexports[name]; ok && re.name == name {
		target, ok := me.resolveModule(mod.fileName, re.specifier)
		if !ok {
			return symbol{}, false
		}
		return me.canonicalExport(target, re.name, depth+1)
	}
	return symbol{kind: symbolExport, file: mod.fileName, name: name}, true
}

func (me *Index) resolve(mod *module, occ occurrence) (symbol, bool) {
	switch occ.kind {
	case kindExportName:
		return me.canonicalExport(mod, occ.name, 0)
	case kindImportName:
		target, ok := me.resolveModule(mod.fileName, occ.object)
		if !ok {
			return symbol{}, false
		}
		return me.canonicalExport(target, occ.name, 0)
	case kindMember:
		imp, ok := mod.imports[occ.object]
		if !ok || imp.name != "*" {
			return symbol{}, false
		}
		target, ok := me.resolveModule(mod.fileName, imp.specifier)
		if !ok {
			return symbol{}, false
		}
		return me.canonicalExport(target, occ.name, 0)
	default:
		return me.resolveLocal(mod, occ.name, 0)
	}
}

// root returns the binding an export aliases, or the symbol itself.
func (me *Index) root(sym symbol) symbol {
	for depth := 0; sym.kind == symbolExport && depth < maxResolveDepth; depth++ {
		mod, err := me.load(sym.file)
		if err != nil {
			return sym
		}

		var next symbol
		if local, ok := mod.exports[sym.name]; ok {
			next, ok = me.resolveLocal(mod, local, depth)
			if !ok {
				return sym
			}
		} else if re, ok := mod.reexports[sym.name]; ok {
			target, ok := me.resolveModule(mod.fileName, re.specifier)
			if !ok {
				return sym
			}
			next, ok = me.canonicalExport(target, re.name, depth)
			if !ok {
				return sym
			}
		} else {
			return sym
		}

		if next == sym {
			return sym
		}
		sym = next
	}
	return sym
}

// occurrenceAt prefers an occurrence strictly containing offset over one that ends there.
func (mod *module) occurrenceAt(offset int) (occurrence, bool) {
	var touching *occurrence
	for i, occ := range mod.occurrences {
		if offset >= occ.span.Offset && offset < occ.span.End() {
			return occ, true
		}
		if touching == nil && offset == occ.span.End() {
			touching = &mod.occurrences[i]
		}
	}
	if touching != nil {
		return *touching, true
	}
	return occurrence{}, false
}

func (me *Index) symbolAt(ctx context.Context, fileName string, offset int) (symbol, bool, error) {
	if err := ctx.Err(); err != nil {
		return symbol{}, false, err
	}

	mod, err := me.load(fileName)
	if err != nil {
		return symbol{}, false, err
	}

	occ, ok := mod.occurrenceAt(offset)
	if !ok {
		zerolog.Ctx(ctx).Trace().Str("file", fileName).Int("offset", offset).Msg("no occurrence at offset")
		return symbol{}, false, nil
	}

	sym, ok := me.resolve(mod, occ)
	zerolog.Ctx(ctx).Trace().
		Str("file", fileName).
		Int("offset", offset).
		Str("occurrence", occ.span.String()).
		Bool("resolved", ok).
		Str("symbol_file", sym.file).
		Str("symbol_name", sym.name).
		Msg("resolved occurrence")
	return sym, ok, nil
}

// Definition returns the declaration of the symbol at offset.
func (me *Index) Definition(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	sym, ok, err := me.symbolAt(ctx, fileName, offset)
	if err != nil || !ok {
		return nil, err
	}

	sym = me.root(sym)
	mod, err := me.load(sym.file)
	if err != nil {
		return nil, err
	}

	if sym.kind == symbolBinding {
		if span, ok := mod.bindings[sym.name]; ok {
			return []host.Location{{FileName: sym.file, Span: span}}, nil
		}
		return nil, nil
	}

	for _, occ := range mod.occurrences {
		if occ.kind == kindExportName && occ.name == sym.name {
			return []host.Location{{FileName: sym.file, Span: occ.span}}, nil
		}
	}
	return nil, nil
}

// References returns every occurrence of the symbol at offset together with the exports
// aliasing the same binding.
func (me *Index) References(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	sym, ok, err := me.symbolAt(ctx, fileName, offset)
	if err != nil || !ok {
		return nil, err
	}

	want := me.root(sym)
	return me.collect(ctx, func(s symbol) bool {
		return me.root(s) == want
	})
}

// RenameLocations returns the occurrences of exactly the symbol at offset. Renaming a
// binding leaves the names it is exported under untouched.
func (me *Index) RenameLocations(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	sym, ok, err := me.symbolAt(ctx, fileName, offset)
	if err != nil || !ok {
		return nil, err
	}

	return me.collect(ctx, func(s symbol) bool {
		return s == sym
	})
}

func (me *Index) collect(ctx context.Context, match func(symbol) bool) ([]host.Location, error) {
	names := me.host.ScriptFileNames()
	sort.Strings(names)

	seen := map[host.Location]bool{}
	var out []host.Location
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mod, err := me.load(name)
		if err != nil {
			return nil, errors.Errorf("collecting occurrences: %w", err)
		}

		for _, occ := range mod.occurrences {
			sym, ok := me.resolve(mod, occ)
			if !ok || !match(sym) {
				continue
			}
			loc := host.Location{FileName: name, Span: occ.span}
			if seen[loc] {
				continue
			}
			seen[loc] = true
			out = append(out, loc)
		}
	}
	return out, nil
}
