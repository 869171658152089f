package tsindex

import (
	"github.com/walteh/gocssmods/pkg/position"
)

type occurrenceKind int

const (
	// name of a top level declaration
	kindDeclaration occurrenceKind = iota
	// any other identifier, possibly naming a module binding
	kindReference
	// local side of an export specifier
	kindExportLocal
	// exported name of an export specifier or an exported declaration
	kindExportName
	// imported name of an import specifier, or the source name of a re-export
	kindImportName
	// binding created by a default or namespace import
	kindImportLocal
	// property read through a namespace import, `ns.name` or `ns['name']`
	kindMember
)

type occurrence struct {
	kind occurrenceKind
	// span covers the identifier, or the contents of a string literal without quotes
	span position.RawPosition
	// name is the identifier or the decoded string value
	name string
	// object is the namespace identifier of a member, or the module specifier of an
	// import name
	object string
}

type importBinding struct {
	specifier string
	// name is the imported export, "*" for namespace imports
	name string
}

type module struct {
	fileName    string
	version     string
	occurrences []occurrence
	// bindings maps top level names to their declaration span
	bindings map[string]position.RawPosition
	// exports maps exported names to local names
	exports map[string]string
	// reexports maps exported names forwarded from another module
	reexports map[string]importBinding
	imports   map[string]importBinding
}

var declarationKeywords = map[string]bool{
	"var":       true,
	"let":       true,
	"const":     true,
	"function":  true,
	"class":     true,
	"interface": true,
	"type":      true,
	"enum":      true,
	"namespace": true,
}

type moduleParser struct {
	toks []token
	mod  *module
}

func parseModule(fileName, version, text string) (*module, error) {
	toks, err := tokenize(fileName, text)
	if err != nil {
		return nil, err
	}

	p := &moduleParser{
		toks: toks,
		mod: &module{
			fileName:  fileName,
			version:   version,
			bindings:  map[string]position.RawPosition{},
			exports:   map[string]string{},
			reexports: map[string]importBinding{},
			imports:   map[string]importBinding{},
		},
	}
	p.parse()
	return p.mod, nil
}

func (p *moduleParser) at(i int) token {
	if i < 0 || i >= len(p.toks) {
		return token{kind: tokenOther}
	}
	return p.toks[i]
}

func (p *moduleParser) add(occ occurrence) {
	p.mod.occurrences = append(p.mod.occurrences, occ)
}

func identSpan(t token) position.RawPosition {
	return position.NewBasicPosition(t.value, t.offset)
}

// stringSpan covers the literal contents between the quotes.
func stringSpan(t token) position.RawPosition {
	return position.NewBasicPosition(t.value[1:len(t.value)-1], t.offset+1)
}

func (p *moduleParser) parse() {
	depth := 0
	for i := 0; i < len(p.toks); {
		t := p.toks[i]
		switch {
		case t.isChar("{"):
			depth++
			i++
		case t.isChar("}"):
			depth--
			i++
		case depth == 0 && t.is(tokenIdent, "import") && p.at(i+1).kind != tokenDot && !p.at(i+1).isChar("("):
			i = p.parseImport(i + 1)
		case depth == 0 && t.is(tokenIdent, "export"):
			i = p.parseExport(i + 1)
		case depth == 0 && p.startsDeclaration(i):
			i, _ = p.parseDeclaration(i)
		case t.kind == tokenIdent:
			i = p.parseIdentifierUse(i)
		default:
			i++
		}
	}
}

func (p *moduleParser) startsDeclaration(i int) bool {
	t := p.at(i)
	if t.is(tokenIdent, "declare") {
		t = p.at(i + 1)
	}
	return t.kind == tokenIdent && declarationKeywords[t.value] && p.at(i+1).kind != tokenDot
}

// parseDeclaration records `[declare] <keyword> <name>` and returns the index after the
// name together with the name. Destructuring patterns declare nothing.
func (p *moduleParser) parseDeclaration(i int) (int, string) {
	if p.at(i).is(tokenIdent, "declare") {
		i++
	}
	// keyword, then `const enum`, `function*` and `abstract class` variants
	i++
	for p.at(i).is(tokenIdent, "enum") || p.at(i).isChar("*") || p.at(i).is(tokenIdent, "class") {
		i++
	}

	name := p.at(i)
	if name.kind != tokenIdent {
		return i, ""
	}

	if _, ok := p.mod.bindings[name.value]; !ok {
		p.mod.bindings[name.value] = identSpan(name)
	}
	p.add(occurrence{kind: kindDeclaration, span: identSpan(name), name: name.value})
	return i + 1, name.value
}

func (p *moduleParser) parseExport(i int) int {
	t := p.at(i)
	switch {
	case t.isChar("{"):
		return p.parseExportClause(i + 1)
	case t.is(tokenIdent, "default"):
		next := p.at(i + 1)
		if next.kind == tokenIdent && !p.startsDeclaration(i+1) && p.at(i+2).kind != tokenDot {
			p.mod.exports["default"] = next.value
			p.add(occurrence{kind: kindExportLocal, span: identSpan(next), name: next.value})
			return i + 2
		}
		if p.startsDeclaration(i + 1) {
			end, name := p.parseDeclaration(i + 1)
			if name != "" {
				p.mod.exports["default"] = name
			}
			return end
		}
		return i + 1
	case p.startsDeclaration(i):
		end, name := p.parseDeclaration(i)
		if name != "" {
			p.mod.exports[name] = name
			decl := p.mod.occurrences[len(p.mod.occurrences)-1]
			p.add(occurrence{kind: kindExportName, span: decl.span, name: name})
		}
		return end
	}
	return i
}

type specifier struct {
	name  token
	alias token
}

func specifierName(t token) (string, position.RawPosition) {
	if t.kind == tokenString {
		return unquote(t.value), stringSpan(t)
	}
	return t.value, identSpan(t)
}

// parseSpecifiers reads `a, b as c, 'd' as e }` and returns the index after the brace.
func (p *moduleParser) parseSpecifiers(i int) ([]specifier, int) {
	var specs []specifier
	for i < len(p.toks) && !p.at(i).isChar("}") {
		t := p.at(i)
		if t.is(tokenIdent, "type") && (p.at(i+1).kind == tokenIdent || p.at(i+1).kind == tokenString) {
			i++
			t = p.at(i)
		}
		if t.kind != tokenIdent && t.kind != tokenString {
			i++
			continue
		}
		spec := specifier{name: t, alias: t}
		i++
		if p.at(i).is(tokenIdent, "as") {
			alias := p.at(i + 1)
			if alias.kind == tokenIdent || alias.kind == tokenString {
				spec.alias = alias
				i += 2
			}
		}
		specs = append(specs, spec)
		if p.at(i).isChar(",") {
			i++
		}
	}
	return specs, i + 1
}

func (p *moduleParser) parseFrom(i int) (string, int, bool) {
	if p.at(i).is(tokenIdent, "from") && p.at(i+1).kind == tokenString {
		return unquote(p.at(i + 1).value), i + 2, true
	}
	return "", i, false
}

func (p *moduleParser) parseExportClause(i int) int {
	specs, i := p.parseSpecifiers(i)
	from, i, reexport := p.parseFrom(i)

	for _, spec := range specs {
		local, localSpan := specifierName(spec.name)
		exported, exportedSpan := specifierName(spec.alias)

		if reexport {
			p.mod.reexports[exported] = importBinding{specifier: from, name: local}
			p.add(occurrence{kind: kindImportName, span: localSpan, name: local, object: from})
		} else {
			p.mod.exports[exported] = local
			p.add(occurrence{kind: kindExportLocal, span: localSpan, name: local})
		}

		if spec.alias != spec.name {
			p.add(occurrence{kind: kindExportName, span: exportedSpan, name: exported})
		}
	}
	return i
}

func (p *moduleParser) parseImport(i int) int {
	if p.at(i).is(tokenIdent, "type") && !p.at(i+1).is(tokenIdent, "from") {
		i++
	}

	var locals []occurrence
	var named []specifier
	var defaultLocal, namespaceLocal string

	for i < len(p.toks) {
		t := p.at(i)
		switch {
		case t.kind == tokenString:
			// side effect import
			return i + 1
		case t.is(tokenIdent, "from"):
			from, end, ok := p.parseFrom(i)
			if !ok {
				return i + 1
			}
			p.bindImports(from, defaultLocal, namespaceLocal, locals, named)
			return end
		case t.isChar("*") && p.at(i+1).is(tokenIdent, "as") && p.at(i+2).kind == tokenIdent:
			local := p.at(i + 2)
			namespaceLocal = local.value
			locals = append(locals, occurrence{kind: kindImportLocal, span: identSpan(local), name: local.value})
			i += 3
		case t.isChar("{"):
			named, i = p.parseSpecifiers(i + 1)
		case t.kind == tokenIdent:
			defaultLocal = t.value
			locals = append(locals, occurrence{kind: kindImportLocal, span: identSpan(t), name: t.value})
			i++
		case t.isChar(","):
			i++
		default:
			return i
		}
	}
	return i
}

func (p *moduleParser) bindImports(from, defaultLocal, namespaceLocal string, locals []occurrence, named []specifier) {
	if defaultLocal != "" {
		p.mod.imports[defaultLocal] = importBinding{specifier: from, name: "default"}
	}
	if namespaceLocal != "" {
		p.mod.imports[namespaceLocal] = importBinding{specifier: from, name: "*"}
	}
	for _, occ := range locals {
		p.add(occ)
		if occ.name == namespaceLocal {
			p.mod.bindings[occ.name] = occ.span
		}
	}
	for _, spec := range named {
		imported, importedSpan := specifierName(spec.name)
		p.add(occurrence{kind: kindImportName, span: importedSpan, name: imported, object: from})
		if spec.alias.kind != tokenIdent {
			continue
		}
		p.mod.imports[spec.alias.value] = importBinding{specifier: from, name: imported}
		if spec.alias != spec.name {
			p.add(occurrence{kind: kindImportLocal, span: identSpan(spec.alias), name: spec.alias.value})
		}
	}
}

// parseIdentifierUse records a reference and, for `ns.name` or `ns['name']`, the member.
func (p *moduleParser) parseIdentifierUse(i int) int {
	t := p.at(i)
	if p.at(i-1).kind == tokenDot {
		// property name of an earlier member expression
		return i + 1
	}

	p.add(occurrence{kind: kindReference, span: identSpan(t), name: t.value})

	next := p.at(i + 1)
	switch {
	case next.kind == tokenDot && p.at(i+2).kind == tokenIdent:
		member := p.at(i + 2)
		p.add(occurrence{kind: kindMember, span: identSpan(member), name: member.value, object: t.value})
		return i + 3
	case next.isChar("[") && p.at(i+2).kind == tokenString && p.at(i+3).isChar("]"):
		member := p.at(i + 2)
		p.add(occurrence{kind: kindMember, span: stringSpan(member), name: unquote(member.value), object: t.value})
		return i + 4
	}
	return i + 1
}
