// Package catalog transforms a DWARF DIE forest into a hierarchical
// JSON document keyed by source-file path. The engine is a multi-pass
// walk: a scope resolver decides where each entity belongs, a type
// reconstructor rebuilds source-level declarator strings, and one
// parser per entity kind writes the records.
package catalog

import (
	"debug/dwarf"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// Config controls a Builder.
type Config struct {
	// Filter restricts output to entities whose normalized decl_file
	// begins with this prefix. Empty matches everything.
	Filter string

	// Demangle stores the demangled form next to captured linkage
	// names.
	Demangle bool
}

// Builder drives the transformation. Parsers run to completion
// synchronously against the shared document; recursion is depth-first,
// so only one parser invocation is ever live.
type Builder struct {
	cfg Config
	log zerolog.Logger
	f   dw.File

	doc     Node
	records int
	units   int
}

// NewBuilder creates a Builder over an opened file.
func NewBuilder(f dw.File, cfg Config, log zerolog.Logger) *Builder {
	return &Builder{
		cfg: cfg,
		log: log,
		f:   f,
		doc: Node{},
	}
}

// Build walks every compilation unit and returns the finished
// document. Each unit's cached subtree is released after its export,
// so the working set stays near one unit's materialized DIEs plus the
// accumulating document.
func (b *Builder) Build() Node {
	for _, u := range b.f.CompilationUnits() {
		start := time.Now()
		for _, child := range u.Children() {
			b.parseDIE(u, child)
		}
		b.units++
		b.log.Info().
			Str("unit", u.Name("?")).
			Dur("elapsed", time.Since(start)).
			Msg("unit exported")
		u.ClearCachedChildren()
	}
	return b.doc
}

// Document returns the output tree built so far.
func (b *Builder) Document() Node { return b.doc }

// Stats returns the number of units processed and records written.
func (b *Builder) Stats() (units, records int) { return b.units, b.records }

// parseDIE dispatches one DIE by tag. Container tags descend without
// contributing a record of their own; entity tags hand off to their
// parser. The std namespace and implementation-reserved namespaces
// (names starting with "__") are opaque: nothing under them is worth
// cataloging and they dominate walk time in real binaries.
func (b *Builder) parseDIE(u dw.CU, die dw.DIE) {
	switch die.Tag() {
	case dwarf.TagNamespace:
		name := die.Name("")
		if name == "std" || strings.HasPrefix(name, "__") {
			return
		}
		b.descendChildren(u, die)
	case dwarf.TagClassType, dwarf.TagStructType, dwarf.TagLexDwarfBlock:
		b.descendChildren(u, die)
	case dwarf.TagSubprogram:
		b.parseFunction(u, die)
	case dwarf.TagEnumerationType:
		b.parseEnum(u, die)
	case dwarf.TagUnionType:
		b.parseUnion(u, die)
	case dwarf.TagVariable:
		b.parseVariable(u, die, false)
	case dwarf.TagMember:
		b.parseVariable(u, die, true)
	case dwarf.TagTypedef:
		b.parseTypedef(u, die)
	case dwarf.TagInheritance:
		b.parseInheritance(u, die)
	case dwarf.TagTemplateTypeParameter, dwarf.TagTemplateValueParameter, dw.TagGNUTemplateParameterPack:
		b.parseClassTemplateParams(u, die)
	}
}

func (b *Builder) descendChildren(u dw.CU, die dw.DIE) {
	for _, child := range die.Children() {
		b.parseDIE(u, child)
	}
}

// storeRecord inserts rec under key unless the key is already taken;
// the declaration written first wins, definitions enrich it in place.
func (b *Builder) storeRecord(node Node, key string, rec Node) {
	if _, ok := node[key]; ok {
		return
	}
	node[key] = rec
	b.records++
}

// putLinkage stores a linkage name and, when demangling is enabled
// and succeeds, its demangled form next to it. prefix is the digit
// ordering prefix shared by both fields ("0" or "1").
func (b *Builder) putLinkage(rec Node, prefix, linkage string) {
	rec[prefix+"-linkage"] = linkage
	if !b.cfg.Demangle {
		return
	}
	if plain, ok := dw.Demangle(linkage); ok {
		rec[prefix+"-demangled"] = plain
	}
}
