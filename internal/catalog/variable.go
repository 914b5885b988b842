package catalog

import (
	"debug/dwarf"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// parseVariable handles variable and member DIEs. As with functions, a
// DIE carrying a specification reference overlays fields onto the
// declaration's record; otherwise a fresh record is written.
func (b *Builder) parseVariable(u dw.CU, die dw.DIE, member bool) {
	if sa := die.Attr(dwarf.AttrSpecification); sa != nil {
		b.parseVariableDefinition(u, die, sa)
		return
	}

	path, ok := b.storePath(u, die)
	if !ok {
		return
	}

	rec := Node{"offset": uint64(die.Offset())}
	for _, a := range die.Attrs() {
		switch a.At {
		case dwarf.AttrName:
			if s, ok := a.Val.Str(); ok {
				rec["0-name"] = s
			}
		case dwarf.AttrDeclLine:
			if v, ok := a.Val.Uint(); ok {
				setPos(rec, "0-decl_pos", 0, v)
			}
		case dwarf.AttrDeclColumn:
			if v, ok := a.Val.Uint(); ok {
				setPos(rec, "0-decl_pos", 1, v)
			}
		case dwarf.AttrDataMemberLoc:
			// Modern producers emit a plain constant; exprloc-encoded
			// offsets from old producers are skipped.
			if v, ok := a.Val.Uint(); ok {
				rec["1-member_location"] = v
			}
		case dwarf.AttrDeclaration:
			rec["0-declaration"] = uint64(1)
		case dwarf.AttrExternal:
			rec["0-external"] = uint64(1)
		case dwarf.AttrAccessibility:
			if v, ok := a.Val.Uint(); ok {
				rec["1-accessibility"] = v
			}
		case dwarf.AttrInline:
			if v, ok := a.Val.Uint(); ok {
				rec["1-inline"] = v
			}
		case dwarf.AttrLocation:
			if loc, ok := a.Val.Loc(); ok && len(loc) > 0 {
				rec["1-location"] = loc[0].String()
			}
		case dwarf.AttrLinkageName:
			if s, ok := a.Val.Str(); ok {
				b.putLinkage(rec, "1", s)
			}
		case dwarf.AttrConstValue:
			// The producer's form decides the reported signedness.
			if a.Val.Unsigned() {
				if v, ok := a.Val.Uint(); ok {
					rec["1-const_val"] = v
				}
			} else if v, ok := a.Val.Int(); ok {
				rec["1-const_val"] = v
			}
		case dwarf.AttrBitSize:
			if v, ok := a.Val.Uint(); ok {
				rec["1-bit_size"] = v
			}
		case dwarf.AttrBitOffset:
			if v, ok := a.Val.Uint(); ok {
				rec["1-bit_offset"] = v
			}
		}
	}

	// The variable's own name threads through as the declarator
	// placeholder, so an array member renders "int foo[4]".
	rec["1-type"] = b.typeString(die, die.Name("`Unnamed`"))

	node := descend(b.doc, path)
	b.storeRecord(node, varKey(declLine(die), die.Name("`Unnamed`"), member), rec)
}

// parseVariableDefinition overlays a defining DIE's location and
// linkage onto the record keyed by its specification. Whether the
// entity is a member follows the specification's tag, not the caller's
// guess: an out-of-line static member definition is a variable DIE
// whose specification is a member DIE.
func (b *Builder) parseVariableDefinition(u dw.CU, die dw.DIE, sa *dw.Attr) {
	spec := b.lookup(sa)
	if spec == nil {
		b.log.Debug().
			Uint64("offset", uint64(die.Offset())).
			Msg("dangling variable specification")
		return
	}
	path, ok := b.storePath(u, spec)
	if !ok {
		return
	}
	member := spec.Tag() == dwarf.TagMember
	key := varKey(declLine(spec), spec.Name("`Unnamed`"), member)

	node := descend(b.doc, path)
	if _, ok := node[key]; !ok {
		b.parseVariable(u, spec, member)
	}
	rec := child(node, key)

	for _, a := range die.Attrs() {
		switch a.At {
		case dwarf.AttrLocation:
			if loc, ok := a.Val.Loc(); ok && len(loc) > 0 {
				putIfAbsent(rec, "1-location", loc[0].String())
			}
		case dwarf.AttrLinkageName:
			if s, ok := a.Val.Str(); ok {
				b.putLinkage(rec, "1", s)
			}
		}
	}
}
