package catalog

import (
	"debug/dwarf"
	"fmt"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// parseEnum records an enumeration: its base type and one content
// entry per enumerator, with const_value signedness preserved.
func (b *Builder) parseEnum(u dw.CU, die dw.DIE) {
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
		case dwarf.AttrEnumClass:
			rec["0-enum_class"] = uint64(1)
		case dwarf.AttrDeclLine:
			if v, ok := a.Val.Uint(); ok {
				setPos(rec, "0-decl_pos", 0, v)
			}
		case dwarf.AttrDeclColumn:
			if v, ok := a.Val.Uint(); ok {
				setPos(rec, "0-decl_pos", 1, v)
			}
		}
	}

	rec["1-type"] = b.typeString(die, "")

	for _, c := range die.Children() {
		if c.Tag() != dwarf.TagEnumerator {
			continue
		}
		cv := c.Attr(dwarf.AttrConstValue)
		if cv == nil {
			continue
		}
		content := child(rec, "content")
		if cv.Val.Unsigned() {
			if v, ok := cv.Val.Uint(); ok {
				putIfAbsent(content, c.Name(""), v)
			}
		} else if v, ok := cv.Val.Int(); ok {
			putIfAbsent(content, c.Name(""), v)
		}
	}

	node := descend(b.doc, path)
	b.storeRecord(node, enumKey(declLine(die), die.Name("`anonymous`")), rec)
}

// parseUnion records a union's own attributes under "union: <name>"
// (no line prefix; members nest under the record's content key via the
// scope resolver) and then descends into its children.
func (b *Builder) parseUnion(u dw.CU, die dw.DIE) {
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
		case dwarf.AttrByteSize:
			if v, ok := a.Val.Uint(); ok {
				rec["0-byte_size"] = v
			}
		}
	}

	node := descend(b.doc, path)
	b.storeRecord(node, unionKey(die.Name("`anonymous`")), rec)

	b.descendChildren(u, die)
}

// parseTypedef records a typedef and the declarator of its underlying
// type with the default "{}" placeholder.
func (b *Builder) parseTypedef(u dw.CU, die dw.DIE) {
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
		}
	}

	rec["1-ori_type"] = b.typeString(die, "{}")

	node := descend(b.doc, path)
	b.storeRecord(node, typedefKey(declLine(die), die.Name("`anonymous`")), rec)
}

// parseInheritance attaches one base-class entry to the parent
// aggregate's 0-inheri map, keyed by the base subobject offset and the
// reconstructed base-type string, valued by the accessibility code.
func (b *Builder) parseInheritance(u dw.CU, die dw.DIE) {
	parent := die.Parent()
	if parent == nil {
		return
	}
	path, ok := b.storePath(u, parent)
	if !ok {
		return
	}
	path = append(path, aggregateKey(parent))

	var memberLoc uint64
	if a := die.Attr(dwarf.AttrDataMemberLoc); a != nil {
		if v, ok := a.Val.Uint(); ok {
			memberLoc = v
		}
	}
	var access uint64
	if a := die.Attr(dwarf.AttrAccessibility); a != nil {
		if v, ok := a.Val.Uint(); ok {
			access = v
		}
	}

	node := descend(b.doc, path)
	inheri := child(node, "0-inheri")
	putIfAbsent(inheri, fmt.Sprintf("%05d-%s", memberLoc, b.typeString(die, "")), access)
}

// parseClassTemplateParams records the template parameter list of the
// enclosing class or structure. The first parameter DIE encountered
// writes the whole list by walking its siblings; later siblings find
// the list present and return, so the list is written exactly once.
func (b *Builder) parseClassTemplateParams(u dw.CU, die dw.DIE) {
	parent := die.Parent()
	if parent == nil {
		return
	}
	if parent.Tag() != dwarf.TagClassType && parent.Tag() != dwarf.TagStructType {
		// Function template parameters are captured by the function
		// parser; anything else has no aggregate record to annotate.
		return
	}
	path, ok := b.storePath(u, parent)
	if !ok {
		return
	}
	path = append(path, aggregateKey(parent))

	node := descend(b.doc, path)
	if _, ok := node["0-template_param"]; ok {
		return
	}

	var params []any
	for _, c := range parent.Children() {
		switch c.Tag() {
		case dwarf.TagTemplateTypeParameter:
			params = append(params, c.Name(unnamedParam))
		case dwarf.TagTemplateValueParameter:
			params = append(params, b.typeString(c, c.Name(unnamedParam)))
		case dw.TagGNUTemplateParameterPack:
			params = append(params, "..."+c.Name(unnamedParam))
		}
	}
	if len(params) == 0 {
		return
	}
	node["0-template_param"] = params
}

// aggregateKey formats the scope key of a class or structure DIE.
func aggregateKey(die dw.DIE) string {
	kind := "struct"
	if die.Tag() == dwarf.TagClassType {
		kind = "class"
	}
	return kind + ": " + die.Name("`anonymous`")
}
