package catalog

import (
	"debug/dwarf"
	"strings"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// unnamedParam stands in for a parameter with no name attribute.
const unnamedParam = "/*Unnamed*/"

// parseFunction handles a subprogram DIE. A DIE carrying a
// specification reference is an out-of-line definition and enriches
// the declaration's record; anything else is parsed as a declaration.
func (b *Builder) parseFunction(u dw.CU, die dw.DIE) {
	if strings.HasPrefix(die.Name(""), "__") {
		return
	}
	if sa := die.Attr(dwarf.AttrSpecification); sa != nil {
		b.parseFunctionDefinition(u, die, sa)
		return
	}
	b.parseFunctionDecl(u, die)
}

// parseFunctionDefinition merges an out-of-line body into the record
// keyed by its specification DIE. The definition contributes what the
// declaration lacks: real parameter names, the linkage name, and its
// own offset under otherOffset.
func (b *Builder) parseFunctionDefinition(u dw.CU, die dw.DIE, sa *dw.Attr) {
	spec := b.lookup(sa)
	if spec == nil {
		b.log.Debug().
			Uint64("offset", uint64(die.Offset())).
			Msg("dangling function specification")
		return
	}
	path, ok := b.storePath(u, spec)
	if !ok {
		return
	}
	key := funcKey(declLine(spec), spec.Name("`anonymous`"))

	var paramNames []any
	var later []dw.DIE
	for _, c := range die.Children() {
		switch c.Tag() {
		case dwarf.TagFormalParameter, dwarf.TagUnspecifiedParameters:
			paramNames = append(paramNames, c.Name(unnamedParam))
		case dw.TagGNUFormalParameterPack:
			paramNames = append(paramNames, "...args")
		default:
			later = append(later, c)
		}
	}

	node := descend(b.doc, path)
	if _, ok := node[key]; !ok {
		// Specifications do not nest; spec has no specification
		// attribute of its own, so this recursion is one hop deep.
		b.parseFunction(u, spec)
	}
	rec := child(node, key)

	if len(paramNames) > 0 {
		rec["2-param_name"] = paramNames
	}
	if la := die.Attr(dwarf.AttrLinkageName); la != nil {
		if s, ok := la.Val.Str(); ok {
			b.putLinkage(rec, "0", s)
		}
	}
	rec["otherOffset"] = uint64(die.Offset())

	for _, c := range later {
		b.parseDIE(u, c)
	}
}

func (b *Builder) parseFunctionDecl(u dw.CU, die dw.DIE) {
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
		case dwarf.AttrLinkageName:
			if s, ok := a.Val.Str(); ok {
				b.putLinkage(rec, "0", s)
			}
		case dwarf.AttrExternal:
			rec["0-external"] = uint64(1)
		case dwarf.AttrDeclLine:
			if v, ok := a.Val.Uint(); ok {
				setPos(rec, "0-decl_pos", 0, v)
			}
		case dwarf.AttrDeclColumn:
			if v, ok := a.Val.Uint(); ok {
				setPos(rec, "0-decl_pos", 1, v)
			}
		case dwarf.AttrAccessibility:
			if v, ok := a.Val.Uint(); ok {
				rec["1-accessibility"] = v
			}
		case dwarf.AttrDefaulted:
			if v, ok := a.Val.Uint(); ok {
				rec["1-default"] = v
			}
		case dwarf.AttrDeleted:
			rec["1-deleted"] = uint64(1)
		case dwarf.AttrVirtuality:
			if v, ok := a.Val.Uint(); ok {
				rec["1-virtual"] = v
			}
		case dwarf.AttrInline:
			if v, ok := a.Val.Uint(); ok {
				rec["1-inline"] = v
			}
		case dwarf.AttrVtableElemLoc:
			if loc, ok := a.Val.Loc(); ok && len(loc) > 0 {
				rec["1-vtable_loc"] = loc[0].Opd1
			}
		case dwarf.AttrReference:
			rec["1-ref_decorate"] = uint64(1)
		case dwarf.AttrRvalueReference:
			rec["1-r_ref_decorate"] = uint64(1)
		case dwarf.AttrArtificial:
			rec["1-artificial"] = uint64(1)
		}
	}

	// Return type.
	rec["1-type"] = b.typeString(die, "")

	var paramTypes, paramNames, templateParams []any
	var later []dw.DIE
	for _, c := range die.Children() {
		switch c.Tag() {
		case dwarf.TagFormalParameter:
			if c.Attr(dwarf.AttrArtificial) != nil {
				// The implicit object pointer. Its pointee's constness
				// is the function's const qualifier.
				s, q := b.typeStringCV(c, "{obj_ptr}")
				paramTypes = append(paramTypes, s)
				if q&qualConst != 0 {
					rec["const_decorate"] = uint64(1)
				}
			} else {
				paramTypes = append(paramTypes, b.typeString(c, "{}"))
			}
			paramNames = append(paramNames, c.Name(unnamedParam))
		case dwarf.TagUnspecifiedParameters:
			paramTypes = append(paramTypes, "...")
			paramNames = append(paramNames, c.Name(unnamedParam))
		case dw.TagGNUFormalParameterPack:
			paramNames = append(paramNames, "...args")
		case dwarf.TagTemplateTypeParameter:
			templateParams = append(templateParams, c.Name(unnamedParam))
		case dwarf.TagTemplateValueParameter:
			templateParams = append(templateParams, b.typeString(c, c.Name(unnamedParam)))
		case dw.TagGNUTemplateParameterPack:
			templateParams = append(templateParams, "..."+c.Name(unnamedParam))
		default:
			later = append(later, c)
		}
	}
	if len(paramTypes) > 0 {
		rec["2-param_type"] = paramTypes
	}
	if len(templateParams) > 0 {
		rec["2-template_param"] = templateParams
	}
	rec["2-param_name"] = paramNames

	node := descend(b.doc, path)
	b.storeRecord(node, funcKey(declLine(die), die.Name("`anonymous`")), rec)

	// Locals, nested types, and blocks dispatch after the record
	// exists, so they can land under its local_info subtree.
	for _, c := range later {
		b.parseDIE(u, c)
	}
}
