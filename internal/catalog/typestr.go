package catalog

import (
	"debug/dwarf"
	"fmt"
	"strings"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// cvQuals tracks const/volatile qualifiers collected while walking a
// type-modifier chain.
type cvQuals uint8

const (
	qualConst cvQuals = 1 << iota
	qualVolatile
)

// prefix renders the qualifiers with trailing spaces, volatile first.
func (q cvQuals) prefix() string {
	var sb strings.Builder
	if q&qualVolatile != 0 {
		sb.WriteString("volatile ")
	}
	if q&qualConst != 0 {
		sb.WriteString("const ")
	}
	return sb.String()
}

// joinDecl glues a type prefix onto a declarator, omitting the space
// when the declarator is empty so a bare chain renders "int", not
// "int ".
func joinDecl(prefix, declarator string) string {
	if declarator == "" {
		return prefix
	}
	return prefix + " " + declarator
}

// typeString reconstructs the C-style declarator of die's type
// attribute, embedding placeholder where the variable name belongs.
func (b *Builder) typeString(die dw.DIE, placeholder string) string {
	s, _ := b.typeStringCV(die, placeholder)
	return s
}

// typeStringCV additionally reports the qualifiers carried by the
// terminal pointee. The function parser reads them off an implicit
// object pointer to detect const member functions.
//
// The walk tracks a read direction: +1 while constructs attach on the
// left (start, or just past an array or subroutine), -1 after a
// pointer-class construct. Falling back from -1 to an array or
// subroutine wraps the declarator in parentheses, which is what turns
// "*x" into "int (*x)[10]" instead of "int *x[10]". Qualifiers are
// placed positionally: a pointer-class construct absorbs any pending
// const/volatile to its right ("int *const x"), while qualifiers that
// reach the chain's end render as a prefix on the terminal type
// ("const int *x").
func (b *Builder) typeStringCV(die dw.DIE, placeholder string) (string, cvQuals) {
	ta := die.Attr(dwarf.AttrType)
	if ta == nil {
		return joinDecl("void", placeholder), 0
	}
	t := b.lookup(ta)
	if t == nil {
		return joinDecl("`err_type`", placeholder), 0
	}

	s := placeholder
	dir := +1
	var pending cvQuals
	for {
		if t.Name("") != "" {
			return joinDecl(pending.prefix()+qualifiedName(t), s), pending
		}

		noVoid := false
		switch t.Tag() {
		case dwarf.TagConstType:
			pending |= qualConst
		case dwarf.TagVolatileType:
			pending |= qualVolatile
		case dwarf.TagPointerType:
			s = "*" + pending.prefix() + s
			pending = 0
			dir = -1
		case dwarf.TagReferenceType:
			s = "&" + pending.prefix() + s
			pending = 0
			dir = -1
		case dwarf.TagRvalueReferenceType:
			s = "&&" + pending.prefix() + s
			pending = 0
			dir = -1
		case dwarf.TagRestrictType:
			s = "__restrict " + pending.prefix() + s
			pending = 0
			dir = -1
		case dwarf.TagArrayType:
			if dir == -1 {
				s = "(" + s + ")"
			}
			s += arrayBounds(t)
			dir = +1
		case dwarf.TagPtrToMemberType:
			s = b.memberPointerPrefix(t) + pending.prefix() + s
			pending = 0
			dir = -1
		case dwarf.TagSubroutineType:
			if dir == -1 {
				s = "(" + s + ")"
			}
			s += b.subroutineSuffix(t)
			dir = +1
		case dwarf.TagUnionType, dwarf.TagClassType, dwarf.TagStructType, dwarf.TagEnumerationType:
			// Unnamed aggregate or enum: a stable placeholder stands in
			// for the missing name, and the void fallback is inhibited.
			s = joinDecl(pending.prefix()+anonToken(t), s)
			noVoid = true
		}

		next := t.Attr(dwarf.AttrType)
		if next == nil {
			if !noVoid {
				s = joinDecl(pending.prefix()+"void", s)
			}
			return s, pending
		}
		if t = b.lookup(next); t == nil {
			return joinDecl(pending.prefix()+"`err_type`", s), pending
		}
	}
}

// lookup resolves a reference-valued attribute, nil when the offset
// dangles.
func (b *Builder) lookup(a *dw.Attr) dw.DIE {
	off, ok := a.Val.Uint()
	if !ok {
		return nil
	}
	return b.f.FindDIE(dwarf.Offset(off))
}

func arrayBounds(arr dw.DIE) string {
	var sb strings.Builder
	for _, c := range arr.Children() {
		if c.Tag() != dwarf.TagSubrangeType {
			continue
		}
		if a := c.Attr(dwarf.AttrCount); a != nil {
			if n, ok := a.Val.Uint(); ok {
				fmt.Fprintf(&sb, "[%d]", n)
				continue
			}
		}
		if a := c.Attr(dwarf.AttrUpperBound); a != nil {
			if n, ok := a.Val.Uint(); ok {
				fmt.Fprintf(&sb, "[%d]", n+1)
				continue
			}
		}
		sb.WriteString("[no_range]")
	}
	return sb.String()
}

// memberPointerPrefix renders "Containing::*" for a pointer-to-member,
// degrading to err_type placeholders when the containing type is
// missing or dangles.
func (b *Builder) memberPointerPrefix(ptm dw.DIE) string {
	ct := ptm.Attr(dwarf.AttrContainingType)
	if ct == nil {
		return "`err_type`::*"
	}
	off, ok := ct.Val.Uint()
	if !ok {
		return "`err_type`::*"
	}
	target := b.f.FindDIE(dwarf.Offset(off))
	if target == nil {
		return fmt.Sprintf("`err_type_%d`::*", off)
	}
	return qualifiedName(target) + "::*"
}

// subroutineSuffix renders "(params)" plus the trailing const and
// ref-qualifiers of a subroutine type. An artificial first parameter is
// the implicit object pointer: it is consumed to detect a const member
// function instead of appearing in the list.
func (b *Builder) subroutineSuffix(sub dw.DIE) string {
	var params []string
	constFn := false
	for _, c := range sub.Children() {
		switch c.Tag() {
		case dwarf.TagFormalParameter:
			if c.Attr(dwarf.AttrArtificial) != nil {
				_, q := b.typeStringCV(c, "this")
				constFn = q&qualConst != 0
				continue
			}
			params = append(params, b.typeString(c, ""))
		case dwarf.TagUnspecifiedParameters:
			params = append(params, "...")
		}
	}

	out := "(" + strings.Join(params, ", ") + ")"
	if constFn {
		out += " const"
	}
	switch {
	case sub.Attr(dwarf.AttrReference) != nil:
		out += " &"
	case sub.Attr(dwarf.AttrRvalueReference) != nil:
		out += " &&"
	}
	return out
}

func anonToken(die dw.DIE) string {
	kind := "type"
	switch die.Tag() {
	case dwarf.TagUnionType:
		kind = "union"
	case dwarf.TagClassType:
		kind = "class"
	case dwarf.TagStructType:
		kind = "struct"
	case dwarf.TagEnumerationType:
		kind = "enum"
	}
	return fmt.Sprintf("`anony_%s_%d`", kind, die.Offset())
}
