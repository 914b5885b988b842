package catalog

import (
	"debug/dwarf"
	"fmt"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// qualifiedName climbs the ancestor chain and prepends one "name::"
// segment per enclosing namespace, class, struct, union, or enum,
// stopping at the compilation unit. Anonymous ancestors contribute a
// stable placeholder derived from their offset, so two catalogs of the
// same binary qualify identically.
func qualifiedName(die dw.DIE) string {
	name := die.Name("")
	for p := die.Parent(); p != nil; p = p.Parent() {
		var seg string
		switch p.Tag() {
		case dwarf.TagNamespace:
			seg = anonDefault(p, "nmsp")
		case dwarf.TagClassType:
			seg = anonDefault(p, "class")
		case dwarf.TagStructType:
			seg = anonDefault(p, "struct")
		case dwarf.TagUnionType:
			seg = anonDefault(p, "union")
		case dwarf.TagEnumerationType:
			seg = anonDefault(p, "enum")
		case dwarf.TagCompileUnit:
			return name
		default:
			continue
		}
		name = seg + "::" + name
	}
	return name
}

func anonDefault(die dw.DIE, kind string) string {
	if name := die.Name(""); name != "" {
		return name
	}
	return fmt.Sprintf("`anon_%s_%d`", kind, die.Offset())
}
