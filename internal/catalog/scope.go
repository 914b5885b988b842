package catalog

import (
	"debug/dwarf"
	"slices"
	"strings"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// storePath resolves the chain of document keys under which die's
// record belongs: normalized decl_file first, then one key per
// enclosing scope down to the direct parent. ok is false when the DIE
// has no usable decl_file or its file falls outside the filter; such
// DIEs leave no trace in the output.
func (b *Builder) storePath(u dw.CU, die dw.DIE) ([]string, bool) {
	fa := die.Attr(dwarf.AttrDeclFile)
	if fa == nil {
		return nil, false
	}
	idx, ok := fa.Val.Uint()
	if !ok {
		return nil, false
	}
	files := u.SourceFiles()
	if idx == 0 || idx > uint64(len(files)) {
		if idx != 0 {
			b.log.Debug().
				Uint64("decl_file", idx).
				Int("files", len(files)).
				Msg("decl_file index out of range")
		}
		return nil, false
	}
	declFile := normalizePath(files[idx-1])
	if !strings.HasPrefix(declFile, b.cfg.Filter) {
		return nil, false
	}

	var keys []string
walk:
	for p := die.Parent(); p != nil; p = p.Parent() {
		switch p.Tag() {
		case dwarf.TagNamespace:
			keys = append(keys, "namespace: "+p.Name("`anonymous`"))
		case dwarf.TagClassType:
			keys = append(keys, "class: "+p.Name("`anonymous`"))
		case dwarf.TagStructType:
			keys = append(keys, "struct: "+p.Name("`anonymous`"))
		case dwarf.TagUnionType:
			// Reversed below: members nest under the union record's
			// content key.
			keys = append(keys, "content", unionKey(p.Name("`anonymous`")))
		case dwarf.TagSubprogram:
			sa := p.Attr(dwarf.AttrSpecification)
			if sa == nil {
				keys = append(keys, "local_info", funcKey(declLine(p), p.Name("`anonymous`")))
				continue
			}

			// An out-of-line body stores its locals under the declaring
			// DIE's key, and inherits the declaring header as file.
			spec := b.lookup(sa)
			if spec == nil {
				b.log.Debug().
					Uint64("offset", uint64(p.Offset())).
					Msg("dangling specification in scope chain")
				continue
			}
			keys = append(keys, "local_info", funcKey(declLine(spec), spec.Name("`anonymous`")))
			if sf := spec.Attr(dwarf.AttrDeclFile); sf != nil {
				if v, ok := sf.Val.Uint(); ok {
					idx = v
				}
			}
			if idx == 0 || idx > uint64(len(files)) {
				return nil, false
			}
			declFile = normalizePath(files[idx-1])
			if !strings.HasPrefix(declFile, b.cfg.Filter) {
				return nil, false
			}
			p = spec
		case dwarf.TagLexDwarfBlock:
			keys = append(keys, lexicalBlockKey(p.Offset()))
		case dwarf.TagCompileUnit:
			break walk
		}
	}

	keys = append(keys, declFile)
	slices.Reverse(keys)
	return keys, true
}
