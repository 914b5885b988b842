package catalog

import (
	"debug/dwarf"
	"testing"

	"github.com/coral-mesh/dwarfcat/internal/dw"
	"github.com/coral-mesh/dwarfcat/internal/testutil"
)

// fakeDIE is an in-memory dw.DIE for engine tests.
type fakeDIE struct {
	tag    dwarf.Tag
	off    dwarf.Offset
	parent *fakeDIE
	attrs  []dw.Attr
	kids   []*fakeDIE
}

func (d *fakeDIE) Tag() dwarf.Tag       { return d.tag }
func (d *fakeDIE) Offset() dwarf.Offset { return d.off }

func (d *fakeDIE) Parent() dw.DIE {
	if d.parent == nil {
		return nil
	}
	return d.parent
}

func (d *fakeDIE) Children() []dw.DIE {
	out := make([]dw.DIE, len(d.kids))
	for i, k := range d.kids {
		out[i] = k
	}
	return out
}

func (d *fakeDIE) Name(def string) string {
	if a := d.Attr(dwarf.AttrName); a != nil {
		if s, ok := a.Val.Str(); ok {
			return s
		}
	}
	return def
}

func (d *fakeDIE) Attr(at dwarf.Attr) *dw.Attr {
	for i := range d.attrs {
		if d.attrs[i].At == at {
			return &d.attrs[i]
		}
	}
	return nil
}

func (d *fakeDIE) Attrs() []dw.Attr { return d.attrs }

// fakeCU is an in-memory dw.CU.
type fakeCU struct {
	fakeDIE
	files   []string
	cleared int
}

func (c *fakeCU) SourceFiles() []string { return c.files }

func (c *fakeCU) ClearCachedChildren() { c.cleared++ }

// fakeFile indexes every registered DIE by offset.
type fakeFile struct {
	units []*fakeCU
	index map[dwarf.Offset]dw.DIE
}

func (f *fakeFile) Path() string { return "fixture" }

func (f *fakeFile) CompilationUnits() []dw.CU {
	out := make([]dw.CU, len(f.units))
	for i, u := range f.units {
		out[i] = u
	}
	return out
}

func (f *fakeFile) FindDIE(off dwarf.Offset) dw.DIE { return f.index[off] }

func (f *fakeFile) Close() error { return nil }

// forest builds fake files incrementally.
type forest struct {
	file *fakeFile
}

func newForest() *forest {
	return &forest{file: &fakeFile{index: map[dwarf.Offset]dw.DIE{}}}
}

func (fr *forest) cu(off dwarf.Offset, name string, files ...string) *fakeCU {
	u := &fakeCU{
		fakeDIE: fakeDIE{tag: dwarf.TagCompileUnit, off: off, attrs: []dw.Attr{strAttr(dwarf.AttrName, name)}},
		files:   files,
	}
	fr.file.units = append(fr.file.units, u)
	fr.file.index[off] = u
	return u
}

func (fr *forest) die(parent *fakeDIE, tag dwarf.Tag, off dwarf.Offset, attrs ...dw.Attr) *fakeDIE {
	d := &fakeDIE{tag: tag, off: off, parent: parent, attrs: attrs}
	if parent != nil {
		parent.kids = append(parent.kids, d)
	}
	fr.file.index[off] = d
	return d
}

func (fr *forest) builder(t *testing.T, cfg Config) *Builder {
	t.Helper()
	return NewBuilder(fr.file, cfg, testutil.NewTestLogger(t))
}

func strAttr(at dwarf.Attr, s string) dw.Attr {
	return dw.Attr{At: at, Val: dw.StringValue(s)}
}

func uintAttr(at dwarf.Attr, v uint64) dw.Attr {
	return dw.Attr{At: at, Val: dw.UintValue(v)}
}

func intAttr(at dwarf.Attr, v int64) dw.Attr {
	return dw.Attr{At: at, Val: dw.IntValue(v)}
}

func refAttr(at dwarf.Attr, off dwarf.Offset) dw.Attr {
	return dw.Attr{At: at, Val: dw.UintValue(uint64(off))}
}

func flagAttr(at dwarf.Attr) dw.Attr {
	return dw.Attr{At: at, Val: dw.Int32Value(1)}
}

func locAttr(at dwarf.Attr, l dw.LocList) dw.Attr {
	return dw.Attr{At: at, Val: dw.LocValue(l)}
}

// at navigates nested document nodes, failing the test on a missing or
// non-node step.
func at(t *testing.T, n Node, path ...string) Node {
	t.Helper()
	for _, key := range path {
		next, ok := n[key].(Node)
		if !ok {
			t.Fatalf("missing node %q (have keys %v)", key, keysOf(n))
		}
		n = next
	}
	return n
}

func keysOf(n Node) []string {
	out := make([]string, 0, len(n))
	for k := range n {
		out = append(out, k)
	}
	return out
}
