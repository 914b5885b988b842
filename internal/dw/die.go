package dw

import (
	"debug/dwarf"
	"sort"
)

// die is the concrete DIE node. Children hang off the shared reader and
// are materialized one level at a time; parents are wired during
// materialization, so a node's ancestry is always reachable while the
// node itself is.
type die struct {
	f      *file
	tag    dwarf.Tag
	offset dwarf.Offset
	parent *die
	attrs  []Attr

	hasKids bool
	kidsOK  bool
	kids    []*die
	kidsIfc []DIE
}

func (d *die) Tag() dwarf.Tag { return d.tag }

func (d *die) Offset() dwarf.Offset { return d.offset }

func (d *die) Parent() DIE {
	if d.parent == nil {
		return nil
	}
	return d.parent
}

func (d *die) Attrs() []Attr { return d.attrs }

func (d *die) Attr(at dwarf.Attr) *Attr {
	for i := range d.attrs {
		if d.attrs[i].At == at {
			return &d.attrs[i]
		}
	}
	return nil
}

func (d *die) Name(def string) string {
	if a := d.Attr(dwarf.AttrName); a != nil {
		if s, ok := a.Val.Str(); ok {
			return s
		}
	}
	return def
}

func (d *die) Children() []DIE {
	d.load()
	if d.kidsIfc == nil && len(d.kids) > 0 {
		d.kidsIfc = make([]DIE, len(d.kids))
		for i, k := range d.kids {
			d.kidsIfc[i] = k
		}
	}
	return d.kidsIfc
}

// load materializes the direct children: seek to the DIE, skip its own
// entry, then take each sibling-level entry and hop over its subtree.
func (d *die) load() {
	if d.kidsOK {
		return
	}
	d.kidsOK = true
	if !d.hasKids {
		return
	}

	r := d.f.reader
	r.Seek(d.offset)
	if _, err := r.Next(); err != nil {
		return
	}
	for {
		e, err := r.Next()
		if err != nil || e == nil || e.Tag == 0 {
			return
		}
		d.kids = append(d.kids, d.f.newDIE(e, d))
		r.SkipChildren()
	}
}

// release drops the materialized subtree.
func (d *die) release() {
	d.kids = nil
	d.kidsIfc = nil
	d.kidsOK = false
}

// find resolves an offset within this DIE's subtree. Children offsets
// are ordered, so the candidate subtree is the last child at or before
// the target.
func (d *die) find(off dwarf.Offset) *die {
	if d.offset == off {
		return d
	}
	d.load()
	i := sort.Search(len(d.kids), func(i int) bool { return d.kids[i].offset > off }) - 1
	if i < 0 {
		return nil
	}
	return d.kids[i].find(off)
}

// cu is a compilation unit root.
type cu struct {
	die
	files []string
}

func (c *cu) SourceFiles() []string { return c.files }

func (c *cu) ClearCachedChildren() { c.release() }
