// Package dw wraps the standard library DWARF reader with the view the
// catalog engine consumes: an offset-indexed forest of DIEs with parent
// links, lazily materialized children, typed attribute values, and
// decoded location expressions.
//
// The engine depends only on the File, CU, and DIE interfaces below;
// Open returns the concrete implementation backed by debug/elf,
// debug/macho, or debug/pe.
package dw

import (
	"debug/dwarf"
	"errors"
)

// ErrUnsupportedFormat is returned by Open for images that are not
// ELF, Mach-O, or PE.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrNoDebugInfo is returned by Open when the image carries no DWARF
// sections.
var ErrNoDebugInfo = errors.New("no DWARF debug info")

// Vendor tags the standard library does not name.
const (
	// TagGNUTemplateParameterPack marks a template parameter pack.
	TagGNUTemplateParameterPack = dwarf.Tag(0x4107)
	// TagGNUFormalParameterPack marks a pack of formal parameters.
	TagGNUFormalParameterPack = dwarf.Tag(0x4108)
)

// DIE is one debugging information entry.
type DIE interface {
	// Tag returns the DIE's tag.
	Tag() dwarf.Tag
	// Offset returns the DIE's section offset, its identity within the file.
	Offset() dwarf.Offset
	// Parent returns the enclosing DIE, or nil for a unit root.
	Parent() DIE
	// Children materializes and returns the direct children in emission order.
	Children() []DIE
	// Name returns the name attribute, or def when absent.
	Name(def string) string
	// Attr returns the attribute with the given code, or nil when absent.
	Attr(at dwarf.Attr) *Attr
	// Attrs returns all decoded attributes in emission order.
	Attrs() []Attr
}

// CU is a compilation unit root DIE.
type CU interface {
	DIE
	// SourceFiles returns the unit's file table, shifted so that a
	// decl_file attribute value n resolves at index n-1.
	SourceFiles() []string
	// ClearCachedChildren drops the unit's materialized subtree.
	// Children re-materializes on the next call.
	ClearCachedChildren()
}

// File is an opened image with DWARF debug info.
type File interface {
	// Path returns the path the file was opened from.
	Path() string
	// CompilationUnits returns the units in section order.
	CompilationUnits() []CU
	// FindDIE resolves a DIE by offset anywhere in the file, or nil
	// when the offset does not start a DIE.
	FindDIE(off dwarf.Offset) DIE
	// Close releases the underlying object file.
	Close() error
}
