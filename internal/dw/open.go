package dw

import (
	"debug/dwarf"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"io"
	"os"
	"sort"
)

// file is the concrete File implementation.
type file struct {
	path     string
	data     *dwarf.Data
	reader   *dwarf.Reader
	closer   io.Closer
	addrSize int

	cus    []*cu
	cusIfc []CU
}

// Open opens an ELF, Mach-O, or PE image and loads its DWARF unit
// roots. Children of each unit stay unmaterialized until walked.
func Open(path string) (File, error) {
	magic, err := readMagic(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", path, err)
	}

	var (
		data     *dwarf.Data
		closer   io.Closer
		addrSize int
	)
	switch {
	case magic[0] == 0x7f && magic[1] == 'E' && magic[2] == 'L' && magic[3] == 'F':
		data, closer, addrSize, err = openELF(path)
	case isMachO(magic):
		data, closer, addrSize, err = openMachO(path)
	case magic[0] == 'M' && magic[1] == 'Z':
		data, closer, addrSize, err = openPE(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	f := &file{
		path:     path,
		data:     data,
		reader:   data.Reader(),
		closer:   closer,
		addrSize: addrSize,
	}
	if err := f.loadUnits(); err != nil {
		_ = closer.Close()
		return nil, err
	}
	return f, nil
}

func readMagic(path string) ([4]byte, error) {
	var magic [4]byte
	fh, err := os.Open(path)
	if err != nil {
		return magic, err
	}
	defer fh.Close()
	if _, err := io.ReadFull(fh, magic[:]); err != nil {
		return magic, err
	}
	return magic, nil
}

func isMachO(magic [4]byte) bool {
	switch {
	case magic[0] == 0xfe && magic[1] == 0xed && magic[2] == 0xfa: // big-endian 32/64
		return true
	case magic[1] == 0xfa && magic[2] == 0xed && magic[3] == 0xfe: // little-endian 32/64
		return true
	}
	return false
}

func openELF(path string) (*dwarf.Data, io.Closer, int, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to open ELF %s: %w", path, err)
	}
	d, err := f.DWARF()
	if err != nil {
		_ = f.Close()
		return nil, nil, 0, fmt.Errorf("%s: %w: %v", path, ErrNoDebugInfo, err)
	}
	addrSize := 8
	if f.Class == elf.ELFCLASS32 {
		addrSize = 4
	}
	return d, f, addrSize, nil
}

func openMachO(path string) (*dwarf.Data, io.Closer, int, error) {
	f, err := macho.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to open Mach-O %s: %w", path, err)
	}
	d, err := f.DWARF()
	if err != nil {
		_ = f.Close()
		return nil, nil, 0, fmt.Errorf("%s: %w: %v", path, ErrNoDebugInfo, err)
	}
	addrSize := 8
	if f.Magic == macho.Magic32 {
		addrSize = 4
	}
	return d, f, addrSize, nil
}

func openPE(path string) (*dwarf.Data, io.Closer, int, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to open PE %s: %w", path, err)
	}
	d, err := f.DWARF()
	if err != nil {
		_ = f.Close()
		return nil, nil, 0, fmt.Errorf("%s: %w: %v", path, ErrNoDebugInfo, err)
	}
	addrSize := 8
	if _, ok := f.OptionalHeader.(*pe.OptionalHeader32); ok {
		addrSize = 4
	}
	return d, f, addrSize, nil
}

// loadUnits walks the top level of the info section collecting unit
// roots and their file tables.
func (f *file) loadUnits() error {
	r := f.data.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return fmt.Errorf("failed to read unit header: %w", err)
		}
		if e == nil {
			break
		}
		if e.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}
		c := &cu{files: f.sourceFiles(e)}
		c.die = *f.newDIE(e, nil)
		f.cus = append(f.cus, c)
		r.SkipChildren()
	}
	return nil
}

// sourceFiles extracts the unit's file table shifted to the 1-based
// decl_file contract: slot 0 is dropped in every version (a placeholder
// in DWARF 2-4, the duplicated primary file in DWARF 5), so decl_file n
// resolves at index n-1.
func (f *file) sourceFiles(unit *dwarf.Entry) []string {
	lr, err := f.data.LineReader(unit)
	if err != nil || lr == nil {
		return nil
	}
	lfs := lr.Files()
	if len(lfs) > 0 {
		lfs = lfs[1:]
	}
	files := make([]string, len(lfs))
	for i, lf := range lfs {
		if lf != nil {
			files[i] = lf.Name
		}
	}
	return files
}

func (f *file) newDIE(e *dwarf.Entry, parent *die) *die {
	d := &die{
		f:       f,
		tag:     e.Tag,
		offset:  e.Offset,
		parent:  parent,
		hasKids: e.Children,
	}
	for _, fld := range e.Field {
		if a, ok := decodeField(fld, f.addrSize); ok {
			d.attrs = append(d.attrs, a)
		}
	}
	return d
}

func (f *file) Path() string { return f.path }

func (f *file) CompilationUnits() []CU {
	if f.cusIfc == nil {
		f.cusIfc = make([]CU, len(f.cus))
		for i, c := range f.cus {
			f.cusIfc[i] = c
		}
	}
	return f.cusIfc
}

// FindDIE locates a DIE by offset: binary search across unit roots,
// then descent through child levels. Looking into a released unit
// re-materializes the path to the target.
func (f *file) FindDIE(off dwarf.Offset) DIE {
	i := sort.Search(len(f.cus), func(i int) bool { return f.cus[i].offset > off }) - 1
	if i < 0 {
		return nil
	}
	if d := f.cus[i].find(off); d != nil {
		return d
	}
	return nil
}

func (f *file) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
