package catalog

import (
	"debug/dwarf"
	"fmt"

	"github.com/coral-mesh/dwarfcat/internal/dw"
)

// Node is one level of the output document: normalized file paths at
// the top, scope keys below, per-entity records at the leaves. It is a
// type alias so the encoder can consume the document without knowing
// this package.
//
// Record field keys carry a digit prefix ("0-", "1-", "2-") and entity
// keys a zero-padded 5-digit line prefix, so serializing in
// lexicographic key order reproduces declaration order.
type Node = map[string]any

// child returns the nested node at key, creating it when absent.
func child(n Node, key string) Node {
	if c, ok := n[key].(Node); ok {
		return c
	}
	c := Node{}
	n[key] = c
	return c
}

// descend walks (and creates) the nested nodes along path.
func descend(n Node, path []string) Node {
	for _, key := range path {
		n = child(n, key)
	}
	return n
}

// putIfAbsent stores v under key unless the key already exists. The
// first writer wins, matching declaration-before-definition order.
func putIfAbsent(n Node, key string, v any) {
	if _, ok := n[key]; !ok {
		n[key] = v
	}
}

// setPos writes slot i of a position array field, padding unset slots
// with nulls.
func setPos(rec Node, key string, i int, v uint64) {
	arr, _ := rec[key].([]any)
	for len(arr) <= i {
		arr = append(arr, nil)
	}
	arr[i] = v
	rec[key] = arr
}

func funcKey(line uint64, name string) string {
	return fmt.Sprintf("%05d-func: %s", line, name)
}

func varKey(line uint64, name string, member bool) string {
	kind := "var"
	if member {
		kind = "memb"
	}
	return fmt.Sprintf("%05d-%s: %s", line, kind, name)
}

func enumKey(line uint64, name string) string {
	return fmt.Sprintf("%05d-enum: %s", line, name)
}

func typedefKey(line uint64, name string) string {
	return fmt.Sprintf("%05d-typedef: %s", line, name)
}

func unionKey(name string) string {
	return "union: " + name
}

func lexicalBlockKey(off dwarf.Offset) string {
	return fmt.Sprintf("%d-lexical_block", off)
}

// declLine reads the decl_line attribute, defaulting to zero so key
// formatting never fails.
func declLine(die dw.DIE) uint64 {
	if a := die.Attr(dwarf.AttrDeclLine); a != nil {
		if v, ok := a.Val.Uint(); ok {
			return v
		}
	}
	return 0
}
