package dw

import (
	"debug/dwarf"
	"encoding/binary"
)

// Kind identifies the variant held by a Value. Constant attributes are
// reported unsigned for KindUint64/KindUint32 and signed for
// KindInt64/KindInt32; consumers that must preserve the signedness of
// const_value dispatch on this.
type Kind int

const (
	KindString Kind = iota
	KindUint64
	KindUint32
	KindInt64
	KindInt32
	KindLoc
)

// Value is the tagged union of attribute payloads.
type Value struct {
	kind Kind
	str  string
	num  uint64
	loc  LocList
}

// StringValue wraps a string payload.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// UintValue wraps a 64-bit unsigned payload.
func UintValue(u uint64) Value { return Value{kind: KindUint64, num: u} }

// Uint32Value wraps a 32-bit unsigned payload.
func Uint32Value(u uint32) Value { return Value{kind: KindUint32, num: uint64(u)} }

// IntValue wraps a 64-bit signed payload.
func IntValue(i int64) Value { return Value{kind: KindInt64, num: uint64(i)} }

// Int32Value wraps a 32-bit signed payload.
func Int32Value(i int32) Value { return Value{kind: KindInt32, num: uint64(int64(i))} }

// LocValue wraps a decoded location expression.
func LocValue(l LocList) Value { return Value{kind: KindLoc, loc: l} }

// Kind returns the variant held.
func (v Value) Kind() Kind { return v.kind }

// Unsigned reports whether the value holds an unsigned integer variant.
func (v Value) Unsigned() bool { return v.kind == KindUint64 || v.kind == KindUint32 }

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Uint returns any integer payload converted to uint64.
func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case KindUint64, KindUint32, KindInt64, KindInt32:
		return v.num, true
	}
	return 0, false
}

// Int returns any integer payload converted to int64.
func (v Value) Int() (int64, bool) {
	u, ok := v.Uint()
	return int64(u), ok
}

// Loc returns the location-list payload.
func (v Value) Loc() (LocList, bool) {
	if v.kind != KindLoc {
		return nil, false
	}
	return v.loc, true
}

// Attr is one decoded attribute.
type Attr struct {
	At  dwarf.Attr
	Val Value
}

// decodeField converts a raw reader field into an Attr. The boolean is
// false for forms the catalog has no use for (loclist pointers, type
// signatures, 16-byte constants); those attributes are dropped, never
// misread.
func decodeField(fld dwarf.Field, addrSize int) (Attr, bool) {
	a := Attr{At: fld.Attr}

	switch fld.Class {
	case dwarf.ClassString:
		s, ok := fld.Val.(string)
		if !ok {
			return a, false
		}
		a.Val = StringValue(s)

	case dwarf.ClassReference:
		off, ok := fld.Val.(dwarf.Offset)
		if !ok {
			return a, false
		}
		a.Val = UintValue(uint64(off))

	case dwarf.ClassAddress:
		u, ok := fld.Val.(uint64)
		if !ok {
			return a, false
		}
		a.Val = UintValue(u)

	case dwarf.ClassConstant:
		// The reader collapses all constant forms to int64. Negative
		// values can only come from signed forms, so the sign decides
		// the variant; unsigned constants at or above 1<<63 are the
		// one case this cannot represent.
		n, ok := fld.Val.(int64)
		if !ok {
			return a, false
		}
		if n < 0 {
			a.Val = IntValue(n)
		} else {
			a.Val = UintValue(uint64(n))
		}

	case dwarf.ClassFlag:
		b, ok := fld.Val.(bool)
		if !ok {
			return a, false
		}
		var n int32
		if b {
			n = 1
		}
		a.Val = Int32Value(n)

	case dwarf.ClassExprLoc:
		expr, ok := fld.Val.([]byte)
		if !ok {
			return a, false
		}
		loc, err := DecodeLoc(expr, addrSize)
		if err != nil {
			return a, false
		}
		a.Val = LocValue(loc)

	case dwarf.ClassBlock:
		// Old producers store small scalars as raw blocks; keep the
		// 4- and 8-byte cases as integers and drop the rest.
		blk, ok := fld.Val.([]byte)
		if !ok {
			return a, false
		}
		switch len(blk) {
		case 4:
			a.Val = Uint32Value(binary.LittleEndian.Uint32(blk))
		case 8:
			a.Val = UintValue(binary.LittleEndian.Uint64(blk))
		default:
			return a, false
		}

	default:
		return a, false
	}

	return a, true
}
