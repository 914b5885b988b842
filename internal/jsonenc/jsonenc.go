// Package jsonenc renders the catalog document as pretty-printed
// JSON: objects with 4-space indentation and keys in lexicographic
// order, arrays of purely numeric elements on a single line, other
// arrays one element per line.
//
// Lexicographic key order is load-bearing, not cosmetic: record keys
// carry zero-padded line prefixes, so sorted serialization reproduces
// declaration order.
package jsonenc

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const indentStep = 4

// Encode writes v to w followed by a trailing newline.
func Encode(w io.Writer, v any) error {
	e := &encoder{w: w}
	e.value(v, 0)
	e.raw("\n")
	return e.err
}

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) raw(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *encoder) value(v any, indent int) {
	switch t := v.(type) {
	case map[string]any:
		e.object(t, indent)
	case []any:
		e.array(t, indent)
	case string:
		e.str(t)
	case nil:
		e.raw("null")
	case bool:
		e.raw(strconv.FormatBool(t))
	default:
		e.raw(formatNumber(t))
	}
}

func (e *encoder) object(m map[string]any, indent int) {
	if len(m) == 0 {
		e.raw("{}")
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pad := strings.Repeat(" ", indent+indentStep)
	e.raw("{\n")
	for i, k := range keys {
		if i > 0 {
			e.raw(",\n")
		}
		e.raw(pad)
		e.str(k)
		e.raw(": ")
		e.value(m[k], indent+indentStep)
	}
	e.raw("\n" + strings.Repeat(" ", indent) + "}")
}

func (e *encoder) array(a []any, indent int) {
	if allNumbers(a) {
		e.raw("[")
		for i, v := range a {
			if i > 0 {
				e.raw(", ")
			}
			e.value(v, 0)
		}
		e.raw("]")
		return
	}

	pad := strings.Repeat(" ", indent+indentStep)
	e.raw("[\n")
	for i, v := range a {
		if i > 0 {
			e.raw(",\n")
		}
		e.raw(pad)
		e.value(v, indent+indentStep)
	}
	e.raw("\n" + strings.Repeat(" ", indent) + "]")
}

// str writes a quoted string, escaping the quote, backslash, and the
// short control escapes. Other bytes pass through untouched.
func (e *encoder) str(s string) {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	e.raw(sb.String())
}

func allNumbers(a []any) bool {
	for _, v := range a {
		if !isNumber(v) {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func formatNumber(v any) string {
	switch t := v.(type) {
	case uint64:
		return strconv.FormatUint(t, 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
