package dw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-delve/delve/pkg/dwarf/leb128"
	"github.com/go-delve/delve/pkg/dwarf/op"
)

// LocationOp is one decoded location operation. Operands are stored as
// raw 64-bit values; signed operands are sign-extended at decode time.
type LocationOp struct {
	Op   op.Opcode
	Opd1 uint64
	Opd2 uint64
	Opd3 uint64
}

// String renders the opcode name followed by its non-zero operands as
// signed decimals, e.g. "DW_OP_fbreg -24".
func (l LocationOp) String() string {
	var b strings.Builder
	if name, ok := gnuOpNames[l.Op]; ok {
		b.WriteString(name)
	} else {
		b.WriteString(opName(l.Op))
	}
	for _, opd := range [...]uint64{l.Opd1, l.Opd2, l.Opd3} {
		if opd != 0 {
			b.WriteByte(' ')
			b.WriteString(strconv.FormatInt(int64(opd), 10))
		}
	}
	return b.String()
}

// LocList is a decoded location expression.
type LocList []LocationOp

// DWARF5 opcodes absent from delve's table (DWARF v5 §7.7.1).
const (
	opImplicitPointer = op.Opcode(0xa0)
	opAddrx           = op.Opcode(0xa1)
	opConstx          = op.Opcode(0xa2)
	opEntryValue      = op.Opcode(0xa3)
	opConstType       = op.Opcode(0xa4)
	opRegvalType      = op.Opcode(0xa5)
	opDerefType       = op.Opcode(0xa6)
	opXderefType      = op.Opcode(0xa7)
	opConvert         = op.Opcode(0xa8)
	opReinterpret     = op.Opcode(0xa9)
)

// Vendor opcodes outside delve's table that still appear in compiler
// output (TLS access, optimized-out parameter recovery).
const (
	opGNUPushTLSAddress  = op.Opcode(0xe0)
	opGNUImplicitPointer = op.Opcode(0xf2)
	opGNUEntryValue      = op.Opcode(0xf3)
	opGNUConstType       = op.Opcode(0xf4)
	opGNURegvalType      = op.Opcode(0xf5)
	opGNUDerefType       = op.Opcode(0xf6)
	opGNUConvert         = op.Opcode(0xf7)
	opGNUParameterRef    = op.Opcode(0xfa)
)

// gnuOpNames covers the vendor opcodes above; delve's table names only
// the standard set.
var gnuOpNames = map[op.Opcode]string{
	opGNUPushTLSAddress:  "DW_OP_GNU_push_tls_address",
	opGNUImplicitPointer: "DW_OP_GNU_implicit_pointer",
	opGNUEntryValue:      "DW_OP_GNU_entry_value",
	opGNUConstType:       "DW_OP_GNU_const_type",
	opGNURegvalType:      "DW_OP_GNU_regval_type",
	opGNUDerefType:       "DW_OP_GNU_deref_type",
	opGNUConvert:         "DW_OP_GNU_convert",
	opGNUParameterRef:    "DW_OP_GNU_parameter_ref",
}

// stdOpNames names the standard opcodes; delve does not export its
// name table. The lit/reg/breg ranges are filled in by init.
var stdOpNames = map[op.Opcode]string{
	op.DW_OP_addr:                "DW_OP_addr",
	op.DW_OP_deref:               "DW_OP_deref",
	op.DW_OP_const1u:             "DW_OP_const1u",
	op.DW_OP_const1s:             "DW_OP_const1s",
	op.DW_OP_const2u:             "DW_OP_const2u",
	op.DW_OP_const2s:             "DW_OP_const2s",
	op.DW_OP_const4u:             "DW_OP_const4u",
	op.DW_OP_const4s:             "DW_OP_const4s",
	op.DW_OP_const8u:             "DW_OP_const8u",
	op.DW_OP_const8s:             "DW_OP_const8s",
	op.DW_OP_constu:              "DW_OP_constu",
	op.DW_OP_consts:              "DW_OP_consts",
	op.DW_OP_dup:                 "DW_OP_dup",
	op.DW_OP_drop:                "DW_OP_drop",
	op.DW_OP_over:                "DW_OP_over",
	op.DW_OP_pick:                "DW_OP_pick",
	op.DW_OP_swap:                "DW_OP_swap",
	op.DW_OP_rot:                 "DW_OP_rot",
	op.DW_OP_xderef:              "DW_OP_xderef",
	op.DW_OP_abs:                 "DW_OP_abs",
	op.DW_OP_and:                 "DW_OP_and",
	op.DW_OP_div:                 "DW_OP_div",
	op.DW_OP_minus:               "DW_OP_minus",
	op.DW_OP_mod:                 "DW_OP_mod",
	op.DW_OP_mul:                 "DW_OP_mul",
	op.DW_OP_neg:                 "DW_OP_neg",
	op.DW_OP_not:                 "DW_OP_not",
	op.DW_OP_or:                  "DW_OP_or",
	op.DW_OP_plus:                "DW_OP_plus",
	op.DW_OP_plus_uconst:         "DW_OP_plus_uconst",
	op.DW_OP_shl:                 "DW_OP_shl",
	op.DW_OP_shr:                 "DW_OP_shr",
	op.DW_OP_shra:                "DW_OP_shra",
	op.DW_OP_xor:                 "DW_OP_xor",
	op.DW_OP_bra:                 "DW_OP_bra",
	op.DW_OP_eq:                  "DW_OP_eq",
	op.DW_OP_ge:                  "DW_OP_ge",
	op.DW_OP_gt:                  "DW_OP_gt",
	op.DW_OP_le:                  "DW_OP_le",
	op.DW_OP_lt:                  "DW_OP_lt",
	op.DW_OP_ne:                  "DW_OP_ne",
	op.DW_OP_skip:                "DW_OP_skip",
	op.DW_OP_regx:                "DW_OP_regx",
	op.DW_OP_fbreg:               "DW_OP_fbreg",
	op.DW_OP_bregx:               "DW_OP_bregx",
	op.DW_OP_piece:               "DW_OP_piece",
	op.DW_OP_deref_size:          "DW_OP_deref_size",
	op.DW_OP_xderef_size:         "DW_OP_xderef_size",
	op.DW_OP_nop:                 "DW_OP_nop",
	op.DW_OP_push_object_address: "DW_OP_push_object_address",
	op.DW_OP_call2:               "DW_OP_call2",
	op.DW_OP_call4:               "DW_OP_call4",
	op.DW_OP_call_ref:            "DW_OP_call_ref",
	op.DW_OP_form_tls_address:    "DW_OP_form_tls_address",
	op.DW_OP_call_frame_cfa:      "DW_OP_call_frame_cfa",
	op.DW_OP_bit_piece:           "DW_OP_bit_piece",
	op.DW_OP_implicit_value:      "DW_OP_implicit_value",
	op.DW_OP_stack_value:         "DW_OP_stack_value",
	opImplicitPointer:            "DW_OP_implicit_pointer",
	opAddrx:                      "DW_OP_addrx",
	opConstx:                     "DW_OP_constx",
	opEntryValue:                 "DW_OP_entry_value",
	opConstType:                  "DW_OP_const_type",
	opRegvalType:                 "DW_OP_regval_type",
	opDerefType:                  "DW_OP_deref_type",
	opXderefType:                 "DW_OP_xderef_type",
	opConvert:                    "DW_OP_convert",
	opReinterpret:                "DW_OP_reinterpret",
}

// opName resolves an opcode to its standard name, falling back to the
// hex value for opcodes outside the table.
func opName(o op.Opcode) string {
	if name, ok := stdOpNames[o]; ok {
		return name
	}
	return fmt.Sprintf("%#x", byte(o))
}

// opArgs gives the operand layout per opcode, one rune per operand:
//
//	u  ULEB128                s  SLEB128 (sign-extended)
//	1 2 4 8  fixed unsigned   C H W  fixed signed 1/2/4 bytes
//	a  target address         B  ULEB128 length + raw block (value = length)
//
// An opcode missing from the map is unknown and stops decoding.
var opArgs = map[op.Opcode]string{
	op.DW_OP_addr:                "a",
	op.DW_OP_deref:               "",
	op.DW_OP_const1u:             "1",
	op.DW_OP_const1s:             "C",
	op.DW_OP_const2u:             "2",
	op.DW_OP_const2s:             "H",
	op.DW_OP_const4u:             "4",
	op.DW_OP_const4s:             "W",
	op.DW_OP_const8u:             "8",
	op.DW_OP_const8s:             "8",
	op.DW_OP_constu:              "u",
	op.DW_OP_consts:              "s",
	op.DW_OP_dup:                 "",
	op.DW_OP_drop:                "",
	op.DW_OP_over:                "",
	op.DW_OP_pick:                "1",
	op.DW_OP_swap:                "",
	op.DW_OP_rot:                 "",
	op.DW_OP_xderef:              "",
	op.DW_OP_abs:                 "",
	op.DW_OP_and:                 "",
	op.DW_OP_div:                 "",
	op.DW_OP_minus:               "",
	op.DW_OP_mod:                 "",
	op.DW_OP_mul:                 "",
	op.DW_OP_neg:                 "",
	op.DW_OP_not:                 "",
	op.DW_OP_or:                  "",
	op.DW_OP_plus:                "",
	op.DW_OP_plus_uconst:         "u",
	op.DW_OP_shl:                 "",
	op.DW_OP_shr:                 "",
	op.DW_OP_shra:                "",
	op.DW_OP_xor:                 "",
	op.DW_OP_bra:                 "H",
	op.DW_OP_eq:                  "",
	op.DW_OP_ge:                  "",
	op.DW_OP_gt:                  "",
	op.DW_OP_le:                  "",
	op.DW_OP_lt:                  "",
	op.DW_OP_ne:                  "",
	op.DW_OP_skip:                "H",
	op.DW_OP_regx:                "u",
	op.DW_OP_fbreg:               "s",
	op.DW_OP_bregx:               "us",
	op.DW_OP_piece:               "u",
	op.DW_OP_deref_size:          "1",
	op.DW_OP_xderef_size:         "1",
	op.DW_OP_nop:                 "",
	op.DW_OP_push_object_address: "",
	op.DW_OP_call2:               "2",
	op.DW_OP_call4:               "4",
	op.DW_OP_call_ref:            "4",
	op.DW_OP_form_tls_address:    "",
	op.DW_OP_call_frame_cfa:      "",
	op.DW_OP_bit_piece:           "uu",
	op.DW_OP_implicit_value:      "B",
	op.DW_OP_stack_value:         "",
	opImplicitPointer:            "4s",
	opAddrx:                      "u",
	opConstx:                     "u",
	opEntryValue:                 "B",
	opConstType:                  "uB",
	opRegvalType:                 "uu",
	opDerefType:                  "1u",
	opXderefType:                 "1u",
	opConvert:                    "u",
	opReinterpret:                "u",
	opGNUPushTLSAddress:          "",
	opGNUImplicitPointer:         "4s",
	opGNUEntryValue:              "B",
	opGNUConstType:               "uB",
	opGNURegvalType:              "uu",
	opGNUDerefType:               "1u",
	opGNUConvert:                 "u",
	opGNUParameterRef:            "4",
}

func init() {
	for o := op.DW_OP_lit0; o <= op.DW_OP_lit31; o++ {
		opArgs[o] = ""
		stdOpNames[o] = fmt.Sprintf("DW_OP_lit%d", o-op.DW_OP_lit0)
	}
	for o := op.DW_OP_reg0; o <= op.DW_OP_reg31; o++ {
		opArgs[o] = ""
		stdOpNames[o] = fmt.Sprintf("DW_OP_reg%d", o-op.DW_OP_reg0)
	}
	for o := op.DW_OP_breg0; o <= op.DW_OP_breg31; o++ {
		opArgs[o] = "s"
		stdOpNames[o] = fmt.Sprintf("DW_OP_breg%d", o-op.DW_OP_breg0)
	}
}

// DecodeLoc decodes an exprloc blob into a LocList. A leading unknown
// or truncated operation is an error; once at least one operation has
// been decoded, trailing garbage truncates the list instead.
func DecodeLoc(expr []byte, addrSize int) (LocList, error) {
	if addrSize != 4 && addrSize != 8 {
		addrSize = 8
	}

	var list LocList
	rdr := bytes.NewReader(expr)
	for rdr.Len() > 0 {
		b, _ := rdr.ReadByte()
		opcode := op.Opcode(b)
		spec, known := opArgs[opcode]
		if !known {
			if len(list) == 0 {
				return nil, fmt.Errorf("unknown location opcode %#x", b)
			}
			return list, nil
		}

		lop := LocationOp{Op: opcode}
		operands := [...]*uint64{&lop.Opd1, &lop.Opd2, &lop.Opd3}
		var opErr error
		for i, c := range spec {
			if i >= len(operands) {
				break
			}
			var v uint64
			v, opErr = readOperand(rdr, c, addrSize)
			if opErr != nil {
				break
			}
			*operands[i] = v
		}
		if opErr != nil {
			if len(list) == 0 {
				return nil, fmt.Errorf("truncated operand for %s: %w", opName(opcode), opErr)
			}
			return list, nil
		}
		list = append(list, lop)
	}
	return list, nil
}

func readOperand(rdr *bytes.Reader, c rune, addrSize int) (uint64, error) {
	switch c {
	case 'u':
		v, n := leb128.DecodeUnsigned(rdr)
		if n == 0 {
			return 0, io.ErrUnexpectedEOF
		}
		return v, nil
	case 's':
		v, n := leb128.DecodeSigned(rdr)
		if n == 0 {
			return 0, io.ErrUnexpectedEOF
		}
		return uint64(v), nil
	case '1':
		b, err := rdr.ReadByte()
		return uint64(b), err
	case '2':
		var x uint16
		err := binary.Read(rdr, binary.LittleEndian, &x)
		return uint64(x), err
	case '4':
		var x uint32
		err := binary.Read(rdr, binary.LittleEndian, &x)
		return uint64(x), err
	case '8':
		var x uint64
		err := binary.Read(rdr, binary.LittleEndian, &x)
		return x, err
	case 'C':
		b, err := rdr.ReadByte()
		return uint64(int64(int8(b))), err
	case 'H':
		var x uint16
		err := binary.Read(rdr, binary.LittleEndian, &x)
		return uint64(int64(int16(x))), err
	case 'W':
		var x uint32
		err := binary.Read(rdr, binary.LittleEndian, &x)
		return uint64(int64(int32(x))), err
	case 'a':
		if addrSize == 4 {
			var x uint32
			err := binary.Read(rdr, binary.LittleEndian, &x)
			return uint64(x), err
		}
		var x uint64
		err := binary.Read(rdr, binary.LittleEndian, &x)
		return x, err
	case 'B':
		n, ln := leb128.DecodeUnsigned(rdr)
		if ln == 0 {
			return 0, io.ErrUnexpectedEOF
		}
		if _, err := io.CopyN(io.Discard, rdr, int64(n)); err != nil {
			return 0, err
		}
		return n, nil
	}
	return 0, fmt.Errorf("bad operand spec %q", c)
}
