package dw

import (
	"testing"

	"github.com/go-delve/delve/pkg/dwarf/op"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedOpd converts a signed operand to its raw uint64 representation;
// the conversion must happen at runtime because Go rejects constant
// conversions of negative values to unsigned types.
func signedOpd(v int64) uint64 { return uint64(v) }

func TestDecodeLoc(t *testing.T) {
	tests := []struct {
		name string
		expr []byte
		want LocList
	}{
		{
			name: "addr",
			expr: []byte{0x03, 0x00, 0x20, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00},
			want: LocList{{Op: op.DW_OP_addr, Opd1: 0x402000}},
		},
		{
			name: "fbreg negative sleb",
			expr: []byte{0x91, 0x68}, // -24
			want: LocList{{Op: op.DW_OP_fbreg, Opd1: signedOpd(-24)}},
		},
		{
			name: "reg without operands",
			expr: []byte{0x55}, // DW_OP_reg5
			want: LocList{{Op: op.DW_OP_reg5}},
		},
		{
			name: "plus_uconst uleb",
			expr: []byte{0x23, 0xac, 0x02}, // 300
			want: LocList{{Op: op.DW_OP_plus_uconst, Opd1: 300}},
		},
		{
			name: "bregx two operands",
			expr: []byte{0x92, 0x06, 0x10}, // reg 6, offset 16
			want: LocList{{Op: op.DW_OP_bregx, Opd1: 6, Opd2: 16}},
		},
		{
			name: "tls sequence",
			expr: []byte{0x03, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xe0},
			want: LocList{
				{Op: op.DW_OP_addr, Opd1: 8},
				{Op: opGNUPushTLSAddress},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLoc(tt.expr, 8)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeLoc_AddrSize4(t *testing.T) {
	got, err := DecodeLoc([]byte{0x03, 0x00, 0x20, 0x40, 0x00}, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(0x402000), got[0].Opd1)
}

func TestDecodeLoc_Errors(t *testing.T) {
	t.Run("unknown first opcode", func(t *testing.T) {
		_, err := DecodeLoc([]byte{0xff}, 8)
		require.Error(t, err)
	})

	t.Run("truncated first operand", func(t *testing.T) {
		_, err := DecodeLoc([]byte{0x03, 0x01, 0x02}, 8)
		require.Error(t, err)
	})

	t.Run("trailing garbage truncates", func(t *testing.T) {
		got, err := DecodeLoc([]byte{0x55, 0xff}, 8)
		require.NoError(t, err)
		assert.Equal(t, LocList{{Op: op.DW_OP_reg5}}, got)
	})

	t.Run("empty expression", func(t *testing.T) {
		got, err := DecodeLoc(nil, 8)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLocationOpString(t *testing.T) {
	tests := []struct {
		name string
		op   LocationOp
		want string
	}{
		{"addr", LocationOp{Op: op.DW_OP_addr, Opd1: 4202496}, "DW_OP_addr 4202496"},
		{"fbreg signed", LocationOp{Op: op.DW_OP_fbreg, Opd1: signedOpd(-24)}, "DW_OP_fbreg -24"},
		{"no operands", LocationOp{Op: op.DW_OP_call_frame_cfa}, "DW_OP_call_frame_cfa"},
		{"zero operand omitted", LocationOp{Op: op.DW_OP_constu}, "DW_OP_constu"},
		{"two operands", LocationOp{Op: op.DW_OP_bregx, Opd1: 6, Opd2: 16}, "DW_OP_bregx 6 16"},
		{"gnu extension", LocationOp{Op: opGNUPushTLSAddress}, "DW_OP_GNU_push_tls_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}
