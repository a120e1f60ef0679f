// Package resultset implements the Query Result state machine: the
// column-metadata/row/fetch-done frame sequence a statement execution
// produces, plus the row-encoding scalar decoder the protocol leaves
// opaque on purpose (xmessage.Row only frames the bytes; this package
// knows what they mean). Grounded on xcl::Query_result/XRow_impl.
package resultset

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gomysqlx/client/xmessage"
)

// Value is one decoded field, already converted from its X Protocol
// row encoding according to its column's declared type.
type Value struct {
	Null  bool
	Int   int64
	UInt  uint64
	Float float64
	Str   string
	Raw   []byte
}

// decodeField converts one row field's raw bytes according to col's
// declared type. An empty (zero-length) field always decodes to NULL,
// the convention the X Protocol row encoding uses since every
// non-NULL scalar encoding is at least one byte.
func decodeField(col *xmessage.ColumnMetaData, field []byte) (Value, error) {
	if len(field) == 0 {
		return Value{Null: true}, nil
	}
	switch col.Type {
	case xmessage.ColumnSint:
		u, n := protowire.ConsumeVarint(field)
		if n < 0 {
			return Value{}, fmt.Errorf("resultset: malformed sint field")
		}
		return Value{Int: protowire.DecodeZigZag(u)}, nil
	case xmessage.ColumnUint, xmessage.ColumnBit:
		u, n := protowire.ConsumeVarint(field)
		if n < 0 {
			return Value{}, fmt.Errorf("resultset: malformed uint field")
		}
		return Value{UInt: u}, nil
	case xmessage.ColumnDouble:
		if len(field) < 8 {
			return Value{}, fmt.Errorf("resultset: short double field")
		}
		return Value{Float: math.Float64frombits(binary.LittleEndian.Uint64(field))}, nil
	case xmessage.ColumnFloat:
		if len(field) < 4 {
			return Value{}, fmt.Errorf("resultset: short float field")
		}
		return Value{Float: float64(math.Float32frombits(binary.LittleEndian.Uint32(field)))}, nil
	case xmessage.ColumnDecimal:
		s, err := decodeDecimal(field)
		if err != nil {
			return Value{}, err
		}
		return Value{Str: s}, nil
	case xmessage.ColumnBytes, xmessage.ColumnEnum, xmessage.ColumnSet:
		b := field
		if len(b) > 0 && b[len(b)-1] == 0 {
			b = b[:len(b)-1]
		}
		return Value{Str: string(b)}, nil
	default:
		// TIME/DATETIME and anything else not decoded above are handed
		// back raw; callers needing the packed date/time fields can
		// decode them from Raw.
		return Value{Raw: append([]byte(nil), field...)}, nil
	}
}

// decodeDecimal converts the X Protocol packed-BCD DECIMAL encoding: a
// leading byte giving the scale, then BCD digit pairs with a trailing
// nibble holding the sign (0xc/0xa positive, 0xd/0xb negative).
func decodeDecimal(field []byte) (string, error) {
	if len(field) < 1 {
		return "", fmt.Errorf("resultset: empty decimal field")
	}
	scale := int(field[0])
	var digits strings.Builder
	sign := ""
	body := field[1:]
	for i, b := range body {
		hi, lo := b>>4, b&0x0f
		last := i == len(body)-1

		if hi <= 9 {
			digits.WriteByte('0' + hi)
		} else if !last {
			return "", fmt.Errorf("resultset: invalid decimal nibble %x", hi)
		}
		if hi == 0xb || hi == 0xd {
			sign = "-"
		}

		if last {
			switch lo {
			case 0xa, 0xc:
			case 0xb, 0xd:
				sign = "-"
			default:
				return "", fmt.Errorf("resultset: invalid decimal sign nibble %x", lo)
			}
			continue
		}
		if lo <= 9 {
			digits.WriteByte('0' + lo)
		} else {
			return "", fmt.Errorf("resultset: invalid decimal nibble %x", lo)
		}
	}

	s := digits.String()
	if s == "" {
		s = "0"
	}
	if scale > 0 {
		for len(s) <= scale {
			s = "0" + s
		}
		s = s[:len(s)-scale] + "." + s[len(s)-scale:]
	}
	return sign + s, nil
}
