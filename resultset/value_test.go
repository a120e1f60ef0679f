package resultset

import (
	"encoding/binary"
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gomysqlx/client/xmessage"
)

func col(t uint32) *xmessage.ColumnMetaData {
	return &xmessage.ColumnMetaData{Type: t}
}

func TestDecodeFieldEmptyIsNull(t *testing.T) {
	t.Parallel()

	v, err := decodeField(col(xmessage.ColumnSint), nil)
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if !v.Null {
		t.Error("empty field should decode to Null")
	}
}

func TestDecodeFieldSint(t *testing.T) {
	t.Parallel()

	field := protowire.AppendVarint(nil, protowire.EncodeZigZag(-42))
	v, err := decodeField(col(xmessage.ColumnSint), field)
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if v.Int != -42 {
		t.Errorf("Int = %d, want -42", v.Int)
	}
}

func TestDecodeFieldUint(t *testing.T) {
	t.Parallel()

	field := protowire.AppendVarint(nil, 4242)
	v, err := decodeField(col(xmessage.ColumnUint), field)
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if v.UInt != 4242 {
		t.Errorf("UInt = %d, want 4242", v.UInt)
	}
}

func TestDecodeFieldDouble(t *testing.T) {
	t.Parallel()

	field := make([]byte, 8)
	binary.LittleEndian.PutUint64(field, math.Float64bits(3.14159))
	v, err := decodeField(col(xmessage.ColumnDouble), field)
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if v.Float != 3.14159 {
		t.Errorf("Float = %v, want 3.14159", v.Float)
	}
}

func TestDecodeFieldDoubleTooShort(t *testing.T) {
	t.Parallel()

	if _, err := decodeField(col(xmessage.ColumnDouble), []byte{1, 2, 3}); err == nil {
		t.Error("expected error for short double field")
	}
}

func TestDecodeFieldFloat(t *testing.T) {
	t.Parallel()

	field := make([]byte, 4)
	binary.LittleEndian.PutUint32(field, math.Float32bits(1.5))
	v, err := decodeField(col(xmessage.ColumnFloat), field)
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if v.Float != 1.5 {
		t.Errorf("Float = %v, want 1.5", v.Float)
	}
}

func TestDecodeFieldBytesStripsTrailingNull(t *testing.T) {
	t.Parallel()

	v, err := decodeField(col(xmessage.ColumnBytes), []byte("hello\x00"))
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if v.Str != "hello" {
		t.Errorf("Str = %q, want hello", v.Str)
	}
}

func TestDecodeFieldBytesWithoutTrailingNull(t *testing.T) {
	t.Parallel()

	v, err := decodeField(col(xmessage.ColumnBytes), []byte("hello"))
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if v.Str != "hello" {
		t.Errorf("Str = %q, want hello", v.Str)
	}
}

func TestDecodeFieldUnknownTypeKeepsRaw(t *testing.T) {
	t.Parallel()

	field := []byte{1, 2, 3, 4}
	v, err := decodeField(col(xmessage.ColumnDatetime), field)
	if err != nil {
		t.Fatalf("decodeField: %v", err)
	}
	if len(v.Raw) != 4 || v.Raw[0] != 1 {
		t.Errorf("Raw = %v, want %v", v.Raw, field)
	}
}

func TestDecodeDecimalPositive(t *testing.T) {
	t.Parallel()

	// scale=2, digits "1234", positive sign nibble 0xc in the final low nibble.
	field := []byte{2, 0x12, 0x34, 0xcc}
	got, err := decodeDecimal(field)
	if err != nil {
		t.Fatalf("decodeDecimal: %v", err)
	}
	if got != "12.34" {
		t.Errorf("decodeDecimal = %q, want 12.34", got)
	}
}

func TestDecodeDecimalNegative(t *testing.T) {
	t.Parallel()

	// scale=1, digits "50", negative sign nibble 0xd in the final high nibble.
	field := []byte{1, 0x50, 0xdc}
	got, err := decodeDecimal(field)
	if err != nil {
		t.Fatalf("decodeDecimal: %v", err)
	}
	if got != "-5.0" {
		t.Errorf("decodeDecimal = %q, want -5.0", got)
	}
}

func TestDecodeDecimalZeroScale(t *testing.T) {
	t.Parallel()

	field := []byte{0, 0x12, 0xcc}
	got, err := decodeDecimal(field)
	if err != nil {
		t.Fatalf("decodeDecimal: %v", err)
	}
	if got != "12" {
		t.Errorf("decodeDecimal = %q, want 12", got)
	}
}

func TestDecodeDecimalEmptyField(t *testing.T) {
	t.Parallel()

	if _, err := decodeDecimal(nil); err == nil {
		t.Error("expected error for empty decimal field")
	}
}

func TestDecodeDecimalInvalidNibble(t *testing.T) {
	t.Parallel()

	field := []byte{0, 0xff, 0xc0}
	if _, err := decodeDecimal(field); err == nil {
		t.Error("expected error for invalid BCD nibble")
	}
}
