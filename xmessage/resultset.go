package xmessage

import "google.golang.org/protobuf/encoding/protowire"

// Column type codes (Mysqlx.Resultset.ColumnMetaData.FieldType).
const (
	ColumnSint      uint32 = 1
	ColumnUint      uint32 = 2
	ColumnDouble    uint32 = 5
	ColumnFloat     uint32 = 6
	ColumnBytes     uint32 = 7
	ColumnTime      uint32 = 10
	ColumnDatetime  uint32 = 12
	ColumnSet       uint32 = 15
	ColumnEnum      uint32 = 16
	ColumnBit       uint32 = 17
	ColumnDecimal   uint32 = 18
)

// Column metadata flags (Mysqlx.Resultset.ColumnMetaData.Flags).
const (
	ColumnFlagNotNull       uint32 = 0x0010
	ColumnFlagPrimaryKey    uint32 = 0x0020
	ColumnFlagUniqueKey     uint32 = 0x0040
	ColumnFlagMultipleKey   uint32 = 0x0080
	ColumnFlagAutoIncrement uint32 = 0x0100
)

// ColumnMetaData is SERVER_RESULTSET_COLUMN_META_DATA: one column
// descriptor streamed before the matching Row messages.
type ColumnMetaData struct {
	Type          uint32
	Name          string
	OriginalName  string
	Table         string
	OriginalTable string
	Schema        string
	Catalog       string
	Collation     uint64
	FractionalDigits uint32
	Length        uint32
	Flags         uint32
	ContentType   uint32
}

func (c *ColumnMetaData) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(c.Type))
	if c.Name != "" {
		b = appendString(b, 2, c.Name)
	}
	if c.OriginalName != "" {
		b = appendString(b, 3, c.OriginalName)
	}
	if c.Table != "" {
		b = appendString(b, 4, c.Table)
	}
	if c.OriginalTable != "" {
		b = appendString(b, 5, c.OriginalTable)
	}
	if c.Schema != "" {
		b = appendString(b, 6, c.Schema)
	}
	if c.Catalog != "" {
		b = appendString(b, 7, c.Catalog)
	}
	if c.Collation != 0 {
		b = appendVarint(b, 8, c.Collation)
	}
	if c.FractionalDigits != 0 {
		b = appendVarint(b, 9, uint64(c.FractionalDigits))
	}
	if c.Length != 0 {
		b = appendVarint(b, 10, uint64(c.Length))
	}
	if c.Flags != 0 {
		b = appendVarint(b, 11, uint64(c.Flags))
	}
	if c.ContentType != 0 {
		b = appendVarint(b, 12, uint64(c.ContentType))
	}
	return b, nil
}

func (c *ColumnMetaData) Unmarshal(data []byte) error {
	*c = ColumnMetaData{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.Type = uint32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Name = string(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.OriginalName = string(v)
			return n, nil
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Table = string(v)
			return n, nil
		case 5:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.OriginalTable = string(v)
			return n, nil
		case 6:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Schema = string(v)
			return n, nil
		case 7:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Catalog = string(v)
			return n, nil
		case 8:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.Collation = v
			return n, nil
		case 9:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.FractionalDigits = uint32(v)
			return n, nil
		case 10:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.Length = uint32(v)
			return n, nil
		case 11:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.Flags = uint32(v)
			return n, nil
		case 12:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.ContentType = uint32(v)
			return n, nil
		}
		return -1, nil
	})
}

// Row is SERVER_RESULTSET_ROW: the encoded field values for one row, in
// column order. Each field's bytes are a scalar encoding keyed by the
// matching ColumnMetaData.Type (varint for int/uint/bit, fixed-width
// for float/double, the raw field bytes with no length prefix for
// bytes/enum/set/decimal), decoded by the resultset package, not here --
// this message only knows about framing, not MySQL row encoding.
type Row struct {
	Field [][]byte
}

func (r *Row) Marshal() ([]byte, error) {
	var b []byte
	for _, f := range r.Field {
		b = appendBytes(b, 1, f)
	}
	return b, nil
}

func (r *Row) Unmarshal(data []byte) error {
	*r = Row{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		r.Field = append(r.Field, append([]byte(nil), v...))
		return n, nil
	})
}

// StmtExecuteOk is SERVER_SQL_STMT_EXECUTE_OK, the terminal frame of a
// statement execution once every resultset and its trailing notices
// have been fully drained.
type StmtExecuteOk struct{}

func (*StmtExecuteOk) Marshal() ([]byte, error) { return nil, nil }
func (*StmtExecuteOk) Unmarshal([]byte) error   { return nil }

// Compression wraps an inner frame (or batch of frames) for the
// compressed transport: the client/server negotiate an algorithm via
// capabilities, then every subsequent frame is replaced by one
// CLIENT/SERVER_COMPRESSION envelope carrying the compressed bytes of
// one or more inner frames back to back.
type Compression struct {
	UncompressedSize uint64
	ServerMessages   uint32 // count of inner frames when multiple are combined
	Payload          []byte
}

func (c *Compression) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, c.UncompressedSize)
	if c.ServerMessages != 0 {
		b = appendVarint(b, 2, uint64(c.ServerMessages))
	}
	b = appendBytes(b, 3, c.Payload)
	return b, nil
}

func (c *Compression) Unmarshal(data []byte) error {
	*c = Compression{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.UncompressedSize = v
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.ServerMessages = uint32(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Payload = v
			return n, nil
		}
		return -1, nil
	})
}
