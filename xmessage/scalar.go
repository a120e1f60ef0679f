package xmessage

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ScalarType discriminates the oneof carried by a Scalar, mirroring
// Mysqlx.Datatypes.Scalar.Type.
type ScalarType uint8

const (
	ScalarSInt   ScalarType = 1
	ScalarUInt   ScalarType = 2
	ScalarNull   ScalarType = 3
	ScalarOctets ScalarType = 4
	ScalarDouble ScalarType = 5
	ScalarFloat  ScalarType = 6
	ScalarBool   ScalarType = 7
	ScalarString ScalarType = 8
)

// Octets content-type hints (Mysqlx.Datatypes.Scalar.Octets.content_type).
const (
	ContentTypePlain    = 0x0000
	ContentTypeGeometry = 0x0001
	ContentTypeJSON     = 0x0002
	ContentTypeXML      = 0x0003
	ContentTypeDecimal  = 0x0005
)

// Scalar is the wire form of Mysqlx.Datatypes.Scalar: a tagged union
// over signed/unsigned integers, null, octets (with a content-type
// hint used to recover the "decimal-string" and "octets" Argument
// Value variants), double, float, bool, and collated string.
type Scalar struct {
	Type ScalarType

	VSignedInt   int64
	VUnsignedInt uint64
	VOctets      []byte
	VOctetsType  uint32
	VDouble      float64
	VFloat       float32
	VBool        bool
	VString      []byte
	VCollation   uint64
}

func (s *Scalar) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(s.Type))
	switch s.Type {
	case ScalarSInt:
		b = appendZigzag(b, 2, s.VSignedInt)
	case ScalarUInt:
		b = appendVarint(b, 3, s.VUnsignedInt)
	case ScalarNull:
		// no payload
	case ScalarOctets:
		var oct []byte
		oct = appendBytes(oct, 1, s.VOctets)
		if s.VOctetsType != 0 {
			oct = appendVarint(oct, 2, uint64(s.VOctetsType))
		}
		b = appendBytes(b, 5, oct)
	case ScalarDouble:
		b = appendFixed64(b, 6, math.Float64bits(s.VDouble))
	case ScalarFloat:
		b = appendFixed32(b, 7, math.Float32bits(s.VFloat))
	case ScalarBool:
		b = appendBool(b, 8, s.VBool)
	case ScalarString:
		var str []byte
		str = appendBytes(str, 1, s.VString)
		if s.VCollation != 0 {
			str = appendVarint(str, 2, s.VCollation)
		}
		b = appendBytes(b, 9, str)
	default:
		return nil, fmt.Errorf("xmessage: unknown scalar type %d", s.Type)
	}
	return b, nil
}

func (s *Scalar) Unmarshal(data []byte) error {
	*s = Scalar{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			s.Type = ScalarType(v)
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			s.VSignedInt = protowire.DecodeZigZag(v)
			return n, nil
		case 3:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			s.VUnsignedInt = v
			return n, nil
		case 5:
			oct, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			if err := decodeFields(oct, func(onum protowire.Number, _ protowire.Type, ob []byte) (int, error) {
				switch onum {
				case 1:
					v, m, err := consumeBytes(ob)
					if err != nil {
						return 0, err
					}
					s.VOctets = v
					return m, nil
				case 2:
					v, m, err := consumeVarint(ob)
					if err != nil {
						return 0, err
					}
					s.VOctetsType = uint32(v)
					return m, nil
				}
				return -1, nil
			}); err != nil {
				return 0, err
			}
			return n, nil
		case 6:
			v, n, err := consumeFixed64(b)
			if err != nil {
				return 0, err
			}
			s.VDouble = math.Float64frombits(v)
			return n, nil
		case 7:
			v, n, err := consumeFixed32(b)
			if err != nil {
				return 0, err
			}
			s.VFloat = math.Float32frombits(v)
			return n, nil
		case 8:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			s.VBool = v != 0
			return n, nil
		case 9:
			str, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			if err := decodeFields(str, func(snum protowire.Number, _ protowire.Type, sb []byte) (int, error) {
				switch snum {
				case 1:
					v, m, err := consumeBytes(sb)
					if err != nil {
						return 0, err
					}
					s.VString = v
					return m, nil
				case 2:
					v, m, err := consumeVarint(sb)
					if err != nil {
						return 0, err
					}
					s.VCollation = v
					return m, nil
				}
				return -1, nil
			}); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// Any is the wire form of Mysqlx.Datatypes.Any: either a Scalar, an
// Object (ordered key -> Any map), or an Array of Any.
type Any struct {
	Kind   AnyKind
	Scalar *Scalar
	Obj    *Object
	Array  *Array
}

type AnyKind uint8

const (
	AnyScalar AnyKind = 1
	AnyObject AnyKind = 2
	AnyArray  AnyKind = 3
)

func (a *Any) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(a.Kind))
	switch a.Kind {
	case AnyScalar:
		if a.Scalar == nil {
			return nil, fmt.Errorf("xmessage: Any{Kind:SCALAR} missing Scalar")
		}
		var err error
		b, err = appendMessage(b, 2, a.Scalar)
		if err != nil {
			return nil, err
		}
	case AnyObject:
		if a.Obj == nil {
			return nil, fmt.Errorf("xmessage: Any{Kind:OBJECT} missing Obj")
		}
		var err error
		b, err = appendMessage(b, 3, a.Obj)
		if err != nil {
			return nil, err
		}
	case AnyArray:
		if a.Array == nil {
			return nil, fmt.Errorf("xmessage: Any{Kind:ARRAY} missing Array")
		}
		var err error
		b, err = appendMessage(b, 4, a.Array)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("xmessage: unknown Any kind %d", a.Kind)
	}
	return b, nil
}

func (a *Any) Unmarshal(data []byte) error {
	*a = Any{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			a.Kind = AnyKind(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a.Scalar = &Scalar{}
			if err := a.Scalar.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a.Obj = &Object{}
			if err := a.Obj.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a.Array = &Array{}
			if err := a.Array.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// ObjectField is one key/value pair of an Object, in insertion order.
type ObjectField struct {
	Key   string
	Value *Any
}

// Object is the wire form of Mysqlx.Datatypes.Object: an
// insertion-ordered list of named Any values.
type Object struct {
	Fields []ObjectField
}

func (o *Object) Marshal() ([]byte, error) {
	var b []byte
	for _, f := range o.Fields {
		var fb []byte
		fb = appendString(fb, 1, f.Key)
		var err error
		fb, err = appendMessage(fb, 2, f.Value)
		if err != nil {
			return nil, err
		}
		b = appendBytes(b, 1, fb)
	}
	return b, nil
}

func (o *Object) Unmarshal(data []byte) error {
	*o = Object{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		fb, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		var f ObjectField
		if err := decodeFields(fb, func(fnum protowire.Number, _ protowire.Type, ffb []byte) (int, error) {
			switch fnum {
			case 1:
				v, m, err := consumeBytes(ffb)
				if err != nil {
					return 0, err
				}
				f.Key = string(v)
				return m, nil
			case 2:
				v, m, err := consumeBytes(ffb)
				if err != nil {
					return 0, err
				}
				f.Value = &Any{}
				if err := f.Value.Unmarshal(v); err != nil {
					return 0, err
				}
				return m, nil
			}
			return -1, nil
		}); err != nil {
			return 0, err
		}
		o.Fields = append(o.Fields, f)
		return n, nil
	})
}

// Array is the wire form of Mysqlx.Datatypes.Array.
type Array struct {
	Value []*Any
}

func (a *Array) Marshal() ([]byte, error) {
	var b []byte
	for _, v := range a.Value {
		var err error
		b, err = appendMessage(b, 1, v)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (a *Array) Unmarshal(data []byte) error {
	*a = Array{}
	return decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		item := &Any{}
		if err := item.Unmarshal(v); err != nil {
			return 0, err
		}
		a.Value = append(a.Value, item)
		return n, nil
	})
}
