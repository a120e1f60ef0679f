package argument

import "github.com/gomysqlx/client/xmessage"

// ToAny converts an Argument Value into its Mysqlx.Datatypes.Any wire
// form, the bridge every CRUD/statement-execute call uses to turn a
// caller-supplied placeholder into bytes.
func ToAny(v Value) *xmessage.Any {
	f := &anyFiller{any: &xmessage.Any{}}
	v.Accept(f)
	return f.any
}

// anyFiller is a Visitor that fills in an *xmessage.Any, mirroring
// xcl::Any_filler's one-shot visit-then-fill contract.
type anyFiller struct {
	any *xmessage.Any
}

func (f *anyFiller) scalar(s *xmessage.Scalar) {
	f.any.Kind = xmessage.AnyScalar
	f.any.Scalar = s
}

func (f *anyFiller) VisitNull() {
	f.scalar(&xmessage.Scalar{Type: xmessage.ScalarNull})
}

func (f *anyFiller) VisitInteger(value int64) {
	f.scalar(&xmessage.Scalar{Type: xmessage.ScalarSInt, VSignedInt: value})
}

func (f *anyFiller) VisitUInteger(value uint64) {
	f.scalar(&xmessage.Scalar{Type: xmessage.ScalarUInt, VUnsignedInt: value})
}

func (f *anyFiller) VisitDouble(value float64) {
	f.scalar(&xmessage.Scalar{Type: xmessage.ScalarDouble, VDouble: value})
}

func (f *anyFiller) VisitFloat(value float32) {
	f.scalar(&xmessage.Scalar{Type: xmessage.ScalarFloat, VFloat: value})
}

func (f *anyFiller) VisitBool(value bool) {
	f.scalar(&xmessage.Scalar{Type: xmessage.ScalarBool, VBool: value})
}

func (f *anyFiller) VisitString(value string) {
	f.scalar(&xmessage.Scalar{Type: xmessage.ScalarString, VString: []byte(value)})
}

func (f *anyFiller) VisitDecimal(value string) {
	// The wire protocol has no dedicated decimal scalar; decimals travel
	// as octets tagged with the DECIMAL content type, same as the
	// original's Any_filler which reuses V_STRING for both (it instead
	// relies on the server inferring intent from statement context), but
	// this module keeps decimal round-trippable by tagging the octets.
	f.scalar(&xmessage.Scalar{
		Type:        xmessage.ScalarOctets,
		VOctets:     []byte(value),
		VOctetsType: xmessage.ContentTypeDecimal,
	})
}

func (f *anyFiller) VisitOctets(value string) {
	f.scalar(&xmessage.Scalar{
		Type:        xmessage.ScalarOctets,
		VOctets:     []byte(value),
		VOctetsType: xmessage.ContentTypePlain,
	})
}

func (f *anyFiller) VisitObject(value map[string]Value) {
	f.any.Kind = xmessage.AnyObject
	obj := &xmessage.Object{}
	for k, v := range value {
		obj.Fields = append(obj.Fields, xmessage.ObjectField{Key: k, Value: ToAny(v)})
	}
	f.any.Obj = obj
}

func (f *anyFiller) VisitUnorderedObject(value []Field) {
	f.any.Kind = xmessage.AnyObject
	obj := &xmessage.Object{}
	for _, fld := range value {
		obj.Fields = append(obj.Fields, xmessage.ObjectField{Key: fld.Key, Value: ToAny(fld.Value)})
	}
	f.any.Obj = obj
}

func (f *anyFiller) VisitArray(value []Value) {
	f.any.Kind = xmessage.AnyArray
	arr := &xmessage.Array{}
	for _, v := range value {
		arr.Value = append(arr.Value, ToAny(v))
	}
	f.any.Array = arr
}

var _ Visitor = (*anyFiller)(nil)

// FromAny converts an xmessage.Any back into an Argument Value,
// the inverse used when decoding server-sent Any-typed notices
// (e.g. session state variables carried as scalars).
func FromAny(a *xmessage.Any) Value {
	if a == nil {
		return NewNull()
	}
	switch a.Kind {
	case xmessage.AnyScalar:
		return fromScalar(a.Scalar)
	case xmessage.AnyObject:
		if a.Obj == nil {
			return NewUnorderedObject(nil)
		}
		fields := make([]Field, 0, len(a.Obj.Fields))
		for _, f := range a.Obj.Fields {
			fields = append(fields, Field{Key: f.Key, Value: FromAny(f.Value)})
		}
		return NewUnorderedObject(fields)
	case xmessage.AnyArray:
		if a.Array == nil {
			return NewArray(nil)
		}
		values := make([]Value, 0, len(a.Array.Value))
		for _, v := range a.Array.Value {
			values = append(values, FromAny(v))
		}
		return NewArray(values)
	}
	return NewNull()
}

func fromScalar(s *xmessage.Scalar) Value {
	if s == nil {
		return NewNull()
	}
	switch s.Type {
	case xmessage.ScalarSInt:
		return NewInt(s.VSignedInt)
	case xmessage.ScalarUInt:
		return NewUInt(s.VUnsignedInt)
	case xmessage.ScalarNull:
		return NewNull()
	case xmessage.ScalarOctets:
		if s.VOctetsType == xmessage.ContentTypeDecimal {
			return NewDecimal(string(s.VOctets))
		}
		return NewOctets(string(s.VOctets))
	case xmessage.ScalarDouble:
		return NewDouble(s.VDouble)
	case xmessage.ScalarFloat:
		return NewFloat(s.VFloat)
	case xmessage.ScalarBool:
		return NewBool(s.VBool)
	case xmessage.ScalarString:
		return NewString(string(s.VString))
	}
	return NewNull()
}
