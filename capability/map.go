package capability

import (
	"github.com/gomysqlx/client/argument"
	"github.com/gomysqlx/client/xmessage"
)

// Map is a read-only view over a server's CON_CAPABILITIES_GET reply,
// letting callers look up named capability values by type.
type Map struct {
	caps *xmessage.Capabilities
}

// NewMap wraps a decoded Capabilities reply.
func NewMap(caps *xmessage.Capabilities) *Map {
	if caps == nil {
		caps = &xmessage.Capabilities{}
	}
	return &Map{caps: caps}
}

// Has reports whether name was advertised at all.
func (m *Map) Has(name string) bool {
	return m.caps.Get(name) != nil
}

// Value returns name's value as an Argument Value, or Null if absent.
func (m *Map) Value(name string) argument.Value {
	any := m.caps.Get(name)
	if any == nil {
		return argument.NewNull()
	}
	return argument.FromAny(any)
}

// Bool returns name's value coerced to bool (false if absent or not a
// bool-typed scalar).
func (m *Map) Bool(name string) bool {
	v := m.Value(name)
	if v.Type() != argument.Bool {
		ok := false
		v.Accept(boolCoercer{out: &ok})
		return ok
	}
	ok := false
	v.Accept(boolCoercer{out: &ok})
	return ok
}

type boolCoercer struct {
	argument.DefaultVisitor
	out *bool
}

func (b boolCoercer) VisitBool(value bool) { *b.out = value }

// String returns name's value coerced to a string (empty if absent or
// not a string/octets-typed scalar).
func (m *Map) String(name string) string {
	v := m.Value(name)
	out := ""
	v.Accept(stringCoercer{out: &out})
	return out
}

type stringCoercer struct {
	argument.DefaultVisitor
	out *string
}

func (s stringCoercer) VisitString(value string) { *s.out = value }
func (s stringCoercer) VisitOctets(value string) { *s.out = value }

// StringArray returns name's value as a string array, e.g. the
// server-advertised "compression.algorithms" list.
func (m *Map) StringArray(name string) []string {
	v := m.Value(name)
	var out []string
	v.Accept(arrayCoercer{out: &out})
	return out
}

type arrayCoercer struct {
	argument.DefaultVisitor
	out *[]string
}

func (a arrayCoercer) VisitArray(value []argument.Value) {
	for _, v := range value {
		s := ""
		v.Accept(stringCoercer{out: &s})
		*a.out = append(*a.out, s)
	}
}

// Object returns name's value as an ordered field list, e.g. the
// "compression" sub-object advertised by the server.
func (m *Map) Object(name string) []argument.Field {
	v := m.Value(name)
	var out []argument.Field
	v.Accept(objectCoercer{out: &out})
	return out
}

type objectCoercer struct {
	argument.DefaultVisitor
	out *[]argument.Field
}

func (o objectCoercer) VisitUnorderedObject(value []argument.Field) { *o.out = value }
func (o objectCoercer) VisitObject(value map[string]argument.Value) {
	for k, v := range value {
		*o.out = append(*o.out, argument.Field{Key: k, Value: v})
	}
}
