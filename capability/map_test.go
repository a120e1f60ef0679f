package capability_test

import (
	"testing"

	"github.com/gomysqlx/client/argument"
	"github.com/gomysqlx/client/capability"
	"github.com/gomysqlx/client/xmessage"
)

func capsFrom(fields map[string]argument.Value) *xmessage.Capabilities {
	caps := &xmessage.Capabilities{}
	for k, v := range fields {
		caps.Capabilities = append(caps.Capabilities, &xmessage.Capability{
			Name:  k,
			Value: argument.ToAny(v),
		})
	}
	return caps
}

func TestMapHas(t *testing.T) {
	t.Parallel()

	m := capability.NewMap(capsFrom(map[string]argument.Value{"tls": argument.NewBool(true)}))
	if !m.Has("tls") {
		t.Error("Has(tls) = false, want true")
	}
	if m.Has("missing") {
		t.Error("Has(missing) = true, want false")
	}
}

func TestMapNilCapabilities(t *testing.T) {
	t.Parallel()

	m := capability.NewMap(nil)
	if m.Has("anything") {
		t.Error("nil Capabilities should report no capability present")
	}
	if v := m.Value("anything"); v.Type() != argument.Null {
		t.Errorf("Value on nil caps = %v, want Null", v.Type())
	}
}

func TestMapBool(t *testing.T) {
	t.Parallel()

	m := capability.NewMap(capsFrom(map[string]argument.Value{
		"tls":        argument.NewBool(true),
		"not_a_bool": argument.NewString("x"),
	}))
	if !m.Bool("tls") {
		t.Error("Bool(tls) = false, want true")
	}
	if m.Bool("not_a_bool") {
		t.Error("Bool on a non-bool capability should default to false")
	}
	if m.Bool("absent") {
		t.Error("Bool on an absent capability should default to false")
	}
}

func TestMapString(t *testing.T) {
	t.Parallel()

	m := capability.NewMap(capsFrom(map[string]argument.Value{
		"node_type": argument.NewString("mysqlx"),
		"raw":       argument.NewOctets("bytes"),
	}))
	if got := m.String("node_type"); got != "mysqlx" {
		t.Errorf("String(node_type) = %q, want mysqlx", got)
	}
	if got := m.String("raw"); got != "bytes" {
		t.Errorf("String(raw) = %q, want bytes (octets coerce)", got)
	}
	if got := m.String("absent"); got != "" {
		t.Errorf("String(absent) = %q, want empty", got)
	}
}

func TestMapStringArray(t *testing.T) {
	t.Parallel()

	m := capability.NewMap(capsFrom(map[string]argument.Value{
		"compression.algorithms": argument.NewArray([]argument.Value{
			argument.NewString("lz4_message"),
			argument.NewString("deflate_stream"),
		}),
	}))
	got := m.StringArray("compression.algorithms")
	want := []string{"lz4_message", "deflate_stream"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("StringArray = %v, want %v", got, want)
	}
}

func TestMapObjectFromUnorderedObject(t *testing.T) {
	t.Parallel()

	m := capability.NewMap(capsFrom(map[string]argument.Value{
		"compression": argument.NewUnorderedObject([]argument.Field{
			{Key: "algorithm", Value: argument.NewString("lz4_message")},
		}),
	}))
	fields := m.Object("compression")
	if len(fields) != 1 || fields[0].Key != "algorithm" {
		t.Errorf("Object(compression) = %+v", fields)
	}
}
