package argument_test

import (
	"reflect"
	"testing"

	"github.com/gomysqlx/client/argument"
)

type recordingVisitor struct {
	argument.DefaultVisitor
	calls []string
}

func (r *recordingVisitor) VisitNull()                  { r.calls = append(r.calls, "null") }
func (r *recordingVisitor) VisitInteger(int64)          { r.calls = append(r.calls, "integer") }
func (r *recordingVisitor) VisitUInteger(uint64)        { r.calls = append(r.calls, "uinteger") }
func (r *recordingVisitor) VisitDouble(float64)         { r.calls = append(r.calls, "double") }
func (r *recordingVisitor) VisitFloat(float32)          { r.calls = append(r.calls, "float") }
func (r *recordingVisitor) VisitBool(bool)              { r.calls = append(r.calls, "bool") }
func (r *recordingVisitor) VisitString(string)          { r.calls = append(r.calls, "string") }
func (r *recordingVisitor) VisitOctets(string)          { r.calls = append(r.calls, "octets") }
func (r *recordingVisitor) VisitDecimal(string)         { r.calls = append(r.calls, "decimal") }
func (r *recordingVisitor) VisitArray([]argument.Value) { r.calls = append(r.calls, "array") }
func (r *recordingVisitor) VisitObject(map[string]argument.Value) {
	r.calls = append(r.calls, "object")
}
func (r *recordingVisitor) VisitUnorderedObject([]argument.Field) {
	r.calls = append(r.calls, "unordered_object")
}

func TestValueAcceptDispatchesExactlyOneVisitMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    argument.Value
		want string
	}{
		{"null", argument.NewNull(), "null"},
		{"int", argument.NewInt(-7), "integer"},
		{"uint", argument.NewUInt(7), "uinteger"},
		{"double", argument.NewDouble(3.14), "double"},
		{"float", argument.NewFloat(1.5), "float"},
		{"bool", argument.NewBool(true), "bool"},
		{"string", argument.NewString("hi"), "string"},
		{"octets", argument.NewOctets("\x00\x01"), "octets"},
		{"decimal", argument.NewDecimal("1.50"), "decimal"},
		{"array", argument.NewArray([]argument.Value{argument.NewInt(1)}), "array"},
		{"object", argument.NewObject(map[string]argument.Value{"a": argument.NewInt(1)}), "object"},
		{"unordered_object", argument.NewUnorderedObject([]argument.Field{{Key: "a", Value: argument.NewInt(1)}}), "unordered_object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rv := &recordingVisitor{}
			tt.v.Accept(rv)
			if len(rv.calls) != 1 || rv.calls[0] != tt.want {
				t.Errorf("Accept calls = %v, want exactly [%s]", rv.calls, tt.want)
			}
		})
	}
}

func TestValueType(t *testing.T) {
	t.Parallel()

	if got := argument.NewInt(1).Type(); got != argument.Integer {
		t.Errorf("Type() = %v, want Integer", got)
	}
	if got := argument.Type(99).String(); got != "Type(99)" {
		t.Errorf("unknown Type.String() = %q, want fallback form", got)
	}
}

func TestNewArrayCopiesInput(t *testing.T) {
	t.Parallel()

	src := []argument.Value{argument.NewInt(1), argument.NewInt(2)}
	v := argument.NewArray(src)

	src[0] = argument.NewInt(99)

	rv := &recordingVisitor{}
	v.Accept(rv)
	if rv.calls[0] != "array" {
		t.Fatalf("expected array visit, got %v", rv.calls)
	}

	var captured []argument.Value
	v.Accept(&arrayCapture{capture: &captured})
	if !reflect.DeepEqual(captured, []argument.Value{argument.NewInt(1), argument.NewInt(2)}) {
		t.Errorf("array mutated after NewArray: got %v", captured)
	}
}

type arrayCapture struct {
	argument.DefaultVisitor
	capture *[]argument.Value
}

func (a *arrayCapture) VisitArray(value []argument.Value) {
	*a.capture = value
}

func TestNewObjectCopiesInput(t *testing.T) {
	t.Parallel()

	src := map[string]argument.Value{"a": argument.NewInt(1)}
	v := argument.NewObject(src)
	src["b"] = argument.NewInt(2)

	var captured map[string]argument.Value
	visitor := &objectCapture{capture: &captured}
	v.Accept(visitor)

	if !reflect.DeepEqual(captured, map[string]argument.Value{"a": argument.NewInt(1)}) {
		t.Errorf("object mutated after NewObject: got %v", captured)
	}
}

type objectCapture struct {
	argument.DefaultVisitor
	capture *map[string]argument.Value
}

func (o *objectCapture) VisitObject(value map[string]argument.Value) {
	*o.capture = value
}

func TestNewUnorderedObjectPreservesOrder(t *testing.T) {
	t.Parallel()

	fields := []argument.Field{
		{Key: "z", Value: argument.NewInt(1)},
		{Key: "a", Value: argument.NewInt(2)},
	}
	v := argument.NewUnorderedObject(fields)

	var captured []argument.Field
	visitor := &unorderedCapture{capture: &captured}
	v.Accept(visitor)

	if len(captured) != 2 || captured[0].Key != "z" || captured[1].Key != "a" {
		t.Errorf("order not preserved: got %+v", captured)
	}
}

type unorderedCapture struct {
	argument.DefaultVisitor
	capture *[]argument.Field
}

func (u *unorderedCapture) VisitUnorderedObject(value []argument.Field) {
	*u.capture = value
}
