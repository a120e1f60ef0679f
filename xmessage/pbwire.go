// Package xmessage hand-rolls the wire shapes of the handful of
// Mysqlx.* Protobuf messages the protocol engine needs to send and
// receive. The spec treats the full Mysqlx.* schema as an opaque,
// externally-owned collaborator (spec.md §1); rather than vendor a
// generated package for it, each message here encodes and decodes its
// own fields directly against google.golang.org/protobuf's low-level
// protowire primitives -- the same wire format protoc-gen-go output
// would use, without the codegen.
package xmessage

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is satisfied by every type in this package.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// appendVarint appends a field of wire type varint.
func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendZigzag appends a field of wire type varint holding a signed
// integer encoded with protobuf's zigzag scheme (sint64 semantics).
func appendZigzag(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

// appendBool appends a bool field.
func appendBool(b []byte, num protowire.Number, v bool) []byte {
	x := uint64(0)
	if v {
		x = 1
	}
	return appendVarint(b, num, x)
}

// appendBytes appends a length-delimited field (string, bytes, or a
// nested message already marshaled to bytes).
func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendString appends a string field.
func appendString(b []byte, num protowire.Number, v string) []byte {
	return appendBytes(b, num, []byte(v))
}

// appendFixed64 appends a double/fixed64 field.
func appendFixed64(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

// appendFixed32 appends a float/fixed32 field.
func appendFixed32(b []byte, num protowire.Number, v uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, v)
}

// appendMessage appends a nested message field, re-marshaling m.
func appendMessage(b []byte, num protowire.Number, m Message) ([]byte, error) {
	inner, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	return appendBytes(b, num, inner), nil
}

// fieldVisitor is called once per top-level field while decoding; it
// returns the number of bytes consumed for that field's value (the
// caller has already consumed the tag).
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// decodeFields walks a Protobuf byte stream, calling visit for every
// field. Unknown field numbers are skipped using protowire's own
// length accounting, matching how a generated Unmarshal tolerates
// schema evolution.
func decodeFields(data []byte, visit fieldVisitor) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("xmessage: invalid tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		consumed, err := visit(num, typ, data)
		if err != nil {
			return err
		}
		if consumed >= 0 {
			data = data[consumed:]
			continue
		}

		// Field not recognized by visit; skip it generically.
		m, err := skipField(typ, data)
		if err != nil {
			return err
		}
		data = data[m:]
	}
	return nil
}

func skipField(typ protowire.Type, data []byte) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, data)
	if n < 0 {
		return 0, fmt.Errorf("xmessage: invalid field value: %w", protowire.ParseError(n))
	}
	return n, nil
}

func consumeVarint(data []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, fmt.Errorf("xmessage: invalid varint: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeBytes(data []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, fmt.Errorf("xmessage: invalid bytes: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeFixed64(data []byte) (uint64, int, error) {
	v, n := protowire.ConsumeFixed64(data)
	if n < 0 {
		return 0, 0, fmt.Errorf("xmessage: invalid fixed64: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeFixed32(data []byte) (uint32, int, error) {
	v, n := protowire.ConsumeFixed32(data)
	if n < 0 {
		return 0, 0, fmt.Errorf("xmessage: invalid fixed32: %w", protowire.ParseError(n))
	}
	return v, n, nil
}
