package xmessage

import "google.golang.org/protobuf/encoding/protowire"

// Ok is SERVER_OK: a bare success acknowledgement, optionally carrying
// a human-readable message (used by SESS_RESET's reply in some server
// versions).
type Ok struct {
	Msg string
}

func (o *Ok) Marshal() ([]byte, error) {
	if o.Msg == "" {
		return nil, nil
	}
	return appendString(nil, 1, o.Msg), nil
}

func (o *Ok) Unmarshal(data []byte) error {
	*o = Ok{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		o.Msg = string(v)
		return n, nil
	})
}

// Error severity (Mysqlx.Error.Severity).
const (
	ErrorSeverityError   uint32 = 0
	ErrorSeverityFatal   uint32 = 1
)

// Error is SERVER_ERROR: the server's own error frame, distinct from
// xerr.Error which also covers client-local failures. The protocol
// engine translates one into the other at the boundary.
type Error struct {
	Severity uint32
	Code     uint32
	SQLState string
	Msg      string
}

func (e *Error) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(e.Code))
	b = appendString(b, 2, e.Msg)
	if e.SQLState != "" {
		b = appendString(b, 3, e.SQLState)
	}
	if e.Severity != 0 {
		b = appendVarint(b, 4, uint64(e.Severity))
	}
	return b, nil
}

func (e *Error) Unmarshal(data []byte) error {
	*e = Error{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			e.Code = uint32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			e.Msg = string(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			e.SQLState = string(v)
			return n, nil
		case 4:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			e.Severity = uint32(v)
			return n, nil
		}
		return -1, nil
	})
}
