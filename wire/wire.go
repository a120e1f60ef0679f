// Package wire implements the X Protocol frame format: a 4-byte
// little-endian length, a 1-byte message type, and a payload. It is the
// lowest layer shared by the plain and compressed transports.
//
// Frame layout (spec.md §3 "Frame"):
//
//	len  uint32 little-endian  -- length of (type byte + payload)
//	type uint8                 -- ClientMsgID or ServerMsgID
//	payload [len-1]byte
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ClientMsgID identifies a message the client may send.
type ClientMsgID uint8

// ServerMsgID identifies a message the client may receive.
type ServerMsgID uint8

// Client message ids, matching Mysqlx.ClientMessages.Type.
const (
	ClientConCapabilitiesGet ClientMsgID = 1
	ClientConCapabilitiesSet ClientMsgID = 2
	ClientConClose           ClientMsgID = 3

	ClientSessAuthenticateStart    ClientMsgID = 4
	ClientSessAuthenticateContinue ClientMsgID = 5
	ClientSessReset                ClientMsgID = 6
	ClientSessClose                ClientMsgID = 7

	ClientSQLStmtExecute ClientMsgID = 12

	ClientCrudFind   ClientMsgID = 17
	ClientCrudInsert ClientMsgID = 18
	ClientCrudUpdate ClientMsgID = 19
	ClientCrudDelete ClientMsgID = 20

	ClientExpectOpen  ClientMsgID = 24
	ClientExpectClose ClientMsgID = 25

	ClientCrudCreateView ClientMsgID = 30
	ClientCrudModifyView ClientMsgID = 31
	ClientCrudDropView   ClientMsgID = 32

	ClientPreparePrepare    ClientMsgID = 40
	ClientPrepareExecute    ClientMsgID = 41
	ClientPrepareDeallocate ClientMsgID = 42

	ClientCursorOpen  ClientMsgID = 43
	ClientCursorClose ClientMsgID = 44
	ClientCursorFetch ClientMsgID = 45

	ClientCompression ClientMsgID = 46
)

// Server message ids, matching Mysqlx.ServerMessages.Type.
const (
	ServerOK                ServerMsgID = 0
	ServerError              ServerMsgID = 1
	ServerConnCapabilities   ServerMsgID = 2

	ServerSessAuthenticateContinue ServerMsgID = 3
	ServerSessAuthenticateOk       ServerMsgID = 4

	ServerNotice ServerMsgID = 11

	ServerResultsetColumnMetaData         ServerMsgID = 12
	ServerResultsetRow                    ServerMsgID = 13
	ServerResultsetFetchDone              ServerMsgID = 14
	ServerResultsetFetchSuspended         ServerMsgID = 15
	ServerResultsetFetchDoneMoreResultsets ServerMsgID = 16
	ServerSQLStmtExecuteOk                ServerMsgID = 17
	ServerResultsetFetchDoneMoreOutParams  ServerMsgID = 18

	ServerCompression ServerMsgID = 19
)

func (id ClientMsgID) String() string {
	switch id {
	case ClientConCapabilitiesGet:
		return "CON_CAPABILITIES_GET"
	case ClientConCapabilitiesSet:
		return "CON_CAPABILITIES_SET"
	case ClientConClose:
		return "CON_CLOSE"
	case ClientSessAuthenticateStart:
		return "SESS_AUTHENTICATE_START"
	case ClientSessAuthenticateContinue:
		return "SESS_AUTHENTICATE_CONTINUE"
	case ClientSessReset:
		return "SESS_RESET"
	case ClientSessClose:
		return "SESS_CLOSE"
	case ClientSQLStmtExecute:
		return "SQL_STMT_EXECUTE"
	case ClientCrudFind:
		return "CRUD_FIND"
	case ClientCrudInsert:
		return "CRUD_INSERT"
	case ClientCrudUpdate:
		return "CRUD_UPDATE"
	case ClientCrudDelete:
		return "CRUD_DELETE"
	case ClientExpectOpen:
		return "EXPECT_OPEN"
	case ClientExpectClose:
		return "EXPECT_CLOSE"
	case ClientCrudCreateView:
		return "CRUD_CREATE_VIEW"
	case ClientCrudModifyView:
		return "CRUD_MODIFY_VIEW"
	case ClientCrudDropView:
		return "CRUD_DROP_VIEW"
	case ClientPreparePrepare:
		return "PREPARE_PREPARE"
	case ClientPrepareExecute:
		return "PREPARE_EXECUTE"
	case ClientPrepareDeallocate:
		return "PREPARE_DEALLOCATE"
	case ClientCursorOpen:
		return "CURSOR_OPEN"
	case ClientCursorClose:
		return "CURSOR_CLOSE"
	case ClientCursorFetch:
		return "CURSOR_FETCH"
	case ClientCompression:
		return "COMPRESSION"
	}
	return fmt.Sprintf("ClientMsgID(%d)", uint8(id))
}

func (id ServerMsgID) String() string {
	switch id {
	case ServerOK:
		return "OK"
	case ServerError:
		return "ERROR"
	case ServerConnCapabilities:
		return "CONN_CAPABILITIES"
	case ServerSessAuthenticateContinue:
		return "SESS_AUTHENTICATE_CONTINUE"
	case ServerSessAuthenticateOk:
		return "SESS_AUTHENTICATE_OK"
	case ServerNotice:
		return "NOTICE"
	case ServerResultsetColumnMetaData:
		return "RESULTSET_COLUMN_META_DATA"
	case ServerResultsetRow:
		return "RESULTSET_ROW"
	case ServerResultsetFetchDone:
		return "RESULTSET_FETCH_DONE"
	case ServerResultsetFetchSuspended:
		return "RESULTSET_FETCH_SUSPENDED"
	case ServerResultsetFetchDoneMoreResultsets:
		return "RESULTSET_FETCH_DONE_MORE_RESULTSETS"
	case ServerSQLStmtExecuteOk:
		return "SQL_STMT_EXECUTE_OK"
	case ServerResultsetFetchDoneMoreOutParams:
		return "RESULTSET_FETCH_DONE_MORE_OUT_PARAMS"
	case ServerCompression:
		return "COMPRESSION"
	}
	return fmt.Sprintf("ServerMsgID(%d)", uint8(id))
}

// MaxFrameLen bounds a single frame's payload to guard against a
// corrupt or malicious length field causing an unbounded allocation.
const MaxFrameLen = 256 << 20 // 256 MiB

// Frame is one length-prefixed, type-tagged unit on the wire.
type Frame struct {
	Type    byte // a ClientMsgID when writing, a ServerMsgID when reading
	Payload []byte
}

// ReadHeader reads the 4-byte length and 1-byte type from r and returns
// the declared payload length (len-1, i.e. excluding the type byte) and
// the type byte itself.
func ReadHeader(r io.Reader) (payloadLen uint32, msgType byte, err error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, fmt.Errorf("wire: read header: %w", err)
	}
	total := binary.LittleEndian.Uint32(hdr[0:4])
	if total == 0 {
		return 0, 0, fmt.Errorf("wire: malformed frame: zero length")
	}
	if total-1 > MaxFrameLen {
		return 0, 0, fmt.Errorf("wire: frame too large: %d bytes", total)
	}
	return total - 1, hdr[4], nil
}

// WriteFrame writes a complete frame (header + payload) to w.
func WriteFrame(w io.Writer, msgType byte, payload []byte) error {
	total := uint64(len(payload)) + 1
	if total-1 > MaxFrameLen {
		return fmt.Errorf("wire: payload too large: %d bytes", len(payload))
	}
	var hdr [5]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(total))
	hdr[4] = msgType
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("wire: write payload: %w", err)
		}
	}
	return nil
}

// AppendFrameBytes appends a complete frame (header + payload) to b,
// the in-memory equivalent of WriteFrame, used when a frame needs to
// be assembled before compression rather than written straight to the
// connection.
func AppendFrameBytes(b []byte, msgType byte, payload []byte) []byte {
	total := uint32(len(payload)) + 1
	var hdr [5]byte
	binary.LittleEndian.PutUint32(hdr[0:4], total)
	hdr[4] = msgType
	b = append(b, hdr[:]...)
	b = append(b, payload...)
	return b
}

// ReadFrame reads a full frame (header + payload) from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	n, typ, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("wire: read payload: %w", err)
		}
	}
	return &Frame{Type: typ, Payload: payload}, nil
}
