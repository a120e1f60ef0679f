package resultset_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gomysqlx/client/netconn"
	"github.com/gomysqlx/client/protocol"
	"github.com/gomysqlx/client/resultset"
	"github.com/gomysqlx/client/wire"
	"github.com/gomysqlx/client/xmessage"
)

// newResultHarness starts a loopback TCP pair and returns a Result
// reading the client side, plus a sendServer func the test uses to
// feed canned frames from the other end.
func newResultHarness(t *testing.T) (r *resultset.Result, sendServer func(mid wire.ServerMsgID, payload []byte)) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	acceptedCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			acceptedCh <- c
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	clientConn, err := netconn.DialTCP(t.Context(), host, port, netconn.IPAny)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	t.Cleanup(func() { _ = clientConn.Close() })

	var serverRaw net.Conn
	select {
	case serverRaw = <-acceptedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server accept")
	}
	t.Cleanup(func() { _ = serverRaw.Close() })

	serverProto := protocol.New(netconn.Wrap(serverRaw, netconn.TypeTCP))
	clientProto := protocol.New(clientConn)

	send := func(mid wire.ServerMsgID, payload []byte) {
		if err := serverProto.SendRaw(wire.ClientMsgID(mid), payload); err != nil {
			t.Errorf("sendServer(%v): %v", mid, err)
		}
	}
	return resultset.New(clientProto), send
}

func marshal(t *testing.T, m xmessage.Message) []byte {
	t.Helper()
	b, err := m.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func sintField(v int64) []byte {
	return protowire.AppendVarint(nil, protowire.EncodeZigZag(v))
}

func uintField(v uint64) []byte {
	return protowire.AppendVarint(nil, v)
}

func TestResultWithOneColumnOneRow(t *testing.T) {
	t.Parallel()

	r, send := newResultHarness(t)

	go func() {
		send(wire.ServerResultsetColumnMetaData, marshal(t, &xmessage.ColumnMetaData{Type: xmessage.ColumnSint, Name: "n"}))
		send(wire.ServerResultsetRow, marshal(t, &xmessage.Row{Field: [][]byte{sintField(-7)}}))
		send(wire.ServerResultsetFetchDone, nil)
		send(wire.ServerSQLStmtExecuteOk, nil)
	}()

	has, err := r.HasResultset()
	if err != nil {
		t.Fatalf("HasResultset: %v", err)
	}
	if !has {
		t.Fatal("expected a resultset")
	}
	if len(r.Columns) != 1 || r.Columns[0].Name != "n" {
		t.Fatalf("Columns = %+v", r.Columns)
	}

	row, err := r.NextRow()
	if err != nil {
		t.Fatalf("NextRow: %v", err)
	}
	if row == nil || len(row.Field) != 1 || row.Field[0].Int != -7 {
		t.Fatalf("row = %+v, want Int -7", row)
	}

	row, err = r.NextRow()
	if err != nil {
		t.Fatalf("NextRow (end): %v", err)
	}
	if row != nil {
		t.Errorf("expected nil row once exhausted, got %+v", row)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestResultWithNoResultset(t *testing.T) {
	t.Parallel()

	r, send := newResultHarness(t)

	go func() {
		send(wire.ServerSQLStmtExecuteOk, nil)
	}()

	has, err := r.HasResultset()
	if err != nil {
		t.Fatalf("HasResultset: %v", err)
	}
	if has {
		t.Error("expected no resultset")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestResultServerErrorDuringMetadata(t *testing.T) {
	t.Parallel()

	r, send := newResultHarness(t)

	go func() {
		send(wire.ServerError, marshal(t, &xmessage.Error{Code: 1064, Msg: "syntax error", SQLState: "42000"}))
	}()

	_, err := r.HasResultset()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Code != 1064 {
		t.Errorf("Code = %d, want 1064", err.Code)
	}
}

func TestResultSessionStateNoticesUpdateAccessors(t *testing.T) {
	t.Parallel()

	r, send := newResultHarness(t)

	insertIDNotice := marshal(t, &xmessage.SessionStateChanged{
		Param: xmessage.StateGeneratedInsertID,
		Value: &xmessage.Scalar{Type: xmessage.ScalarUInt, VUnsignedInt: 55},
	})
	rowsAffectedNotice := marshal(t, &xmessage.SessionStateChanged{
		Param: xmessage.StateRowsAffected,
		Value: &xmessage.Scalar{Type: xmessage.ScalarUInt, VUnsignedInt: 3},
	})
	messageNotice := marshal(t, &xmessage.SessionStateChanged{
		Param: xmessage.StateProducedMessage,
		Value: &xmessage.Scalar{Type: xmessage.ScalarString, VString: []byte("done")},
	})

	go func() {
		send(wire.ServerNotice, marshal(t, &xmessage.Notice{Type: xmessage.NoticeSessionStateChanged, Payload: insertIDNotice}))
		send(wire.ServerNotice, marshal(t, &xmessage.Notice{Type: xmessage.NoticeSessionStateChanged, Payload: rowsAffectedNotice}))
		send(wire.ServerNotice, marshal(t, &xmessage.Notice{Type: xmessage.NoticeSessionStateChanged, Payload: messageNotice}))
		send(wire.ServerSQLStmtExecuteOk, nil)
	}()

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if id, ok := r.LastInsertID(); !ok || id != 55 {
		t.Errorf("LastInsertID() = (%d, %v), want (55, true)", id, ok)
	}
	if n, ok := r.AffectedRows(); !ok || n != 3 {
		t.Errorf("AffectedRows() = (%d, %v), want (3, true)", n, ok)
	}
	if msg, ok := r.InfoMessage(); !ok || msg != "done" {
		t.Errorf("InfoMessage() = (%q, %v), want (\"done\", true)", msg, ok)
	}
}

func TestResultWarningsAccumulate(t *testing.T) {
	t.Parallel()

	r, send := newResultHarness(t)

	go func() {
		send(wire.ServerNotice, marshal(t, &xmessage.Notice{
			Type:    xmessage.NoticeWarning,
			Payload: marshal(t, &xmessage.Warning{Level: xmessage.WarningWarning, Code: 1264, Msg: "out of range"}),
		}))
		send(wire.ServerSQLStmtExecuteOk, nil)
	}()

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	warnings := r.Warnings()
	if len(warnings) != 1 || warnings[0].Code != 1264 {
		t.Errorf("Warnings() = %+v", warnings)
	}
}

func TestResultMultipleResultsets(t *testing.T) {
	t.Parallel()

	r, send := newResultHarness(t)

	go func() {
		send(wire.ServerResultsetColumnMetaData, marshal(t, &xmessage.ColumnMetaData{Type: xmessage.ColumnUint}))
		send(wire.ServerResultsetRow, marshal(t, &xmessage.Row{Field: [][]byte{uintField(1)}}))
		send(wire.ServerResultsetFetchDoneMoreResultsets, nil)

		send(wire.ServerResultsetColumnMetaData, marshal(t, &xmessage.ColumnMetaData{Type: xmessage.ColumnUint}))
		send(wire.ServerResultsetRow, marshal(t, &xmessage.Row{Field: [][]byte{uintField(2)}}))
		send(wire.ServerResultsetFetchDone, nil)

		send(wire.ServerSQLStmtExecuteOk, nil)
	}()

	has, err := r.HasResultset()
	if err != nil || !has {
		t.Fatalf("HasResultset: has=%v err=%v", has, err)
	}
	row, err := r.NextRow()
	if err != nil || row == nil || row.Field[0].UInt != 1 {
		t.Fatalf("first resultset row = %+v, err=%v", row, err)
	}
	if row, err = r.NextRow(); err != nil || row != nil {
		t.Fatalf("expected end of first resultset, got row=%+v err=%v", row, err)
	}

	more, err := r.NextResultset()
	if err != nil || !more {
		t.Fatalf("NextResultset: more=%v err=%v", more, err)
	}
	row, err = r.NextRow()
	if err != nil || row == nil || row.Field[0].UInt != 2 {
		t.Fatalf("second resultset row = %+v, err=%v", row, err)
	}
	if row, err = r.NextRow(); err != nil || row != nil {
		t.Fatalf("expected end of second resultset, got row=%+v err=%v", row, err)
	}

	more, err = r.NextResultset()
	if err != nil || more {
		t.Fatalf("NextResultset (final): more=%v err=%v", more, err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestResultCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	r, send := newResultHarness(t)
	go func() { send(wire.ServerSQLStmtExecuteOk, nil) }()

	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
}
