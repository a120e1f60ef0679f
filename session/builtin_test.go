package session

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/gomysqlx/client/netconn"
	"github.com/gomysqlx/client/protocol"
	"github.com/gomysqlx/client/wire"
	"github.com/gomysqlx/client/xcontext"
	"github.com/gomysqlx/client/xmessage"
)

func newTestProtocolPair(t *testing.T) (client, server *protocol.Protocol) {
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

	return protocol.New(clientConn), protocol.New(netconn.Wrap(serverRaw, netconn.TypeTCP))
}

func clientIDNotice(t *testing.T, id uint64) []byte {
	t.Helper()
	state := &xmessage.SessionStateChanged{
		Param: xmessage.StateClientIDAssigned,
		Value: &xmessage.Scalar{Type: xmessage.ScalarUInt, VUnsignedInt: id},
	}
	payload, err := state.Marshal()
	if err != nil {
		t.Fatalf("marshal session state changed: %v", err)
	}
	notice := &xmessage.Notice{Type: xmessage.NoticeSessionStateChanged, Payload: payload}
	b, err := notice.Marshal()
	if err != nil {
		t.Fatalf("marshal notice: %v", err)
	}
	return b
}

func TestInstallBuiltinHandlersCapturesClientID(t *testing.T) {
	t.Parallel()

	client, server := newTestProtocolPair(t)
	s := &Session{p: client, ctx: xcontext.New()}
	s.installBuiltinHandlers()

	go func() {
		_ = server.SendRaw(wire.ClientMsgID(wire.ServerNotice), clientIDNotice(t, 7))
		_ = server.SendRaw(wire.ClientMsgID(wire.ServerOK), nil)
	}()

	// RecvFrame must silently consume the client-id NOTICE and return
	// only the following OK frame.
	mid, _, rerr := client.RecvFrame()
	if rerr != nil {
		t.Fatalf("RecvFrame: %v", rerr)
	}
	if mid != wire.ServerOK {
		t.Errorf("mid = %v, want ServerOK (the client-id notice should have been consumed)", mid)
	}
	if s.ctx.ClientID != 7 {
		t.Errorf("ctx.ClientID = %d, want 7", s.ctx.ClientID)
	}
	if client.ClientID() != 7 {
		t.Errorf("protocol ClientID() = %d, want 7", client.ClientID())
	}
}

func TestHandleClientIDIgnoresUnrelatedNotice(t *testing.T) {
	t.Parallel()

	s := &Session{ctx: xcontext.New()}

	notice := &xmessage.Notice{Type: xmessage.NoticeWarning}
	if got := s.handleClientID(nil, notice); got != protocol.Continue {
		t.Errorf("got %v, want Continue for a non-session-state notice", got)
	}
	if s.ctx.ClientID != 0 {
		t.Errorf("ClientID = %d, want untouched (0)", s.ctx.ClientID)
	}
}

func TestHandleClientIDIgnoresOtherSessionStateParams(t *testing.T) {
	t.Parallel()

	s := &Session{ctx: xcontext.New()}

	state := &xmessage.SessionStateChanged{
		Param: xmessage.StateRowsAffected,
		Value: &xmessage.Scalar{Type: xmessage.ScalarUInt, VUnsignedInt: 99},
	}
	payload, _ := state.Marshal()
	notice := &xmessage.Notice{Type: xmessage.NoticeSessionStateChanged, Payload: payload}

	if got := s.handleClientID(nil, notice); got != protocol.Continue {
		t.Errorf("got %v, want Continue for StateRowsAffected", got)
	}
	if s.ctx.ClientID != 0 {
		t.Errorf("ClientID = %d, want untouched (0)", s.ctx.ClientID)
	}
}

func TestHandleClientIDConsumesMatchingNotice(t *testing.T) {
	t.Parallel()

	client, _ := newTestProtocolPair(t)
	s := &Session{p: client, ctx: xcontext.New()}

	state := &xmessage.SessionStateChanged{
		Param: xmessage.StateClientIDAssigned,
		Value: &xmessage.Scalar{Type: xmessage.ScalarUInt, VUnsignedInt: 123},
	}
	payload, _ := state.Marshal()
	notice := &xmessage.Notice{Type: xmessage.NoticeSessionStateChanged, Payload: payload}

	if got := s.handleClientID(nil, notice); got != protocol.Consumed {
		t.Errorf("got %v, want Consumed", got)
	}
	if s.ctx.ClientID != 123 {
		t.Errorf("ctx.ClientID = %d, want 123", s.ctx.ClientID)
	}
	if client.ClientID() != 123 {
		t.Errorf("protocol ClientID() = %d, want 123", client.ClientID())
	}
}

func TestHandleConsumeAllAlwaysConsumes(t *testing.T) {
	t.Parallel()

	s := &Session{ctx: xcontext.New()}
	if got := s.handleConsumeAll(nil, &xmessage.Notice{Type: xmessage.NoticeWarning}); got != protocol.Consumed {
		t.Errorf("got %v, want Consumed", got)
	}
}

func TestInstallBuiltinHandlersConsumesEveryNoticeWhenConfigured(t *testing.T) {
	t.Parallel()

	client, server := newTestProtocolPair(t)
	ctx := xcontext.New()
	ctx.ConsumeAllNotices = true
	s := &Session{p: client, ctx: ctx}
	s.installBuiltinHandlers()

	warning := &xmessage.Warning{Level: xmessage.WarningNote, Code: 1, Msg: "note"}
	warningPayload, _ := warning.Marshal()
	notice := &xmessage.Notice{Type: xmessage.NoticeWarning, Payload: warningPayload}
	noticePayload, _ := notice.Marshal()

	go func() {
		_ = server.SendRaw(wire.ClientMsgID(wire.ServerNotice), noticePayload)
		_ = server.SendRaw(wire.ClientMsgID(wire.ServerOK), nil)
	}()

	mid, _, rerr := client.RecvFrame()
	if rerr != nil {
		t.Fatalf("RecvFrame: %v", rerr)
	}
	if mid != wire.ServerOK {
		t.Errorf("mid = %v, want ServerOK (the warning notice should have been consumed with no Result installed)", mid)
	}
}
