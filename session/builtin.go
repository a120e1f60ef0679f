package session

import (
	"github.com/gomysqlx/client/protocol"
	"github.com/gomysqlx/client/xmessage"
)

// installBuiltinHandlers registers the two notice handlers every
// session carries for its whole lifetime: capturing the server-assigned
// client id, and (if configured) silently consuming every notice that
// is still unclaimed after every other handler, a Result's own
// included, has seen it.
func (s *Session) installBuiltinHandlers() {
	s.clientIDHandler = s.p.AddNoticeHandler(s.handleClientID, protocol.Begin, protocol.PriorityHigh)
	if s.ctx.ConsumeAllNotices {
		s.consumeHandler = s.p.AddNoticeHandler(s.handleConsumeAll, protocol.End, protocol.PriorityLow)
	}
}

func (s *Session) handleClientID(_ *protocol.Protocol, n *xmessage.Notice) protocol.Result {
	if n.Type != xmessage.NoticeSessionStateChanged {
		return protocol.Continue
	}
	state := &xmessage.SessionStateChanged{}
	if err := state.Unmarshal(n.Payload); err != nil || state.Param != xmessage.StateClientIDAssigned {
		return protocol.Continue
	}
	if state.Value == nil || state.Value.Type != xmessage.ScalarUInt {
		return protocol.Continue
	}
	s.ctx.ClientID = state.Value.VUnsignedInt
	s.p.SetClientID(state.Value.VUnsignedInt)
	return protocol.Consumed
}

// handleConsumeAll runs last, behind every handler a Result installs
// for its own resultset; anything still unclaimed at this point is
// dropped rather than surfaced to the caller, matching
// m_consume_all_notices's default-on behavior.
func (s *Session) handleConsumeAll(*protocol.Protocol, *xmessage.Notice) protocol.Result {
	return protocol.Consumed
}
