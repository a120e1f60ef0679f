// Package protocol implements the Protocol Engine: the layer that
// turns raw frames from the Framing Streams into typed Mysqlx.*
// messages, dispatches inbound NOTICE frames through a handler chain
// before the caller ever sees them, and drives the request/response
// exchanges (capability negotiation, authentication) that sit below
// the Session Facade. Grounded on xcl::XProtocol/XProtocol_impl.
package protocol

import (
	"github.com/gomysqlx/client/capability"
	"github.com/gomysqlx/client/compress"
	"github.com/gomysqlx/client/netconn"
	"github.com/gomysqlx/client/stream"
	"github.com/gomysqlx/client/wire"
	"github.com/gomysqlx/client/xerr"
	"github.com/gomysqlx/client/xmessage"
)

// NoticeHandler observes a decoded NOTICE frame before RecvFrame
// returns control to its caller.
type NoticeHandler func(p *Protocol, notice *xmessage.Notice) Result

// MessageHandler observes every other inbound frame, keyed by its
// ServerMsgID, before RecvFrame returns it to its caller.
type MessageHandler func(p *Protocol, mid wire.ServerMsgID, payload []byte) Result

// SendHandler observes every outbound frame just before it is written.
type SendHandler func(p *Protocol, mid wire.ClientMsgID, payload []byte) Result

// Protocol is the Protocol Engine for a single connection: one
// in-flight request at a time, matching the original's single-threaded
// contract.
type Protocol struct {
	conn   *netconn.Connection
	r      *stream.Reader
	w      *stream.Writer
	readFn func() ([]byte, byte, error)

	compressAlgorithm   compress.Algorithm
	compressClientStyle compress.Style

	noticeHandlers  *chain[NoticeHandler]
	messageHandlers *chain[MessageHandler]
	sendHandlers    *chain[SendHandler]

	clientID uint64
}

// New wraps an already-dialed connection with the framing layer and an
// empty set of handler chains.
func New(conn *netconn.Connection) *Protocol {
	p := &Protocol{
		conn:            conn,
		r:               stream.NewReader(conn),
		w:               stream.NewWriter(conn),
		noticeHandlers:  newChain[NoticeHandler](),
		messageHandlers: newChain[MessageHandler](),
		sendHandlers:    newChain[SendHandler](),
	}
	return p
}

// Connection returns the underlying Byte Connection, for TLS
// activation and state inspection.
func (p *Protocol) Connection() *netconn.Connection { return p.conn }

// SetClientID records the id the server assigned this connection via a
// STATE_CLIENT_ID_ASSIGNED notice, returned later by ClientID.
func (p *Protocol) SetClientID(id uint64) { p.clientID = id }

// ClientID returns the id the server assigned this connection, or 0 if
// none has been observed yet.
func (p *Protocol) ClientID() uint64 { return p.clientID }

// AddNoticeHandler registers h to observe every NOTICE frame.
func (p *Protocol) AddNoticeHandler(h NoticeHandler, pos Position, prio Priority) HandlerID {
	return p.noticeHandlers.Add(h, pos, prio)
}

// RemoveNoticeHandler unregisters a handler added by AddNoticeHandler.
func (p *Protocol) RemoveNoticeHandler(id HandlerID) { p.noticeHandlers.Remove(id) }

// AddReceivedMessageHandler registers h to observe every non-NOTICE
// inbound frame.
func (p *Protocol) AddReceivedMessageHandler(h MessageHandler, pos Position, prio Priority) HandlerID {
	return p.messageHandlers.Add(h, pos, prio)
}

// RemoveReceivedMessageHandler unregisters a handler added by
// AddReceivedMessageHandler.
func (p *Protocol) RemoveReceivedMessageHandler(id HandlerID) { p.messageHandlers.Remove(id) }

// AddSendMessageHandler registers h to observe every outbound frame.
func (p *Protocol) AddSendMessageHandler(h SendHandler, pos Position, prio Priority) HandlerID {
	return p.sendHandlers.Add(h, pos, prio)
}

// RemoveSendMessageHandler unregisters a handler added by AddSendMessageHandler.
func (p *Protocol) RemoveSendMessageHandler(id HandlerID) { p.sendHandlers.Remove(id) }

// EnableCompression switches the outbound path to wrap every frame
// sent after this call in a COMPRESSION envelope, once capability
// negotiation has picked algorithm.
func (p *Protocol) EnableCompression(algorithm compress.Algorithm, clientStyle compress.Style) {
	p.compressAlgorithm = algorithm
	p.compressClientStyle = clientStyle
}

// Send marshals msg and writes it as a single frame tagged mid,
// running it past the send-message handler chain first.
func (p *Protocol) Send(mid wire.ClientMsgID, msg xmessage.Message) *xerr.Error {
	payload, err := msg.Marshal()
	if err != nil {
		return xerr.Newf(xerr.InternalAborted, "protocol: marshal %s: %v", mid, err)
	}
	return p.SendRaw(mid, payload)
}

// SendRaw writes a pre-encoded payload as a single frame tagged mid.
func (p *Protocol) SendRaw(mid wire.ClientMsgID, payload []byte) *xerr.Error {
	result := Continue
	p.sendHandlers.Range(func(h SendHandler) bool {
		switch h(p, mid, payload) {
		case Consumed:
			result = Consumed
			return false
		case Error:
			result = Error
			return false
		}
		return true
	})
	switch result {
	case Consumed:
		return nil
	case Error:
		return xerr.New(xerr.InternalAborted, "protocol: send handler aborted")
	}

	if p.compressAlgorithm != compress.None {
		return p.sendCompressed(mid, payload)
	}

	if err := wire.WriteFrame(p.w, byte(mid), payload); err != nil {
		return xerr.Newf(xerr.WriteTimeout, "protocol: write frame: %v", err)
	}
	if err := p.w.Flush(); err != nil {
		return xerr.Newf(xerr.WriteTimeout, "protocol: flush: %v", err)
	}
	return nil
}

func (p *Protocol) sendCompressed(mid wire.ClientMsgID, payload []byte) *xerr.Error {
	var inner []byte
	inner = wire.AppendFrameBytes(inner, byte(mid), payload)
	compressed, err := compress.CompressPayload(p.compressAlgorithm, inner)
	if err != nil {
		return xerr.Newf(xerr.InternalAborted, "protocol: compress: %v", err)
	}
	env := &xmessage.Compression{
		UncompressedSize: uint64(len(inner)),
		ServerMessages:   0,
		Payload:          compressed,
	}
	envPayload, merr := env.Marshal()
	if merr != nil {
		return xerr.Newf(xerr.InternalAborted, "protocol: marshal compression envelope: %v", merr)
	}
	if err := wire.WriteFrame(p.w, byte(wire.ClientCompression), envPayload); err != nil {
		return xerr.Newf(xerr.WriteTimeout, "protocol: write compressed frame: %v", err)
	}
	if err := p.w.Flush(); err != nil {
		return xerr.Newf(xerr.WriteTimeout, "protocol: flush: %v", err)
	}
	return nil
}

// RecvFrame returns the next non-NOTICE frame not silently consumed by
// a received-message handler. NOTICE frames are always decoded and
// offered to the notice handler chain and are never returned to the
// caller, whatever the handlers answer (an Error answer aborts the
// read); every other frame is offered to the received-message handler
// chain, keyed by its ServerMsgID.
func (p *Protocol) RecvFrame() (wire.ServerMsgID, []byte, *xerr.Error) {
	for {
		f, err := wire.ReadFrame(p.r.Underlying())
		if err != nil {
			return 0, nil, xerr.Newf(xerr.ReadTimeout, "protocol: read frame: %v", err)
		}
		mid := wire.ServerMsgID(f.Type)

		if mid == wire.ServerCompression {
			decoded, derr := p.decompressFrame(f.Payload)
			if derr != nil {
				return 0, nil, derr
			}
			if decoded == nil {
				continue
			}
			mid, f.Payload = decoded.mid, decoded.payload
		}

		if mid == wire.ServerNotice {
			notice := &xmessage.Notice{}
			if err := notice.Unmarshal(f.Payload); err != nil {
				return 0, nil, xerr.Newf(xerr.MalformedPacket, "protocol: unmarshal notice: %v", err)
			}
			result := Continue
			p.noticeHandlers.Range(func(h NoticeHandler) bool {
				switch h(p, notice) {
				case Consumed:
					result = Consumed
					return false
				case Error:
					result = Error
					return false
				}
				return true
			})
			switch result {
			case Consumed:
				continue
			case Error:
				return 0, nil, xerr.New(xerr.InternalAborted, "protocol: notice handler aborted")
			}
			continue
		}

		result := Continue
		p.messageHandlers.Range(func(h MessageHandler) bool {
			switch h(p, mid, f.Payload) {
			case Consumed:
				result = Consumed
				return false
			case Error:
				result = Error
				return false
			}
			return true
		})
		switch result {
		case Consumed:
			continue
		case Error:
			return 0, nil, xerr.New(xerr.InternalAborted, "protocol: received-message handler aborted")
		}

		return mid, f.Payload, nil
	}
}

type decodedFrame struct {
	mid     wire.ServerMsgID
	payload []byte
}

// decompressFrame unwraps a COMPRESSION envelope. Only the
// StyleSingle case (one inner frame per envelope) is decoded here; a
// nil result with no error means the caller should read another frame
// (reserved for a future multi-frame group implementation).
func (p *Protocol) decompressFrame(envelope []byte) (*decodedFrame, *xerr.Error) {
	env := &xmessage.Compression{}
	if err := env.Unmarshal(envelope); err != nil {
		return nil, xerr.Newf(xerr.MalformedPacket, "protocol: unmarshal compression envelope: %v", err)
	}
	algorithm := p.compressAlgorithm
	if algorithm == compress.None {
		algorithm = compress.Deflate
	}
	inner, err := compress.DecompressPayload(algorithm, env.Payload, env.UncompressedSize)
	if err != nil {
		return nil, xerr.Newf(xerr.InternalAborted, "protocol: decompress: %v", err)
	}
	if len(inner) < 5 {
		return nil, xerr.New(xerr.MalformedPacket, "protocol: decompressed frame too short")
	}
	length := uint32(inner[0]) | uint32(inner[1])<<8 | uint32(inner[2])<<16 | uint32(inner[3])<<24
	if int(length)-1 > len(inner)-5 {
		return nil, xerr.New(xerr.MalformedPacket, "protocol: decompressed frame length mismatch")
	}
	return &decodedFrame{mid: wire.ServerMsgID(inner[4]), payload: inner[5 : 4+length]}, nil
}

// RecvOk reads the next frame, which must be SERVER_OK, and discards
// it; any other message (most importantly SERVER_ERROR) is translated
// into an *xerr.Error.
func (p *Protocol) RecvOk() *xerr.Error {
	mid, payload, err := p.RecvFrame()
	if err != nil {
		return err
	}
	return p.expectOk(mid, payload)
}

func (p *Protocol) expectOk(mid wire.ServerMsgID, payload []byte) *xerr.Error {
	switch mid {
	case wire.ServerOK:
		return nil
	case wire.ServerError:
		return decodeServerError(payload)
	default:
		return xerr.Newf(xerr.MalformedPacket, "protocol: unexpected message %s, wanted OK", mid)
	}
}

func decodeServerError(payload []byte) *xerr.Error {
	e := &xmessage.Error{}
	if err := e.Unmarshal(payload); err != nil {
		return xerr.Newf(xerr.MalformedPacket, "protocol: unmarshal error frame: %v", err)
	}
	return xerr.Server(int(e.Code), e.Msg, e.SQLState, e.Severity == xmessage.ErrorSeverityFatal)
}

// ExecuteClose sends CON_CLOSE and waits for the server's OK.
func (p *Protocol) ExecuteClose() *xerr.Error {
	if err := p.Send(wire.ClientConClose, &xmessage.CapabilitiesGet{}); err != nil {
		return err
	}
	return p.RecvOk()
}

// FetchCapabilities round-trips CON_CAPABILITIES_GET and returns the
// server's advertised capability map.
func (p *Protocol) FetchCapabilities() (*capability.Map, *xerr.Error) {
	if err := p.Send(wire.ClientConCapabilitiesGet, &xmessage.CapabilitiesGet{}); err != nil {
		return nil, err
	}
	mid, payload, err := p.RecvFrame()
	if err != nil {
		return nil, err
	}
	if mid == wire.ServerError {
		return nil, decodeServerError(payload)
	}
	if mid != wire.ServerConnCapabilities {
		return nil, xerr.Newf(xerr.MalformedPacket, "protocol: unexpected message %s, wanted CONN_CAPABILITIES", mid)
	}
	caps := &xmessage.Capabilities{}
	if err := caps.Unmarshal(payload); err != nil {
		return nil, xerr.Newf(xerr.MalformedPacket, "protocol: unmarshal capabilities: %v", err)
	}
	return capability.NewMap(caps), nil
}

// SetCapability sends CON_CAPABILITIES_SET and waits for the server's
// OK (or, for capabilities like "tls" that take effect immediately,
// lets the caller upgrade the transport right after this returns).
func (p *Protocol) SetCapability(set *xmessage.CapabilitiesSet) *xerr.Error {
	if err := p.Send(wire.ClientConCapabilitiesSet, set); err != nil {
		return err
	}
	return p.RecvOk()
}
