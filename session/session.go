// Package session implements the Session Facade: the connect sequence
// (capability advertisement, TLS upgrade, compression negotiation,
// authentication), statement execution, reset, and close, owning one
// Protocol Engine and Context for their shared lifetime. Grounded on
// xcl::Session_impl.
package session

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gomysqlx/client/argument"
	"github.com/gomysqlx/client/capability"
	"github.com/gomysqlx/client/netconn"
	"github.com/gomysqlx/client/protocol"
	"github.com/gomysqlx/client/resultset"
	"github.com/gomysqlx/client/wire"
	"github.com/gomysqlx/client/xcontext"
	"github.com/gomysqlx/client/xerr"
	"github.com/gomysqlx/client/xmessage"
)

const (
	clientName    = "gomysqlx"
	clientVersion = "1.0.0"
	clientLicense = "GPL-2.0"
)

// Session owns one connection's protocol engine and shared Context for
// its whole lifetime.
type Session struct {
	ctx      *xcontext.Context
	p        *protocol.Protocol
	required *capability.Builder
	optional []namedCapability

	connectAttrsEnabled bool
	traceID             string

	serverSupportedAuth []string

	clientIDHandler protocol.HandlerID
	consumeHandler  protocol.HandlerID
}

type namedCapability struct {
	name  string
	value argument.Value
}

// New returns an unconnected Session with default options.
func New() *Session {
	return &Session{
		ctx:      xcontext.New(),
		required: capability.NewBuilder(),
		traceID:  uuid.New().String(),
	}
}

// SetOption validates and stores a pre-connect option, forwarding to
// the underlying Context.
func (s *Session) SetOption(name string, value any) *xerr.Error {
	return s.ctx.SetOption(name, value)
}

// SetCapability records a capability to request at connect time.
// required capabilities abort the connect on any failure; optional
// ones are requested individually and tolerated if the server rejects
// them (unless the rejection is fatal or client-local).
func (s *Session) SetCapability(name string, value argument.Value, required bool) *xerr.Error {
	if s.ctx.Connected() {
		return xerr.New(xerr.AlreadyConnected, "session: capabilities cannot change after connect")
	}
	if name == "session_connect_attrs" {
		s.connectAttrsEnabled = true
	}
	if required {
		s.required.Add(name, value)
		return nil
	}
	s.optional = append(s.optional, namedCapability{name: name, value: value})
	return nil
}

// ClientID returns the id the server assigned this connection, or
// xcontext.ClientIDNotValid before CLIENT_ID_ASSIGNED arrives.
func (s *Session) ClientID() uint64 { return s.ctx.ClientID }

// GetConnectAttrs returns the static connect-attribute set, for use as
// the session_connect_attrs capability value. The session does not send
// it by itself: that capability carries whatever value was passed to
// SetCapability.
func (s *Session) GetConnectAttrs() []argument.Field {
	fields := []argument.Field{
		{Key: "_client_name", Value: argument.NewString(clientName)},
		{Key: "_client_version", Value: argument.NewString(clientVersion)},
		{Key: "_os", Value: argument.NewString(runtime.GOOS)},
		{Key: "_platform", Value: argument.NewString(runtime.GOARCH)},
		{Key: "_client_license", Value: argument.NewString(clientLicense)},
		{Key: "_pid", Value: argument.NewString(strconv.Itoa(os.Getpid()))},
	}
	if tid := goroutineHint(); tid != "" {
		fields = append(fields, argument.Field{Key: "_thread", Value: argument.NewString(tid)})
	}
	if s.connectAttrsEnabled {
		fields = append(fields, argument.Field{Key: "_client_trace_id", Value: argument.NewString(s.traceID)})
	}
	return fields
}

// goroutineHint is the closest Go analogue to the original's OS
// thread-id connect attribute: there's no portable thread id in Go,
// so this reports the process's own pid again: a best-effort stand-in
// that still lets server-side correlation dashboards key off the field.
func goroutineHint() string { return strconv.Itoa(os.Getpid()) }

// ConnectTCP dials host:port over TCP and runs the full connect
// sequence (capabilities, optional TLS, compression negotiation,
// authentication).
func (s *Session) ConnectTCP(ctx context.Context, host string, port int, user, pass, schema string) *xerr.Error {
	conn, err := netconn.DialTCP(ctx, host, port, s.ctx.IPMode)
	if err != nil {
		return err.(*xerr.Error)
	}
	return s.connect(ctx, conn, user, pass, schema, false)
}

// ConnectUnix dials a Unix-domain socket and runs the full connect
// sequence. Unix sockets count as an inherently secure channel for
// authentication method selection, matching the original's
// `secure = tls_active || unix_socket` rule.
func (s *Session) ConnectUnix(ctx context.Context, path string, user, pass, schema string) *xerr.Error {
	conn, err := netconn.DialUnix(ctx, path)
	if err != nil {
		return err.(*xerr.Error)
	}
	return s.connect(ctx, conn, user, pass, schema, true)
}

func (s *Session) connect(ctx context.Context, conn *netconn.Connection, user, pass, schema string, unixSocket bool) *xerr.Error {
	s.p = protocol.New(conn)
	s.installBuiltinHandlers()

	if s.ctx.SessionConnectTimeout > 0 {
		deadline := time.Now().Add(s.ctx.SessionConnectTimeout)
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
		defer func() {
			_ = conn.SetReadDeadline(time.Time{})
			_ = conn.SetWriteDeadline(time.Time{})
		}()
	}

	if err := s.p.SetCapability(s.required.Result()); err != nil {
		return s.fatal(err)
	}

	for _, oc := range s.optional {
		b := capability.NewBuilder().Add(oc.name, oc.value)
		if err := s.p.SetCapability(b.Result()); err != nil && xerr.IsFatal(err) {
			return s.fatal(err)
		}
	}

	tlsActive := false
	if s.ctx.TLS.Mode != xcontext.TLSDisabled {
		var terr *xerr.Error
		tlsActive, terr = s.negotiateTLS(ctx, conn, host(conn))
		if terr != nil {
			return s.fatal(terr)
		}
	}

	secure := tlsActive || unixSocket

	if s.ctx.Compression.Mode != capability.NegotiationDisabled || authMethodsWantCapabilities(s.ctx.AuthMethods) {
		caps, err := s.p.FetchCapabilities()
		if err != nil {
			return s.fatal(err)
		}
		if methods := caps.StringArray("authentication.mechanisms"); len(methods) > 0 {
			s.serverSupportedAuth = methods
		}
		if cerr := s.negotiateCompression(caps); cerr != nil {
			return s.fatal(cerr)
		}
	}

	if err := s.authenticate(user, pass, schema, secure); err != nil {
		return s.fatal(err)
	}

	s.ctx.MarkConnected()
	return nil
}

func host(conn *netconn.Connection) string {
	st := conn.State()
	addr := st.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

func authMethodsWantCapabilities(methods []xcontext.AuthMethod) bool {
	for _, m := range methods {
		if m == xcontext.AuthMethodFromCaps {
			return true
		}
	}
	return false
}

func (s *Session) fatal(err *xerr.Error) *xerr.Error {
	if xerr.IsFatal(err) {
		s.ctx.GlobalError = err
	}
	return err
}

func (s *Session) negotiateTLS(ctx context.Context, conn *netconn.Connection, hostname string) (bool, *xerr.Error) {
	cfg, err := tlsConfigFrom(s.ctx)
	if err != nil {
		return false, err
	}
	setErr := s.p.SetCapability(capability.NewBuilder().Add("tls", argument.NewBool(true)).Result())
	if setErr != nil {
		if s.ctx.TLS.Mode == xcontext.TLSPreferred {
			return false, nil
		}
		return false, setErr
	}
	if terr := conn.ActivateTLS(ctx, cfg); terr != nil {
		return false, xerr.Newf(xerr.SSLConnectionError, "session: TLS activation: %v", terr)
	}
	if s.ctx.TLS.Mode == xcontext.TLSVerifyIdentity {
		if verr := conn.VerifyHostname(hostname); verr != nil {
			return false, xerr.Newf(xerr.SSLConnectionError, "session: TLS identity verification: %v", verr)
		}
	}
	return true, nil
}

func (s *Session) negotiateCompression(caps *capability.Map) *xerr.Error {
	if s.ctx.Compression.Mode == capability.NegotiationDisabled {
		return nil
	}
	serverCompression := caps.Object("compression")
	if len(serverCompression) == 0 {
		if s.ctx.Compression.Mode == capability.NegotiationRequired {
			return xerr.New(xerr.RequiredCompressionNotSupported, "session: server does not advertise compression")
		}
		return nil
	}

	neg := capability.NewNegotiator(s.ctx.Compression.Mode)
	if len(s.ctx.Compression.Algorithms) > 0 {
		neg.Algorithms = s.ctx.Compression.Algorithms
	}
	if len(s.ctx.Compression.ClientStyles) > 0 {
		neg.ClientStyles = s.ctx.Compression.ClientStyles
	}
	if len(s.ctx.Compression.ServerStyles) > 0 {
		neg.ServerStyles = s.ctx.Compression.ServerStyles
	}

	fields, ok, err := neg.Resolve(serverCompression)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	b := capability.NewBuilder().Add("compression", argument.NewUnorderedObject(toArgumentFields(fields)))
	if serr := s.p.SetCapability(b.Result()); serr != nil {
		// Retry without a "level" field, matching the fallback the
		// facade performs when the server rejects the richer payload.
		stripped := stripLevel(fields)
		b = capability.NewBuilder().Add("compression", argument.NewUnorderedObject(toArgumentFields(stripped)))
		if serr2 := s.p.SetCapability(b.Result()); serr2 != nil {
			if s.ctx.Compression.Mode == capability.NegotiationRequired {
				return serr2
			}
			return nil
		}
	}
	s.p.EnableCompression(neg.ChosenAlgorithm(), neg.ChosenClientStyle())
	return nil
}

func toArgumentFields(fields []argument.Field) []argument.Field { return fields }

func stripLevel(fields []argument.Field) []argument.Field {
	out := make([]argument.Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == "level" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Reauthenticate sends Session.Reset and re-runs the authentication
// sequence over the same live connection.
func (s *Session) Reauthenticate(user, pass, schema string) *xerr.Error {
	if err := s.p.Send(wire.ClientSessReset, &xmessage.Ok{}); err != nil {
		return err
	}
	if err := s.p.RecvOk(); err != nil {
		return err
	}
	st := s.p.Connection().State()
	return s.authenticate(user, pass, schema, st.TLSActive)
}

// ExecuteSQL runs a plain SQL statement through the "sql" statement
// namespace.
func (s *Session) ExecuteSQL(sql string, args []argument.Value) (*resultset.Result, *xerr.Error) {
	return s.ExecuteStmt("sql", sql, args)
}

// ExecuteStmt sends STMT_EXECUTE in the given namespace ("sql" or
// "mysqlx", or a plugin-defined one) and returns a Result positioned
// at the start of its response.
func (s *Session) ExecuteStmt(namespace, sql string, args []argument.Value) (*resultset.Result, *xerr.Error) {
	anys := make([]*xmessage.Any, len(args))
	for i, a := range args {
		anys[i] = argument.ToAny(a)
	}
	msg := &xmessage.StmtExecute{Namespace: namespace, Stmt: []byte(sql), Args: anys}
	if err := s.p.Send(wire.ClientSQLStmtExecute, msg); err != nil {
		return nil, err
	}
	return resultset.New(s.p), nil
}

// Close sends Session.Close, then Con.Close, and drops the protocol
// object. GetConnectAttrs remains usable afterward.
func (s *Session) Close() *xerr.Error {
	if s.p == nil {
		return nil
	}
	if err := s.p.Send(wire.ClientSessClose, &xmessage.Ok{}); err != nil {
		s.p = nil
		return err
	}
	if err := s.p.RecvOk(); err != nil {
		s.p = nil
		return err
	}
	err := s.p.ExecuteClose()
	s.p = nil
	return err
}
