// Package netconn implements the Byte Connection layer: dialing a
// plain TCP or Unix-domain socket to an X Protocol server, optionally
// upgrading it to TLS in place, and giving the layers above a single
// io.ReadWriteCloser with read/write deadlines and a small state
// snapshot, grounded on xcl::Connection_impl's contract.
package netconn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gomysqlx/client/xerr"
)

// Type identifies how the underlying socket was established.
type Type int

const (
	TypeUnknown Type = iota
	TypeTCP
	TypeUnixSocket
)

func (t Type) String() string {
	switch t {
	case TypeTCP:
		return "tcp"
	case TypeUnixSocket:
		return "unix"
	}
	return "unknown"
}

// IPMode picks which address families DNS resolution should prefer,
// mirroring xcl::Internet_protocol.
type IPMode int

const (
	IPAny IPMode = iota
	IPv4
	IPv6
)

// State is a point-in-time snapshot of the connection, returned by
// Connection.State for diagnostics and by the session layer's
// get_connect_attrs / status reporting.
type State struct {
	Connected   bool
	TLSActive   bool
	Type        Type
	LocalAddr   string
	RemoteAddr  string
	TLSVersion  uint16
	CipherSuite uint16
}

// Connection wraps a dialed socket, optionally upgraded to TLS. It is
// not safe for concurrent Read/Write from multiple goroutines, the
// same restriction xcl::Connection_impl carries from single-threaded
// libmysqlxclient use.
type Connection struct {
	conn      net.Conn
	typ       Type
	tlsActive bool
}

// DialTCP connects to host:port, preferring the address family named
// by mode when the host resolves to both.
func DialTCP(ctx context.Context, host string, port int, mode IPMode) (*Connection, error) {
	network := "tcp"
	switch mode {
	case IPv4:
		network = "tcp4"
	case IPv6:
		network = "tcp6"
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, network, net.JoinHostPort(host, portString(port)))
	if err != nil {
		return nil, xerr.Newf(xerr.ConnectionError, "netconn: dial %s:%d: %v", host, port, err)
	}
	return &Connection{conn: c, typ: TypeTCP}, nil
}

// DialUnix connects to a Unix-domain socket path.
func DialUnix(ctx context.Context, path string) (*Connection, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, xerr.Newf(xerr.ConnectionError, "netconn: dial unix %s: %v", path, err)
	}
	return &Connection{conn: c, typ: TypeUnixSocket}, nil
}

// Wrap adopts an already-established connection, for callers that
// obtained the socket by some means other than DialTCP/DialUnix (for
// instance, accepting a connection in a test harness).
func Wrap(conn net.Conn, typ Type) *Connection {
	return &Connection{conn: conn, typ: typ}
}

func portString(port int) string {
	return fmt.Sprintf("%d", port)
}

// ActivateTLS performs an in-place TLS client handshake over the
// already-connected socket (the X Protocol negotiates TLS after
// CON_CAPABILITIES_SET{tls: true}, never at dial time).
func (c *Connection) ActivateTLS(ctx context.Context, cfg *tls.Config) error {
	if c.tlsActive {
		return xerr.New(xerr.TLSWrongConfiguration, "netconn: TLS already active")
	}
	tc := tls.Client(c.conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		return xerr.Newf(xerr.SSLConnectionError, "netconn: TLS handshake: %v", err)
	}
	c.conn = tc
	c.tlsActive = true
	return nil
}

// Read implements io.Reader.
func (c *Connection) Read(p []byte) (int, error) {
	n, err := c.conn.Read(p)
	if err != nil {
		return n, translateIOErr(err)
	}
	return n, nil
}

// Write implements io.Writer.
func (c *Connection) Write(p []byte) (int, error) {
	n, err := c.conn.Write(p)
	if err != nil {
		return n, translateIOErr(err)
	}
	return n, nil
}

func translateIOErr(err error) error {
	if errors.Is(err, io.EOF) || IsClosed(err) {
		return xerr.New(xerr.ServerGone, "netconn: connection closed")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return xerr.New(xerr.ReadTimeout, "netconn: i/o timeout")
	}
	return fmt.Errorf("netconn: %w", err)
}

// IsClosed reports whether err indicates the peer or local side closed
// the connection, as opposed to a transient I/O failure.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "closed network connection")
}

// SetReadDeadline sets (or clears, with a zero time) the read deadline.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets (or clears, with a zero time) the write deadline.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Shutdown half-closes or fully closes the socket depending on how.
type ShutdownType int

const (
	ShutdownRead ShutdownType = iota
	ShutdownWrite
	ShutdownBoth
)

// Shutdown attempts a graceful half/full shutdown before Close, best
// effort -- not every net.Conn implementation (e.g. tls.Conn) exposes
// half-close, in which case this degrades to a full Close.
func (c *Connection) Shutdown(how ShutdownType) error {
	type closeWriter interface {
		CloseWrite() error
	}
	type closeReader interface {
		CloseRead() error
	}
	switch how {
	case ShutdownWrite:
		if cw, ok := c.conn.(closeWriter); ok {
			return cw.CloseWrite()
		}
	case ShutdownRead:
		if cr, ok := c.conn.(closeReader); ok {
			return cr.CloseRead()
		}
	}
	return c.Close()
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// State returns a snapshot of the connection's current condition.
func (c *Connection) State() State {
	s := State{
		Connected: true,
		TLSActive: c.tlsActive,
		Type:      c.typ,
	}
	if c.conn != nil {
		s.LocalAddr = c.conn.LocalAddr().String()
		s.RemoteAddr = c.conn.RemoteAddr().String()
	}
	if tc, ok := c.conn.(*tls.Conn); ok {
		cs := tc.ConnectionState()
		s.TLSVersion = cs.Version
		s.CipherSuite = cs.CipherSuite
	}
	return s
}

// VerifyHostname re-checks the negotiated TLS certificate against
// host, for callers using tls.Config.InsecureSkipVerify plus a custom
// verification step (e.g. a relaxed SSL mode that still wants identity
// checked only when the caller explicitly asks for it).
func (c *Connection) VerifyHostname(host string) error {
	tc, ok := c.conn.(*tls.Conn)
	if !ok {
		return xerr.New(xerr.TLSWrongConfiguration, "netconn: TLS not active")
	}
	cs := tc.ConnectionState()
	if len(cs.PeerCertificates) == 0 {
		return xerr.New(xerr.SSLConnectionError, "netconn: no peer certificate")
	}
	return cs.PeerCertificates[0].VerifyHostname(host)
}
