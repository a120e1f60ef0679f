// Package xcontext implements the Context: per-session configuration
// shared by the Session Facade and the Protocol Engine, plus the
// validated option surface Session.SetOption dispatches through.
// Grounded on xcl::Context and the plugin/x/client/validator/*.h family,
// collapsed from a C++ validator-object hierarchy into one typed
// dispatch table, the idiomatic Go shape for this kind of option bag.
package xcontext

import (
	"strings"
	"time"

	"github.com/gomysqlx/client/capability"
	"github.com/gomysqlx/client/compress"
	"github.com/gomysqlx/client/netconn"
	"github.com/gomysqlx/client/xerr"
)

// TLSMode mirrors the SSL mode enum: how strongly TLS is required and
// how far certificate verification goes.
type TLSMode int

const (
	TLSDisabled TLSMode = iota
	TLSPreferred
	TLSRequired
	TLSVerifyCA
	TLSVerifyIdentity
)

// FIPSMode mirrors the FIPS mode enum governing which TLS provider
// configuration is requested.
type FIPSMode int

const (
	FIPSOff FIPSMode = iota
	FIPSOn
	FIPSStrict
)

// AuthMethod names an authentication mechanism or one of the
// auto-selection sentinels expanded by the session's auth sequencer.
type AuthMethod string

const (
	AuthMethodPlain        AuthMethod = "PLAIN"
	AuthMethodMySQL41      AuthMethod = "MYSQL41"
	AuthMethodSHA256Memory AuthMethod = "SHA256_MEMORY"
	AuthMethodAuto         AuthMethod = "AUTO"
	AuthMethodFromCaps     AuthMethod = "FROM_CAPABILITIES"
	AuthMethodFallback     AuthMethod = "FALLBACK"
)

// TLSConfig groups every TLS-related option.
type TLSConfig struct {
	Mode     TLSMode
	FIPSMode FIPSMode
	Key      string
	Cert     string
	CA       string
	CAPath   string
	CRL      string
	CRLPath  string
	Cipher   string
	Versions []string
}

// CompressionConfig groups the client's compression preferences, fed
// into a capability.Negotiator once the server's capabilities are known.
type CompressionConfig struct {
	Mode         capability.Negotiation
	Algorithms   []compress.Algorithm
	ClientStyles []compress.Style
	ServerStyles []compress.Style
}

// ClientIDNotValid is the sentinel Context.ClientID holds before the
// server assigns a real one via a CLIENT_ID_ASSIGNED notice.
const ClientIDNotValid uint64 = 0

// Context is the per-session configuration object, shared by the
// Session Facade and the Protocol Engine for the lifetime of a
// connection. Every field is mutated only before Connect; after that,
// only ClientID (set by the built-in CLIENT_ID_ASSIGNED notice
// handler) and GlobalError remain writable.
type Context struct {
	TLS TLSConfig

	ConnectTimeout        time.Duration
	SessionConnectTimeout time.Duration
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	ReceiveBufferSize     int
	NetworkNamespace      string

	Compression CompressionConfig

	AuthMethods []AuthMethod

	IPMode netconn.IPMode

	DatetimeLengthDiscriminator uint32
	ConsumeAllNotices           bool

	ClientID    uint64
	GlobalError *xerr.Error

	connected bool
}

// New returns a Context with the same defaults xcl::Context ships:
// notices fully consumed, a 10-byte DATETIME-with-no-time-part
// discriminator, and the FALLBACK auth sequence.
func New() *Context {
	return &Context{
		ConsumeAllNotices:           true,
		DatetimeLengthDiscriminator: 10,
		AuthMethods:                 []AuthMethod{AuthMethodFallback},
		Compression:                 CompressionConfig{Mode: capability.NegotiationPreferred},
	}
}

// MarkConnected forbids any further option mutation; called once by
// the session's connect sequence (Session.ConnectTCP/ConnectUnix) after
// authentication succeeds.
func (c *Context) MarkConnected() { c.connected = true }

// Connected reports whether MarkConnected has been called.
func (c *Context) Connected() bool { return c.connected }

// SetOption validates and stores one named option, matching the
// option namespace of spec.md §4.6/§6: scalar options take their
// native Go type, enum options take a string (case-insensitive),
// array-of-enum options take a string or []string.
func (c *Context) SetOption(name string, value any) *xerr.Error {
	if c.connected {
		return xerr.New(xerr.AlreadyConnected, "xcontext: options cannot change after connect")
	}
	switch name {
	case "tls_mode":
		return c.setTLSMode(value)
	case "tls_fips_mode":
		return c.setFIPSMode(value)
	case "tls_key":
		return setString(&c.TLS.Key, value)
	case "tls_cert":
		return setString(&c.TLS.Cert, value)
	case "tls_ca":
		return setString(&c.TLS.CA, value)
	case "tls_ca_path":
		return setString(&c.TLS.CAPath, value)
	case "tls_crl":
		return setString(&c.TLS.CRL, value)
	case "tls_crl_path":
		return setString(&c.TLS.CRLPath, value)
	case "tls_cipher":
		return setString(&c.TLS.Cipher, value)
	case "tls_versions":
		versions, err := stringList(value)
		if err != nil {
			return err
		}
		c.TLS.Versions = versions
		return nil
	case "connect_timeout":
		return setDuration(&c.ConnectTimeout, value)
	case "session_connect_timeout":
		return setDuration(&c.SessionConnectTimeout, value)
	case "read_timeout":
		return setDuration(&c.ReadTimeout, value)
	case "write_timeout":
		return setDuration(&c.WriteTimeout, value)
	case "receive_buffer_size":
		return setInt(&c.ReceiveBufferSize, value)
	case "network_namespace":
		return setString(&c.NetworkNamespace, value)
	case "compression_mode":
		return c.setCompressionMode(value)
	case "compression_algorithms":
		return c.setCompressionAlgorithms(value)
	case "compression_client_styles":
		return c.setCompressionStyles(&c.Compression.ClientStyles, value)
	case "compression_server_styles":
		return c.setCompressionStyles(&c.Compression.ServerStyles, value)
	case "authentication_method":
		return c.setAuthMethods(value)
	case "ip_mode":
		return c.setIPMode(value)
	case "consume_all_notices":
		return setBool(&c.ConsumeAllNotices, value)
	case "datetime_length_discriminator":
		var v int
		if err := setInt(&v, value); err != nil {
			return err
		}
		c.DatetimeLengthDiscriminator = uint32(v)
		return nil
	default:
		return xerr.Newf(xerr.UnsupportedOption, "xcontext: unsupported option %q", name)
	}
}

func setString(dst *string, value any) *xerr.Error {
	s, ok := value.(string)
	if !ok {
		return xerr.New(xerr.UnsupportedOptionValue, "xcontext: expected string value")
	}
	*dst = s
	return nil
}

func setBool(dst *bool, value any) *xerr.Error {
	b, ok := value.(bool)
	if !ok {
		return xerr.New(xerr.UnsupportedOptionValue, "xcontext: expected bool value")
	}
	*dst = b
	return nil
}

func setInt(dst *int, value any) *xerr.Error {
	switch v := value.(type) {
	case int:
		*dst = v
		return nil
	case int64:
		*dst = int(v)
		return nil
	}
	return xerr.New(xerr.UnsupportedOptionValue, "xcontext: expected integer value")
}

func setDuration(dst *time.Duration, value any) *xerr.Error {
	switch v := value.(type) {
	case time.Duration:
		*dst = v
		return nil
	case int:
		*dst = time.Duration(v) * time.Second
		return nil
	}
	return xerr.New(xerr.UnsupportedOptionValue, "xcontext: expected duration value")
}

func stringList(value any) ([]string, *xerr.Error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return append([]string(nil), v...), nil
	}
	return nil, xerr.New(xerr.UnsupportedOptionValue, "xcontext: expected string or []string")
}

func (c *Context) setTLSMode(value any) *xerr.Error {
	s, ok := value.(string)
	if !ok {
		return xerr.New(xerr.UnsupportedOptionValue, "xcontext: tls_mode expects a string")
	}
	switch strings.ToUpper(s) {
	case "DISABLED":
		c.TLS.Mode = TLSDisabled
	case "PREFERRED":
		c.TLS.Mode = TLSPreferred
	case "REQUIRED":
		c.TLS.Mode = TLSRequired
	case "VERIFY_CA":
		c.TLS.Mode = TLSVerifyCA
	case "VERIFY_IDENTITY":
		c.TLS.Mode = TLSVerifyIdentity
	default:
		return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown tls_mode %q", s)
	}
	return nil
}

func (c *Context) setFIPSMode(value any) *xerr.Error {
	s, ok := value.(string)
	if !ok {
		return xerr.New(xerr.UnsupportedOptionValue, "xcontext: tls_fips_mode expects a string")
	}
	switch strings.ToUpper(s) {
	case "OFF":
		c.TLS.FIPSMode = FIPSOff
	case "ON":
		c.TLS.FIPSMode = FIPSOn
	case "STRICT":
		c.TLS.FIPSMode = FIPSStrict
	default:
		return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown tls_fips_mode %q", s)
	}
	return nil
}

func (c *Context) setCompressionMode(value any) *xerr.Error {
	s, ok := value.(string)
	if !ok {
		return xerr.New(xerr.UnsupportedOptionValue, "xcontext: compression_mode expects a string")
	}
	switch strings.ToUpper(s) {
	case "DISABLED":
		c.Compression.Mode = capability.NegotiationDisabled
	case "PREFERRED":
		c.Compression.Mode = capability.NegotiationPreferred
	case "REQUIRED":
		c.Compression.Mode = capability.NegotiationRequired
	default:
		return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown compression_mode %q", s)
	}
	return nil
}

func (c *Context) setCompressionAlgorithms(value any) *xerr.Error {
	names, err := stringList(value)
	if err != nil {
		return err
	}
	var algos []compress.Algorithm
	for _, n := range names {
		switch strings.ToUpper(n) {
		case "DEFLATE":
			algos = append(algos, compress.Deflate)
		case "LZ4":
			algos = append(algos, compress.LZ4)
		default:
			return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown compression algorithm %q", n)
		}
	}
	c.Compression.Algorithms = algos
	return nil
}

func (c *Context) setCompressionStyles(dst *[]compress.Style, value any) *xerr.Error {
	names, err := stringList(value)
	if err != nil {
		return err
	}
	var styles []compress.Style
	for _, n := range names {
		switch strings.ToUpper(n) {
		case "SINGLE":
			styles = append(styles, compress.StyleSingle)
		case "MULTIPLE":
			styles = append(styles, compress.StyleMultiple)
		case "GROUP":
			styles = append(styles, compress.StyleGroup)
		default:
			return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown compression style %q", n)
		}
	}
	*dst = styles
	return nil
}

// setAuthMethods accepts either a single scalar-only sentinel (AUTO,
// FROM_CAPABILITIES, FALLBACK) or a list of concrete method names; the
// scalar-only sentinels may not appear inside a list, matching the
// array-of-enum validator's restriction.
func (c *Context) setAuthMethods(value any) *xerr.Error {
	switch v := value.(type) {
	case string:
		m := AuthMethod(strings.ToUpper(v))
		if !validAuthMethod(m) {
			return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown authentication_method %q", v)
		}
		c.AuthMethods = []AuthMethod{m}
		return nil
	case []string:
		var methods []AuthMethod
		for _, s := range v {
			m := AuthMethod(strings.ToUpper(s))
			if !validAuthMethod(m) {
				return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown authentication_method %q", s)
			}
			if m == AuthMethodAuto || m == AuthMethodFromCaps || m == AuthMethodFallback {
				return xerr.Newf(xerr.UnsupportedOptionValue,
					"xcontext: %q is scalar-only and cannot appear in an authentication_method list", s)
			}
			methods = append(methods, m)
		}
		c.AuthMethods = methods
		return nil
	}
	return xerr.New(xerr.UnsupportedOptionValue, "xcontext: expected string or []string")
}

func validAuthMethod(m AuthMethod) bool {
	switch m {
	case AuthMethodPlain, AuthMethodMySQL41, AuthMethodSHA256Memory,
		AuthMethodAuto, AuthMethodFromCaps, AuthMethodFallback:
		return true
	}
	return false
}

func (c *Context) setIPMode(value any) *xerr.Error {
	s, ok := value.(string)
	if !ok {
		return xerr.New(xerr.UnsupportedOptionValue, "xcontext: ip_mode expects a string")
	}
	switch strings.ToUpper(s) {
	case "ANY":
		c.IPMode = netconn.IPAny
	case "V4", "IPV4":
		c.IPMode = netconn.IPv4
	case "V6", "IPV6":
		c.IPMode = netconn.IPv6
	default:
		return xerr.Newf(xerr.UnsupportedOptionValue, "xcontext: unknown ip_mode %q", s)
	}
	return nil
}
