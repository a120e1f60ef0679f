package session

import (
	"github.com/gomysqlx/client/protocol"
	"github.com/gomysqlx/client/xcontext"
	"github.com/gomysqlx/client/xerr"
)

// defaultServerMethods mirrors Session_impl::m_server_supported_auth_methods:
// the set assumed available when capability negotiation didn't fetch an
// explicit authentication.mechanisms list.
var defaultServerMethods = []string{protocol.AuthMySQL41, protocol.AuthPlain, protocol.AuthSHA256Memory}

// expandAuthMethods turns the configured method list (which may contain
// at most one of the three auto-selection sentinels, or a concrete
// sequence) into a concrete, ordered candidate list, then intersects it
// with what the server actually advertises, preserving client order.
func expandAuthMethods(configured []xcontext.AuthMethod, secure bool, serverMethods []string) []string {
	var candidates []string
	if len(configured) == 1 {
		switch configured[0] {
		case xcontext.AuthMethodFallback:
			if secure {
				candidates = []string{protocol.AuthPlain, protocol.AuthSHA256Memory}
			} else {
				candidates = []string{protocol.AuthMySQL41, protocol.AuthSHA256Memory}
			}
		case xcontext.AuthMethodAuto, xcontext.AuthMethodFromCaps:
			candidates = []string{protocol.AuthSHA256Memory}
			if secure {
				candidates = append(candidates, protocol.AuthPlain)
			}
			candidates = append(candidates, protocol.AuthMySQL41)
		default:
			candidates = []string{string(configured[0])}
		}
	} else {
		for _, m := range configured {
			candidates = append(candidates, string(m))
		}
	}

	if serverMethods == nil {
		serverMethods = defaultServerMethods
	}
	var out []string
	for i, m := range candidates {
		if !containsMethod(serverMethods, m) {
			continue
		}
		// PLAIN is skipped over an insecure channel unless it is the
		// last remaining candidate, in which case trying it (and
		// getting an authentication error back) is preferable to
		// refusing to attempt authentication at all.
		if m == protocol.AuthPlain && !secure && i != len(candidates)-1 {
			continue
		}
		out = append(out, m)
	}
	return out
}

func containsMethod(methods []string, m string) bool {
	for _, x := range methods {
		if x == m {
			return true
		}
	}
	return false
}

// errorPriority ranks candidate outcomes so the most informative error
// survives to be reported: "Access denied" outranks any other error,
// which outranks no error (a credential mismatch is more useful
// feedback than a mechanism-negotiation failure).
func errorPriority(err *xerr.Error) int {
	if err == nil {
		return 0
	}
	if isAccessDenied(err) {
		return 2
	}
	return 1
}

func isAccessDenied(err *xerr.Error) bool {
	return err != nil && err.Code == 1045 // ER_ACCESS_DENIED_ERROR
}

// authenticate runs the full method-selection-with-tie-break sequence:
// try every surviving candidate in order, remembering the best (highest
// priority) error seen so a transient mechanism failure doesn't mask a
// later, more informative one; a fatal error still aborts immediately.
func (s *Session) authenticate(user, pass, schema string, secure bool) *xerr.Error {
	serverMethods := s.serverSupportedAuth
	candidates := expandAuthMethods(s.ctx.AuthMethods, secure, serverMethods)
	if len(candidates) == 0 {
		return xerr.New(xerr.InvalidAuthMethod, "session: no authentication method usable with this server/channel combination")
	}

	var best *xerr.Error
	for i, method := range candidates {
		err := s.p.Authenticate(user, pass, schema, method)
		if err == nil {
			return nil
		}
		if xerr.IsFatal(err) {
			return err
		}
		if method == protocol.AuthSHA256Memory && !secure && isAccessDenied(err) && i == len(candidates)-1 {
			err = xerr.New(xerr.InvalidAuthMethod, "session: SHA256_MEMORY requires a cached password hash or a secure channel")
		}
		if errorPriority(err) >= errorPriority(best) {
			best = err
		}
	}
	return best
}
