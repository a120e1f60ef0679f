package protocol

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gomysqlx/client/wire"
	"github.com/gomysqlx/client/xerr"
	"github.com/gomysqlx/client/xmessage"
)

// Authentication mechanism names, matching the strings exchanged in
// SESS_AUTHENTICATE_START.mech_name.
const (
	AuthPlain        = "PLAIN"
	AuthMySQL41      = "MYSQL41"
	AuthSHA256Memory = "SHA256_MEMORY"
)

// Authenticate drives SESS_AUTHENTICATE_START/CONTINUE/OK to completion
// for one of the three mechanisms the server advertises. method == ""
// tries, in order, SHA256_MEMORY then MYSQL41 then PLAIN, falling back
// to the next one whenever the server rejects the mechanism itself
// (as opposed to rejecting the credentials), mirroring
// execute_authenticate's auto-negotiation.
func (p *Protocol) Authenticate(user, pass, schema, method string) *xerr.Error {
	if method != "" {
		return p.authenticateWith(user, pass, schema, method)
	}
	var lastErr *xerr.Error
	for _, m := range []string{AuthSHA256Memory, AuthMySQL41, AuthPlain} {
		err := p.authenticateWith(user, pass, schema, m)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isUnsupportedMechanism(err) {
			return err
		}
	}
	return lastErr
}

func isUnsupportedMechanism(err *xerr.Error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Message), "unknown authentication method") ||
		strings.Contains(strings.ToLower(err.Message), "invalid authentication method")
}

func (p *Protocol) authenticateWith(user, pass, schema, method string) *xerr.Error {
	switch method {
	case AuthPlain:
		return p.authenticatePlain(user, pass, schema)
	case AuthMySQL41:
		return p.authenticateChallengeResponse(user, pass, schema, method, sha1ScrambleMySQL41)
	case AuthSHA256Memory:
		return p.authenticateChallengeResponse(user, pass, schema, method, sha256ScrambleMemory)
	default:
		return xerr.Newf(xerr.InvalidAuthMethod, "protocol: unsupported auth method %q", method)
	}
}

func (p *Protocol) authenticatePlain(user, pass, schema string) *xerr.Error {
	initial := []byte(schema + "\x00" + user + "\x00" + pass)
	if err := p.Send(wire.ClientSessAuthenticateStart, &xmessage.AuthenticateStart{
		MechName:        AuthPlain,
		InitialResponse: initial,
	}); err != nil {
		return err
	}
	return p.finishAuthenticate()
}

// scrambler computes the second round's auth_data from the server's
// nonce and the plaintext credentials.
type scrambler func(nonce []byte, pass string) string

func (p *Protocol) authenticateChallengeResponse(user, pass, schema, method string, scramble scrambler) *xerr.Error {
	if err := p.Send(wire.ClientSessAuthenticateStart, &xmessage.AuthenticateStart{MechName: method}); err != nil {
		return err
	}
	mid, payload, err := p.RecvFrame()
	if err != nil {
		return err
	}
	if mid == wire.ServerError {
		return decodeServerError(payload)
	}
	if mid != wire.ServerSessAuthenticateContinue {
		return xerr.Newf(xerr.MalformedPacket, "protocol: unexpected message %s during authentication", mid)
	}
	cont := &xmessage.AuthenticateContinue{}
	if uerr := cont.Unmarshal(payload); uerr != nil {
		return xerr.Newf(xerr.MalformedPacket, "protocol: unmarshal auth continue: %v", uerr)
	}

	reply := schema + "\x00" + user + "\x00" + scramble(cont.AuthData, pass)
	if err := p.Send(wire.ClientSessAuthenticateContinue, &xmessage.AuthenticateContinue{AuthData: []byte(reply)}); err != nil {
		return err
	}
	return p.finishAuthenticate()
}

func (p *Protocol) finishAuthenticate() *xerr.Error {
	mid, payload, err := p.RecvFrame()
	if err != nil {
		return err
	}
	switch mid {
	case wire.ServerSessAuthenticateOk:
		ok := &xmessage.AuthenticateOk{}
		if uerr := ok.Unmarshal(payload); uerr != nil {
			return xerr.Newf(xerr.MalformedPacket, "protocol: unmarshal auth ok: %v", uerr)
		}
		return nil
	case wire.ServerError:
		return decodeServerError(payload)
	default:
		return xerr.Newf(xerr.MalformedPacket, "protocol: unexpected message %s, wanted authentication OK", mid)
	}
}

// sha1ScrambleMySQL41 computes the classic mysql_native_password-style
// response: SHA1(pass) XOR SHA1(nonce + SHA1(SHA1(pass))), hex-encoded
// with a leading '*' the same way SHOW GRANTS prints a password hash.
func sha1ScrambleMySQL41(nonce []byte, pass string) string {
	if pass == "" {
		return ""
	}
	stage1 := sha1.Sum([]byte(pass))
	stage2 := sha1.Sum(stage1[:])
	h := sha1.New()
	h.Write(nonce)
	h.Write(stage2[:])
	scrambleHash := h.Sum(nil)

	xored := make([]byte, len(stage1))
	for i := range xored {
		xored[i] = stage1[i] ^ scrambleHash[i]
	}
	return "*" + strings.ToUpper(hex.EncodeToString(xored))
}

// sha256ScrambleMemory computes the SHA256_MEMORY fast-auth response:
// SHA256(pass) XOR SHA256(SHA256(SHA256(pass)) + nonce), the caching
// variant of the MYSQL41 scheme used when the server holds a cached
// SHA256 hash for the account.
func sha256ScrambleMemory(nonce []byte, pass string) string {
	if pass == "" {
		return ""
	}
	stage1 := sha256.Sum256([]byte(pass))
	stage2 := sha256.Sum256(stage1[:])
	h := sha256.New()
	h.Write(stage2[:])
	h.Write(nonce)
	scrambleHash := h.Sum(nil)

	xored := make([]byte, len(stage1))
	for i := range xored {
		xored[i] = stage1[i] ^ scrambleHash[i]
	}
	return "*" + strings.ToUpper(hex.EncodeToString(xored))
}
