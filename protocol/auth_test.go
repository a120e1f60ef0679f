package protocol

import (
	"crypto/sha1"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/gomysqlx/client/xerr"
)

func TestSha1ScrambleMySQL41EmptyPasswordIsEmptyResponse(t *testing.T) {
	t.Parallel()

	if got := sha1ScrambleMySQL41([]byte("nonce"), ""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestSha1ScrambleMySQL41IsDeterministicAndFormatted(t *testing.T) {
	t.Parallel()

	nonce := []byte("0123456789012345678901234567890123456789")
	got := sha1ScrambleMySQL41(nonce, "secret")
	got2 := sha1ScrambleMySQL41(nonce, "secret")
	if got != got2 {
		t.Error("scramble should be deterministic for the same nonce/password")
	}
	if !strings.HasPrefix(got, "*") {
		t.Errorf("got %q, want leading '*'", got)
	}
	// SHA1 digest is 20 bytes -> 40 hex chars, plus the leading '*'.
	if len(got) != 41 {
		t.Errorf("len(got) = %d, want 41", len(got))
	}
	if got != strings.ToUpper(got) {
		t.Errorf("got %q, want all-uppercase hex", got)
	}
}

func TestSha1ScrambleMySQL41ManualDerivation(t *testing.T) {
	t.Parallel()

	nonce := []byte("abcdefghijklmnopqrstuvwxyz01234567890123")
	pass := "hunter2"

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
	want := "*" + strings.ToUpper(hexEncode(xored))

	if got := sha1ScrambleMySQL41(nonce, pass); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSha256ScrambleMemoryEmptyPasswordIsEmptyResponse(t *testing.T) {
	t.Parallel()

	if got := sha256ScrambleMemory([]byte("nonce"), ""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestSha256ScrambleMemoryIsDeterministicAndFormatted(t *testing.T) {
	t.Parallel()

	nonce := []byte("0123456789012345678901234567890123456789")
	got := sha256ScrambleMemory(nonce, "secret")
	got2 := sha256ScrambleMemory(nonce, "secret")
	if got != got2 {
		t.Error("scramble should be deterministic for the same nonce/password")
	}
	// SHA256 digest is 32 bytes -> 64 hex chars, plus the leading '*'.
	if len(got) != 65 {
		t.Errorf("len(got) = %d, want 65", len(got))
	}
}

func TestSha256ScrambleMemoryManualDerivation(t *testing.T) {
	t.Parallel()

	nonce := []byte("abcdefghijklmnopqrstuvwxyz01234567890123")
	pass := "hunter2"

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
	want := "*" + strings.ToUpper(hexEncode(xored))

	if got := sha256ScrambleMemory(nonce, pass); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScramblesDifferForDifferentNonces(t *testing.T) {
	t.Parallel()

	a := sha1ScrambleMySQL41([]byte("nonceAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"), "secret")
	b := sha1ScrambleMySQL41([]byte("nonceBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"), "secret")
	if a == b {
		t.Error("different nonces should produce different scrambles")
	}
}

func TestIsUnsupportedMechanism(t *testing.T) {
	t.Parallel()

	if isUnsupportedMechanism(nil) {
		t.Error("nil should not be an unsupported-mechanism error")
	}
	if !isUnsupportedMechanism(xerr.New(1, "Unknown authentication method 'XYZ'")) {
		t.Error("expected 'unknown authentication method' to be recognized")
	}
	if !isUnsupportedMechanism(xerr.New(1, "Invalid authentication method")) {
		t.Error("expected 'invalid authentication method' to be recognized")
	}
	if isUnsupportedMechanism(xerr.New(1045, "Access denied for user")) {
		t.Error("access-denied should not be classified as an unsupported-mechanism error")
	}
}

func TestAuthenticateWithUnsupportedMethod(t *testing.T) {
	t.Parallel()

	p := &Protocol{}
	if err := p.authenticateWith("u", "p", "s", "BOGUS"); err == nil {
		t.Error("expected error for an unrecognized auth method")
	}
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0x0f]
	}
	return string(out)
}
