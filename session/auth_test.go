package session

import (
	"testing"

	"github.com/gomysqlx/client/protocol"
	"github.com/gomysqlx/client/xcontext"
	"github.com/gomysqlx/client/xerr"
)

func TestExpandAuthMethodsFallbackSecure(t *testing.T) {
	t.Parallel()

	got := expandAuthMethods([]xcontext.AuthMethod{xcontext.AuthMethodFallback}, true, nil)
	want := []string{protocol.AuthPlain, protocol.AuthSHA256Memory}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpandAuthMethodsFallbackInsecure(t *testing.T) {
	t.Parallel()

	got := expandAuthMethods([]xcontext.AuthMethod{xcontext.AuthMethodFallback}, false, nil)
	want := []string{protocol.AuthMySQL41, protocol.AuthSHA256Memory}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpandAuthMethodsAutoSecurePrefersSHA256ThenPlainThenMySQL41(t *testing.T) {
	t.Parallel()

	got := expandAuthMethods([]xcontext.AuthMethod{xcontext.AuthMethodAuto}, true, nil)
	want := []string{protocol.AuthSHA256Memory, protocol.AuthPlain, protocol.AuthMySQL41}
	if len(got) != len(want) {
		t.Fatalf("got %v, want len %d", got, len(want))
	}
	if got[0] != protocol.AuthSHA256Memory {
		t.Errorf("first candidate = %v, want SHA256_MEMORY", got[0])
	}
}

func TestExpandAuthMethodsConcreteList(t *testing.T) {
	t.Parallel()

	got := expandAuthMethods([]xcontext.AuthMethod{xcontext.AuthMethodMySQL41, xcontext.AuthMethodPlain}, true, nil)
	want := []string{protocol.AuthMySQL41, protocol.AuthPlain}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpandAuthMethodsFiltersAgainstServerMethods(t *testing.T) {
	t.Parallel()

	got := expandAuthMethods([]xcontext.AuthMethod{xcontext.AuthMethodFallback}, true, []string{protocol.AuthSHA256Memory})
	if len(got) != 1 || got[0] != protocol.AuthSHA256Memory {
		t.Errorf("got %v, want only SHA256_MEMORY (the only server-supported method)", got)
	}
}

func TestExpandAuthMethodsSkipsPlainOverInsecureChannelUnlessLast(t *testing.T) {
	t.Parallel()

	// PLAIN is not the last candidate here (SHA256_MEMORY follows it),
	// and the channel is insecure, so PLAIN is skipped.
	got := expandAuthMethods(
		[]xcontext.AuthMethod{xcontext.AuthMethodPlain, xcontext.AuthMethodSHA256Memory},
		false, nil,
	)
	for _, m := range got {
		if m == protocol.AuthPlain {
			t.Errorf("PLAIN should have been skipped over an insecure channel: got %v", got)
		}
	}
}

func TestExpandAuthMethodsKeepsPlainWhenItIsTheOnlyCandidate(t *testing.T) {
	t.Parallel()

	got := expandAuthMethods([]xcontext.AuthMethod{xcontext.AuthMethodPlain}, false, nil)
	if len(got) != 1 || got[0] != protocol.AuthPlain {
		t.Errorf("got %v, want [PLAIN] even though insecure, since it's the last/only candidate", got)
	}
}

func TestExpandAuthMethodsEmptyWhenNoneSupportedByServer(t *testing.T) {
	t.Parallel()

	got := expandAuthMethods([]xcontext.AuthMethod{xcontext.AuthMethodMySQL41}, true, []string{protocol.AuthSHA256Memory})
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestErrorPriorityRanksAccessDeniedHighest(t *testing.T) {
	t.Parallel()

	if errorPriority(nil) != 0 {
		t.Error("nil error should have lowest priority")
	}
	ordinary := xerr.New(xerr.InvalidAuthMethod, "bad method")
	if errorPriority(ordinary) != 1 {
		t.Error("ordinary error should rank 1")
	}
	denied := xerr.New(1045, "Access denied")
	if errorPriority(denied) != 2 {
		t.Error("access denied error should rank 2 (most informative)")
	}
}

func TestIsAccessDenied(t *testing.T) {
	t.Parallel()

	if isAccessDenied(nil) {
		t.Error("nil should not be access denied")
	}
	if !isAccessDenied(xerr.New(1045, "Access denied")) {
		t.Error("code 1045 should be access denied")
	}
	if isAccessDenied(xerr.New(1046, "other")) {
		t.Error("code 1046 should not be access denied")
	}
}
