package xmessage

import "testing"

func TestOkMarshalsEmptyWhenMsgIsEmpty(t *testing.T) {
	t.Parallel()

	o := &Ok{}
	b, err := o.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(b) != 0 {
		t.Errorf("Marshal of an empty Ok = %v, want zero bytes", b)
	}
}

func TestOkRoundTripsMessage(t *testing.T) {
	t.Parallel()

	o := &Ok{Msg: "session reset"}
	b, err := o.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Ok
	if err := got.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Msg != "session reset" {
		t.Errorf("Msg = %q, want %q", got.Msg, "session reset")
	}
}

func TestErrorMarshalOmitsZeroSeverityAndEmptySQLState(t *testing.T) {
	t.Parallel()

	e := &Error{Code: 1045, Msg: "Access denied"}
	b, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Error
	if err := got.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.SQLState != "" {
		t.Errorf("SQLState = %q, want empty", got.SQLState)
	}
	if got.Severity != ErrorSeverityError {
		t.Errorf("Severity = %d, want ErrorSeverityError (0)", got.Severity)
	}
}

func TestErrorRoundTripsFatalSeverityAndSQLState(t *testing.T) {
	t.Parallel()

	e := &Error{Code: 2006, Msg: "server gone", SQLState: "HY000", Severity: ErrorSeverityFatal}
	b, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Error
	if err := got.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Code != 2006 || got.Msg != "server gone" || got.SQLState != "HY000" || got.Severity != ErrorSeverityFatal {
		t.Errorf("got = %+v", got)
	}
}
