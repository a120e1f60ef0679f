package xmessage

import "google.golang.org/protobuf/encoding/protowire"

// Notice frame types (Mysqlx.Notice.Frame.Type).
const (
	NoticeWarning              uint32 = 1
	NoticeSessionVariableChanged uint32 = 2
	NoticeSessionStateChanged  uint32 = 3
	NoticeGroupReplicationStateChanged uint32 = 4
)

// Notice scope (Mysqlx.Notice.Frame.Scope).
const (
	NoticeScopeGlobal uint32 = 1
	NoticeScopeLocal  uint32 = 2
)

// Notice is SERVER_NOTICE: an out-of-band frame the server may inject
// at any point in the stream. Payload is the raw, still-encoded inner
// message selected by Type; callers decode it with Warning or
// SessionStateChanged once Type is known.
type Notice struct {
	Type    uint32
	Scope   uint32
	Payload []byte
}

func (n *Notice) Marshal() ([]byte, error) {
	var b []byte
	if n.Type != 0 {
		b = appendVarint(b, 1, uint64(n.Type))
	}
	if n.Scope != 0 {
		b = appendVarint(b, 2, uint64(n.Scope))
	}
	if n.Payload != nil {
		b = appendBytes(b, 3, n.Payload)
	}
	return b, nil
}

func (n *Notice) Unmarshal(data []byte) error {
	*n = Notice{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, c, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			n.Type = uint32(v)
			return c, nil
		case 2:
			v, c, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			n.Scope = uint32(v)
			return c, nil
		case 3:
			v, c, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			n.Payload = v
			return c, nil
		}
		return -1, nil
	})
}

// Warning levels (Mysqlx.Notice.Warning.Level).
const (
	WarningNote    uint32 = 1
	WarningWarning uint32 = 2
	WarningError   uint32 = 3
)

// Warning is the NOTICE payload for Type == NoticeWarning.
type Warning struct {
	Level uint32
	Code  uint32
	Msg   string
}

func (w *Warning) Marshal() ([]byte, error) {
	var b []byte
	if w.Level != 0 {
		b = appendVarint(b, 1, uint64(w.Level))
	}
	b = appendVarint(b, 2, uint64(w.Code))
	b = appendString(b, 3, w.Msg)
	return b, nil
}

func (w *Warning) Unmarshal(data []byte) error {
	*w = Warning{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			w.Level = uint32(v)
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			w.Code = uint32(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			w.Msg = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// SessionStateChanged is the NOTICE payload for Type ==
// NoticeSessionStateChanged (e.g. "rows_affected", "generated_insert_id",
// "current_schema", "client_id_assigned").
type SessionStateChanged struct {
	Param uint32
	Value *Scalar
}

// Session state parameter ids (Mysqlx.Notice.SessionStateChanged.Parameter).
const (
	StateCurrentSchema        uint32 = 1
	StateAccountExpired       uint32 = 2
	StateGeneratedInsertID    uint32 = 3
	StateRowsAffected         uint32 = 4
	StateRowsFound            uint32 = 5
	StateRowsMatched          uint32 = 6
	StateTrxEnded             uint32 = 7
	StateProducedMessage      uint32 = 8
	StateClientIDAssigned     uint32 = 9
	StateGeneratedDocumentIDs uint32 = 10
)

func (s *SessionStateChanged) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(s.Param))
	if s.Value != nil {
		var err error
		b, err = appendMessage(b, 2, s.Value)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *SessionStateChanged) Unmarshal(data []byte) error {
	*s = SessionStateChanged{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			s.Param = uint32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s.Value = &Scalar{}
			if err := s.Value.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// SessionVariableChanged is the NOTICE payload for Type ==
// NoticeSessionVariableChanged.
type SessionVariableChanged struct {
	Param string
	Value *Scalar
}

func (s *SessionVariableChanged) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, s.Param)
	if s.Value != nil {
		var err error
		b, err = appendMessage(b, 2, s.Value)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *SessionVariableChanged) Unmarshal(data []byte) error {
	*s = SessionVariableChanged{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s.Param = string(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s.Value = &Scalar{}
			if err := s.Value.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}
