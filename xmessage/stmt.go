package xmessage

import "google.golang.org/protobuf/encoding/protowire"

// StmtExecute is SQL_STMT_EXECUTE: run an opaque statement text
// (typically SQL, but the namespace field lets it double as a generic
// admin-command channel) with positional placeholder arguments.
type StmtExecute struct {
	Namespace       string
	Stmt            []byte
	Args            []*Any
	CompactMetadata bool
}

func (s *StmtExecute) Marshal() ([]byte, error) {
	var b []byte
	if s.Namespace != "" {
		b = appendString(b, 1, s.Namespace)
	}
	b = appendBytes(b, 2, s.Stmt)
	for _, a := range s.Args {
		var err error
		b, err = appendMessage(b, 3, a)
		if err != nil {
			return nil, err
		}
	}
	if s.CompactMetadata {
		b = appendBool(b, 4, true)
	}
	return b, nil
}

func (s *StmtExecute) Unmarshal(data []byte) error {
	*s = StmtExecute{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s.Namespace = string(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s.Stmt = v
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a := &Any{}
			if err := a.Unmarshal(v); err != nil {
				return 0, err
			}
			s.Args = append(s.Args, a)
			return n, nil
		case 4:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			s.CompactMetadata = v != 0
			return n, nil
		}
		return -1, nil
	})
}

// ExpectOpen/ExpectClose implement EXPECT_OPEN/EXPECT_CLOSE: a client
// may bracket a sequence of statements with an expectation block (e.g.
// "no_error") that the server enforces for every statement inside it.

// ExpectCondition is one condition of an EXPECT_OPEN block.
type ExpectCondition struct {
	ConditionKey   uint32
	ConditionValue []byte
	Op             uint32
}

func (e *ExpectCondition) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(e.ConditionKey))
	if e.ConditionValue != nil {
		b = appendBytes(b, 2, e.ConditionValue)
	}
	if e.Op != 0 {
		b = appendVarint(b, 3, uint64(e.Op))
	}
	return b, nil
}

func (e *ExpectCondition) Unmarshal(data []byte) error {
	*e = ExpectCondition{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			e.ConditionKey = uint32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			e.ConditionValue = v
			return n, nil
		case 3:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			e.Op = uint32(v)
			return n, nil
		}
		return -1, nil
	})
}

type ExpectOpen struct {
	Cond []*ExpectCondition
}

func (e *ExpectOpen) Marshal() ([]byte, error) {
	var b []byte
	for _, c := range e.Cond {
		var err error
		b, err = appendMessage(b, 1, c)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (e *ExpectOpen) Unmarshal(data []byte) error {
	*e = ExpectOpen{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		c := &ExpectCondition{}
		if err := c.Unmarshal(v); err != nil {
			return 0, err
		}
		e.Cond = append(e.Cond, c)
		return n, nil
	})
}

type ExpectClose struct{}

func (*ExpectClose) Marshal() ([]byte, error) { return nil, nil }
func (*ExpectClose) Unmarshal([]byte) error   { return nil }

// CursorOpen is CURSOR_OPEN: wraps a Find/StmtExecute-style inner
// statement so its resultset can be paged with CURSOR_FETCH rather
// than streamed to completion.
type CursorOpen struct {
	CursorID uint64
	FetchRows uint64
	Stmt     *StmtExecute
}

func (c *CursorOpen) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, c.CursorID)
	if c.FetchRows != 0 {
		b = appendVarint(b, 2, c.FetchRows)
	}
	if c.Stmt != nil {
		var err error
		b, err = appendMessage(b, 4, c.Stmt)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (c *CursorOpen) Unmarshal(data []byte) error {
	*c = CursorOpen{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.CursorID = v
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.FetchRows = v
			return n, nil
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Stmt = &StmtExecute{}
			if err := c.Stmt.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

type CursorClose struct {
	CursorID uint64
}

func (c *CursorClose) Marshal() ([]byte, error) {
	return appendVarint(nil, 1, c.CursorID), nil
}

func (c *CursorClose) Unmarshal(data []byte) error {
	*c = CursorClose{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeVarint(b)
		if err != nil {
			return 0, err
		}
		c.CursorID = v
		return n, nil
	})
}

type CursorFetch struct {
	CursorID  uint64
	FetchRows uint64
}

func (c *CursorFetch) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, c.CursorID)
	if c.FetchRows != 0 {
		b = appendVarint(b, 2, c.FetchRows)
	}
	return b, nil
}

func (c *CursorFetch) Unmarshal(data []byte) error {
	*c = CursorFetch{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.CursorID = v
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.FetchRows = v
			return n, nil
		}
		return -1, nil
	})
}

// PrepareOneOfMessage selects which operation a PREPARE_PREPARE
// statement pre-compiles (find/insert/update/delete/stmt). Only one
// of the fields is non-nil.
type PrepareOneOfMessage struct {
	Stmt   *StmtExecute
	Find   *Find
	Insert *Insert
	Update *Update
	Delete *Delete
}

func (p *PrepareOneOfMessage) Marshal() ([]byte, error) {
	var b []byte
	switch {
	case p.Stmt != nil:
		b = appendVarint(b, 1, 12)
		var err error
		b, err = appendMessage(b, 4, p.Stmt)
		if err != nil {
			return nil, err
		}
	case p.Find != nil:
		b = appendVarint(b, 1, 17)
		var err error
		b, err = appendMessage(b, 5, p.Find)
		if err != nil {
			return nil, err
		}
	case p.Insert != nil:
		b = appendVarint(b, 1, 18)
		var err error
		b, err = appendMessage(b, 6, p.Insert)
		if err != nil {
			return nil, err
		}
	case p.Update != nil:
		b = appendVarint(b, 1, 19)
		var err error
		b, err = appendMessage(b, 7, p.Update)
		if err != nil {
			return nil, err
		}
	case p.Delete != nil:
		b = appendVarint(b, 1, 20)
		var err error
		b, err = appendMessage(b, 8, p.Delete)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (p *PrepareOneOfMessage) Unmarshal(data []byte) error {
	*p = PrepareOneOfMessage{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Stmt = &StmtExecute{}
			if err := p.Stmt.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 5:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Find = &Find{}
			if err := p.Find.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 6:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Insert = &Insert{}
			if err := p.Insert.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 7:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Update = &Update{}
			if err := p.Update.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 8:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Delete = &Delete{}
			if err := p.Delete.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// PreparePrepare is PREPARE_PREPARE.
type PreparePrepare struct {
	StmtID uint32
	Stmt   *PrepareOneOfMessage
}

func (p *PreparePrepare) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(p.StmtID))
	if p.Stmt != nil {
		var err error
		b, err = appendMessage(b, 2, p.Stmt)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (p *PreparePrepare) Unmarshal(data []byte) error {
	*p = PreparePrepare{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			p.StmtID = uint32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Stmt = &PrepareOneOfMessage{}
			if err := p.Stmt.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// PrepareExecute is PREPARE_EXECUTE: run a statement prepared earlier
// by StmtID with fresh positional arguments.
type PrepareExecute struct {
	StmtID    uint32
	Args      []*Any
	CursorID  uint64
}

func (p *PrepareExecute) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(p.StmtID))
	for _, a := range p.Args {
		var err error
		b, err = appendMessage(b, 2, a)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (p *PrepareExecute) Unmarshal(data []byte) error {
	*p = PrepareExecute{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			p.StmtID = uint32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a := &Any{}
			if err := a.Unmarshal(v); err != nil {
				return 0, err
			}
			p.Args = append(p.Args, a)
			return n, nil
		}
		return -1, nil
	})
}

// PrepareDeallocate is PREPARE_DEALLOCATE.
type PrepareDeallocate struct {
	StmtID uint32
}

func (p *PrepareDeallocate) Marshal() ([]byte, error) {
	return appendVarint(nil, 1, uint64(p.StmtID)), nil
}

func (p *PrepareDeallocate) Unmarshal(data []byte) error {
	*p = PrepareDeallocate{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeVarint(b)
		if err != nil {
			return 0, err
		}
		p.StmtID = uint32(v)
		return n, nil
	})
}
