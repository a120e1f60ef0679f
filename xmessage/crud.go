package xmessage

import "google.golang.org/protobuf/encoding/protowire"

// Collection identifies a schema.collection target for a CRUD operation.
type Collection struct {
	Name   string
	Schema string
}

func (c *Collection) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, c.Name)
	if c.Schema != "" {
		b = appendString(b, 2, c.Schema)
	}
	return b, nil
}

func (c *Collection) Unmarshal(data []byte) error {
	*c = Collection{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Name = string(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Schema = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// DataModel selects between document (DOCUMENT) and table (TABLE)
// semantics for a CRUD statement (Mysqlx.Crud.DataModel).
type DataModel uint32

const (
	DataModelDocument DataModel = 1
	DataModelTable    DataModel = 2
)

// Order is one ORDER BY / sort term: an opaque expression string plus
// direction, matching how the spec treats expressions as pass-through
// text rather than a parsed AST (spec.md DOMAIN STACK note on query
// expressions).
type Order struct {
	Expr string
	Desc bool
}

func (o *Order) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, o.Expr)
	if o.Desc {
		b = appendVarint(b, 2, 2)
	}
	return b, nil
}

func (o *Order) Unmarshal(data []byte) error {
	*o = Order{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			o.Expr = string(v)
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			o.Desc = v == 2
			return n, nil
		}
		return -1, nil
	})
}

// Limit bounds the rows a Find/Update/Delete affects.
type Limit struct {
	RowCount uint64
	Offset   uint64
}

func (l *Limit) Marshal() ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, l.RowCount)
	if l.Offset != 0 {
		b = appendVarint(b, 2, l.Offset)
	}
	return b, nil
}

func (l *Limit) Unmarshal(data []byte) error {
	*l = Limit{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			l.RowCount = v
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			l.Offset = v
			return n, nil
		}
		return -1, nil
	})
}

// Projection is one column/field of a Find's output list: an
// expression plus an optional alias.
type Projection struct {
	Source string
	Alias  string
}

func (p *Projection) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, p.Source)
	if p.Alias != "" {
		b = appendString(b, 2, p.Alias)
	}
	return b, nil
}

func (p *Projection) Unmarshal(data []byte) error {
	*p = Projection{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Source = string(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p.Alias = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// Find is CRUD_FIND: the wire form of a collection/table read. Criteria
// and grouping predicates are carried as opaque expression text, the
// same simplification Order uses.
type Find struct {
	Collection *Collection
	DataModel  DataModel
	Projection []*Projection
	Criteria   string
	Args       []*Scalar
	Grouping   []string
	GroupingCriteria string
	Order      []*Order
	Limit      *Limit
}

func (f *Find) Marshal() ([]byte, error) {
	var b []byte
	if f.Collection != nil {
		var err error
		b, err = appendMessage(b, 1, f.Collection)
		if err != nil {
			return nil, err
		}
	}
	if f.DataModel != 0 {
		b = appendVarint(b, 2, uint64(f.DataModel))
	}
	for _, p := range f.Projection {
		var err error
		b, err = appendMessage(b, 3, p)
		if err != nil {
			return nil, err
		}
	}
	if f.Criteria != "" {
		b = appendString(b, 4, f.Criteria)
	}
	for _, a := range f.Args {
		var err error
		b, err = appendMessage(b, 5, a)
		if err != nil {
			return nil, err
		}
	}
	for _, g := range f.Grouping {
		b = appendString(b, 6, g)
	}
	if f.GroupingCriteria != "" {
		b = appendString(b, 7, f.GroupingCriteria)
	}
	for _, o := range f.Order {
		var err error
		b, err = appendMessage(b, 8, o)
		if err != nil {
			return nil, err
		}
	}
	if f.Limit != nil {
		var err error
		b, err = appendMessage(b, 9, f.Limit)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (f *Find) Unmarshal(data []byte) error {
	*f = Find{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			f.Collection = &Collection{}
			if err := f.Collection.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			f.DataModel = DataModel(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			p := &Projection{}
			if err := p.Unmarshal(v); err != nil {
				return 0, err
			}
			f.Projection = append(f.Projection, p)
			return n, nil
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			f.Criteria = string(v)
			return n, nil
		case 5:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s := &Scalar{}
			if err := s.Unmarshal(v); err != nil {
				return 0, err
			}
			f.Args = append(f.Args, s)
			return n, nil
		case 6:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			f.Grouping = append(f.Grouping, string(v))
			return n, nil
		case 7:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			f.GroupingCriteria = string(v)
			return n, nil
		case 8:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			o := &Order{}
			if err := o.Unmarshal(v); err != nil {
				return 0, err
			}
			f.Order = append(f.Order, o)
			return n, nil
		case 9:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			f.Limit = &Limit{}
			if err := f.Limit.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// TypedRow is one row of values for Insert, in column order.
type TypedRow struct {
	Field []*Scalar
}

func (t *TypedRow) Marshal() ([]byte, error) {
	var b []byte
	for _, f := range t.Field {
		var err error
		b, err = appendMessage(b, 1, f)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (t *TypedRow) Unmarshal(data []byte) error {
	*t = TypedRow{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		s := &Scalar{}
		if err := s.Unmarshal(v); err != nil {
			return 0, err
		}
		t.Field = append(t.Field, s)
		return n, nil
	})
}

// Insert is CRUD_INSERT.
type Insert struct {
	Collection *Collection
	DataModel  DataModel
	Projection []string // column names, table mode
	Row        []*TypedRow
	Upsert     bool
}

func (ins *Insert) Marshal() ([]byte, error) {
	var b []byte
	if ins.Collection != nil {
		var err error
		b, err = appendMessage(b, 1, ins.Collection)
		if err != nil {
			return nil, err
		}
	}
	if ins.DataModel != 0 {
		b = appendVarint(b, 2, uint64(ins.DataModel))
	}
	for _, p := range ins.Projection {
		b = appendString(b, 3, p)
	}
	for _, r := range ins.Row {
		var err error
		b, err = appendMessage(b, 4, r)
		if err != nil {
			return nil, err
		}
	}
	if ins.Upsert {
		b = appendBool(b, 5, true)
	}
	return b, nil
}

func (ins *Insert) Unmarshal(data []byte) error {
	*ins = Insert{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			ins.Collection = &Collection{}
			if err := ins.Collection.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			ins.DataModel = DataModel(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			ins.Projection = append(ins.Projection, string(v))
			return n, nil
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			r := &TypedRow{}
			if err := r.Unmarshal(v); err != nil {
				return 0, err
			}
			ins.Row = append(ins.Row, r)
			return n, nil
		case 5:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			ins.Upsert = v != 0
			return n, nil
		}
		return -1, nil
	})
}

// UpdateOperation is one field mutation of an Update (set/unset/merge).
type UpdateOperation struct {
	Source    string
	Operation uint32
	Value     *Scalar
}

func (u *UpdateOperation) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, u.Source)
	b = appendVarint(b, 2, uint64(u.Operation))
	if u.Value != nil {
		var err error
		b, err = appendMessage(b, 3, u.Value)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (u *UpdateOperation) Unmarshal(data []byte) error {
	*u = UpdateOperation{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			u.Source = string(v)
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			u.Operation = uint32(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			u.Value = &Scalar{}
			if err := u.Value.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// Update is CRUD_UPDATE.
type Update struct {
	Collection *Collection
	DataModel  DataModel
	Criteria   string
	Args       []*Scalar
	Limit      *Limit
	Order      []*Order
	Operation  []*UpdateOperation
}

func (u *Update) Marshal() ([]byte, error) {
	var b []byte
	if u.Collection != nil {
		var err error
		b, err = appendMessage(b, 1, u.Collection)
		if err != nil {
			return nil, err
		}
	}
	if u.DataModel != 0 {
		b = appendVarint(b, 2, uint64(u.DataModel))
	}
	if u.Criteria != "" {
		b = appendString(b, 3, u.Criteria)
	}
	for _, a := range u.Args {
		var err error
		b, err = appendMessage(b, 4, a)
		if err != nil {
			return nil, err
		}
	}
	if u.Limit != nil {
		var err error
		b, err = appendMessage(b, 5, u.Limit)
		if err != nil {
			return nil, err
		}
	}
	for _, o := range u.Order {
		var err error
		b, err = appendMessage(b, 6, o)
		if err != nil {
			return nil, err
		}
	}
	for _, op := range u.Operation {
		var err error
		b, err = appendMessage(b, 7, op)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (u *Update) Unmarshal(data []byte) error {
	*u = Update{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			u.Collection = &Collection{}
			if err := u.Collection.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			u.DataModel = DataModel(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			u.Criteria = string(v)
			return n, nil
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s := &Scalar{}
			if err := s.Unmarshal(v); err != nil {
				return 0, err
			}
			u.Args = append(u.Args, s)
			return n, nil
		case 5:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			u.Limit = &Limit{}
			if err := u.Limit.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 6:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			o := &Order{}
			if err := o.Unmarshal(v); err != nil {
				return 0, err
			}
			u.Order = append(u.Order, o)
			return n, nil
		case 7:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			op := &UpdateOperation{}
			if err := op.Unmarshal(v); err != nil {
				return 0, err
			}
			u.Operation = append(u.Operation, op)
			return n, nil
		}
		return -1, nil
	})
}

// Delete is CRUD_DELETE.
type Delete struct {
	Collection *Collection
	DataModel  DataModel
	Criteria   string
	Args       []*Scalar
	Limit      *Limit
	Order      []*Order
}

func (d *Delete) Marshal() ([]byte, error) {
	var b []byte
	if d.Collection != nil {
		var err error
		b, err = appendMessage(b, 1, d.Collection)
		if err != nil {
			return nil, err
		}
	}
	if d.DataModel != 0 {
		b = appendVarint(b, 2, uint64(d.DataModel))
	}
	if d.Criteria != "" {
		b = appendString(b, 3, d.Criteria)
	}
	for _, a := range d.Args {
		var err error
		b, err = appendMessage(b, 4, a)
		if err != nil {
			return nil, err
		}
	}
	if d.Limit != nil {
		var err error
		b, err = appendMessage(b, 5, d.Limit)
		if err != nil {
			return nil, err
		}
	}
	for _, o := range d.Order {
		var err error
		b, err = appendMessage(b, 6, o)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (d *Delete) Unmarshal(data []byte) error {
	*d = Delete{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			d.Collection = &Collection{}
			if err := d.Collection.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			d.DataModel = DataModel(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			d.Criteria = string(v)
			return n, nil
		case 4:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			s := &Scalar{}
			if err := s.Unmarshal(v); err != nil {
				return 0, err
			}
			d.Args = append(d.Args, s)
			return n, nil
		case 5:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			d.Limit = &Limit{}
			if err := d.Limit.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 6:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			o := &Order{}
			if err := o.Unmarshal(v); err != nil {
				return 0, err
			}
			d.Order = append(d.Order, o)
			return n, nil
		}
		return -1, nil
	})
}

// CreateView is CRUD_CREATE_VIEW.
type CreateView struct {
	View       *Collection
	Stmt       *Find
	ReplaceExisting bool
}

func (c *CreateView) Marshal() ([]byte, error) {
	var b []byte
	if c.View != nil {
		var err error
		b, err = appendMessage(b, 1, c.View)
		if err != nil {
			return nil, err
		}
	}
	if c.Stmt != nil {
		var err error
		b, err = appendMessage(b, 3, c.Stmt)
		if err != nil {
			return nil, err
		}
	}
	if c.ReplaceExisting {
		b = appendBool(b, 4, true)
	}
	return b, nil
}

func (c *CreateView) Unmarshal(data []byte) error {
	*c = CreateView{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.View = &Collection{}
			if err := c.View.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			c.Stmt = &Find{}
			if err := c.Stmt.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 4:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			c.ReplaceExisting = v != 0
			return n, nil
		}
		return -1, nil
	})
}

// ModifyView is CRUD_MODIFY_VIEW.
type ModifyView struct {
	View *Collection
	Stmt *Find
}

func (m *ModifyView) Marshal() ([]byte, error) {
	var b []byte
	if m.View != nil {
		var err error
		b, err = appendMessage(b, 1, m.View)
		if err != nil {
			return nil, err
		}
	}
	if m.Stmt != nil {
		var err error
		b, err = appendMessage(b, 3, m.Stmt)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *ModifyView) Unmarshal(data []byte) error {
	*m = ModifyView{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			m.View = &Collection{}
			if err := m.View.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			m.Stmt = &Find{}
			if err := m.Stmt.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// DropView is CRUD_DROP_VIEW.
type DropView struct {
	View          *Collection
	IfExists      bool
}

func (d *DropView) Marshal() ([]byte, error) {
	var b []byte
	if d.View != nil {
		var err error
		b, err = appendMessage(b, 1, d.View)
		if err != nil {
			return nil, err
		}
	}
	if d.IfExists {
		b = appendBool(b, 2, true)
	}
	return b, nil
}

func (d *DropView) Unmarshal(data []byte) error {
	*d = DropView{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			d.View = &Collection{}
			if err := d.View.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case 2:
			v, n, err := consumeVarint(b)
			if err != nil {
				return 0, err
			}
			d.IfExists = v != 0
			return n, nil
		}
		return -1, nil
	})
}
