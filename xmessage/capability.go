package xmessage

import "google.golang.org/protobuf/encoding/protowire"

// Capability is one named Any-valued capability, e.g. "tls" -> bool,
// "compression" -> Object{algorithm, server_combine_mixed_messages, ...}.
type Capability struct {
	Name  string
	Value *Any
}

func (c *Capability) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, c.Name)
	var err error
	b, err = appendMessage(b, 2, c.Value)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Capability) Unmarshal(data []byte) error {
	*c = Capability{}
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
			c.Value = &Any{}
			if err := c.Value.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return -1, nil
	})
}

// Capabilities is the server's Mysqlx.Connection.Capabilities reply to
// CON_CAPABILITIES_GET, and the client's payload for CON_CAPABILITIES_SET.
type Capabilities struct {
	Capabilities []*Capability
}

func (c *Capabilities) Marshal() ([]byte, error) {
	var b []byte
	for _, cap := range c.Capabilities {
		var err error
		b, err = appendMessage(b, 1, cap)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (c *Capabilities) Unmarshal(data []byte) error {
	*c = Capabilities{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		cap := &Capability{}
		if err := cap.Unmarshal(v); err != nil {
			return 0, err
		}
		c.Capabilities = append(c.Capabilities, cap)
		return n, nil
	})
}

// Get returns the named capability's value, or nil if absent.
func (c *Capabilities) Get(name string) *Any {
	for _, cap := range c.Capabilities {
		if cap.Name == name {
			return cap.Value
		}
	}
	return nil
}

// CapabilitiesGet is CON_CAPABILITIES_GET: an empty message.
type CapabilitiesGet struct{}

func (*CapabilitiesGet) Marshal() ([]byte, error) { return nil, nil }
func (*CapabilitiesGet) Unmarshal([]byte) error   { return nil }

// CapabilitiesSet is CON_CAPABILITIES_SET: the client's requested
// capability set.
type CapabilitiesSet struct {
	Capabilities *Capabilities
}

func (c *CapabilitiesSet) Marshal() ([]byte, error) {
	if c.Capabilities == nil {
		return nil, nil
	}
	return appendMessage(nil, 1, c.Capabilities)
}

func (c *CapabilitiesSet) Unmarshal(data []byte) error {
	*c = CapabilitiesSet{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		c.Capabilities = &Capabilities{}
		if err := c.Capabilities.Unmarshal(v); err != nil {
			return 0, err
		}
		return n, nil
	})
}
