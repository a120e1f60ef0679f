// Package capability implements the capability map the client builds
// for CON_CAPABILITIES_SET and the compression negotiator that decides
// whether the compressed transport should be enabled, grounded on
// xcl::Capabilities_builder and xcl::Capabilities_negotiator.
package capability

import (
	"github.com/gomysqlx/client/argument"
	"github.com/gomysqlx/client/xmessage"
)

// Builder accumulates named capability values before they are sent in
// a single CON_CAPABILITIES_SET.
type Builder struct {
	set *xmessage.CapabilitiesSet
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{set: &xmessage.CapabilitiesSet{Capabilities: &xmessage.Capabilities{}}}
}

// Clear empties the builder, letting it be reused for another round of
// capability negotiation (e.g. a second CON_CAPABILITIES_SET for TLS
// after the first one just requested "tls").
func (b *Builder) Clear() *Builder {
	b.set = &xmessage.CapabilitiesSet{Capabilities: &xmessage.Capabilities{}}
	return b
}

// Add sets capability name to value.
func (b *Builder) Add(name string, value argument.Value) *Builder {
	b.set.Capabilities.Capabilities = append(b.set.Capabilities.Capabilities, &xmessage.Capability{
		Name:  name,
		Value: argument.ToAny(value),
	})
	return b
}

// AddFromFields adds every field of fields as its own capability, used
// when an entire sub-object (like the negotiated compression options)
// needs folding into the top-level capability set.
func (b *Builder) AddFromFields(fields []argument.Field) *Builder {
	for _, f := range fields {
		b.Add(f.Key, f.Value)
	}
	return b
}

// Result returns the accumulated CapabilitiesSet, ready to marshal.
func (b *Builder) Result() *xmessage.CapabilitiesSet {
	return b.set
}
