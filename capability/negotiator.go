package capability

import (
	"github.com/gomysqlx/client/argument"
	"github.com/gomysqlx/client/compress"
	"github.com/gomysqlx/client/xerr"
)

// Negotiation controls whether the client attempts to negotiate the
// compressed transport at all, matching xcl::Compression_negotiation.
type Negotiation int

const (
	NegotiationDisabled Negotiation = iota
	NegotiationPreferred
	NegotiationRequired
)

// Negotiator resolves the client's preferred compression
// algorithm/style lists against what the server advertised in its
// CON_CAPABILITIES_GET reply, grounded on xcl::Capabilities_negotiator.
type Negotiator struct {
	Mode Negotiation

	// Preference order, most preferred first.
	Algorithms   []compress.Algorithm
	ClientStyles []compress.Style
	ServerStyles []compress.Style

	chosenAlgorithm   compress.Algorithm
	chosenClientStyle compress.Style
	chosenServerStyle compress.Style
}

// NewNegotiator returns a Negotiator with the same default preference
// order as the original: deflate before lz4, group/multiple/single for
// the server style, single/multiple/group for the client style.
func NewNegotiator(mode Negotiation) *Negotiator {
	return &Negotiator{
		Mode:         mode,
		Algorithms:   []compress.Algorithm{compress.Deflate, compress.LZ4},
		ClientStyles: []compress.Style{compress.StyleSingle, compress.StyleMultiple, compress.StyleGroup},
		ServerStyles: []compress.Style{compress.StyleGroup, compress.StyleMultiple, compress.StyleSingle},
	}
}

// NeedsNegotiation reports whether the negotiator should even attempt
// to pick an algorithm.
func (n *Negotiator) NeedsNegotiation() bool {
	return n.Mode != NegotiationDisabled
}

func styleName(s compress.Style) string {
	switch s {
	case compress.StyleSingle:
		return "single"
	case compress.StyleMultiple:
		return "multiple"
	case compress.StyleGroup:
		return "group"
	}
	return ""
}

func parseStyle(s string) compress.Style {
	switch s {
	case "single":
		return compress.StyleSingle
	case "multiple":
		return compress.StyleMultiple
	case "group":
		return compress.StyleGroup
	}
	return compress.StyleNone
}

// Resolve picks the first mutually-supported algorithm and style pair
// out of the server's advertised "compression" capability object, and
// returns the fields a Builder should add to the follow-up
// CON_CAPABILITIES_SET. It returns ok == false when no algorithm could
// be agreed on; if Mode == NegotiationRequired that is also reported
// as an *xerr.Error.
func (n *Negotiator) Resolve(serverCompression []argument.Field) (fields []argument.Field, ok bool, err *xerr.Error) {
	var algorithms, clientStyles, serverStyles []string
	for _, f := range serverCompression {
		switch f.Key {
		case "algorithm":
			algorithms = stringsOf(f.Value)
		case "client_style":
			clientStyles = stringsOf(f.Value)
		case "server_style":
			serverStyles = stringsOf(f.Value)
		}
	}

	for _, want := range n.Algorithms {
		if !contains(algorithms, string(want)) {
			continue
		}
		n.chosenAlgorithm = want
		break
	}

	if len(clientStyles) > 0 {
		for _, want := range n.ClientStyles {
			if contains(clientStyles, styleName(want)) {
				n.chosenClientStyle = want
				break
			}
		}
	}
	if len(serverStyles) > 0 {
		for _, want := range n.ServerStyles {
			if contains(serverStyles, styleName(want)) {
				n.chosenServerStyle = want
				break
			}
		}
	}

	if !n.wasChosen() {
		if n.Mode == NegotiationRequired {
			return nil, false, xerr.New(xerr.RequiredCompressionNotSupported,
				"client's requirement for compression configuration is not supported by server or it was disabled")
		}
		return nil, false, nil
	}

	fields = append(fields, argument.Field{Key: "algorithm", Value: argument.NewString(string(n.chosenAlgorithm))})
	if n.chosenClientStyle != compress.StyleNone {
		fields = append(fields, argument.Field{Key: "client_style", Value: argument.NewString(styleName(n.chosenClientStyle))})
	}
	if n.chosenServerStyle != compress.StyleNone {
		fields = append(fields, argument.Field{Key: "server_style", Value: argument.NewString(styleName(n.chosenServerStyle))})
	}
	return fields, true, nil
}

// ChosenAlgorithm returns the algorithm Resolve agreed on.
func (n *Negotiator) ChosenAlgorithm() compress.Algorithm { return n.chosenAlgorithm }

// ChosenClientStyle returns the client->server framing style Resolve agreed on.
func (n *Negotiator) ChosenClientStyle() compress.Style { return n.chosenClientStyle }

// ChosenServerStyle returns the server->client framing style Resolve agreed on.
func (n *Negotiator) ChosenServerStyle() compress.Style { return n.chosenServerStyle }

func (n *Negotiator) wasChosen() bool {
	if n.chosenAlgorithm == compress.None {
		return false
	}
	if n.chosenClientStyle == compress.StyleNone && n.chosenServerStyle == compress.StyleNone {
		return false
	}
	return true
}

func stringsOf(v argument.Value) []string {
	var out []string
	v.Accept(arrayCoercer{out: &out})
	if out == nil {
		s := ""
		v.Accept(stringCoercer{out: &s})
		if s != "" {
			out = []string{s}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
