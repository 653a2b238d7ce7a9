package engine

// Protocol identifies the wire protocol a response was received over.
type Protocol string

const (
	HTTP10           Protocol = "http/1.0"
	HTTP11           Protocol = "http/1.1"
	HTTP2            Protocol = "h2"
	H2PriorKnowledge Protocol = "h2_prior_knowledge"
	QUIC             Protocol = "quic"
)

// ProtocolFromVersion maps the major/minor pair net/http reports.
func ProtocolFromVersion(major, minor int) Protocol {
	switch {
	case major == 2:
		return HTTP2
	case major == 1 && minor == 0:
		return HTTP10
	case major == 1:
		return HTTP11
	case major == 3:
		return QUIC
	default:
		return Protocol("")
	}
}
