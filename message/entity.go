package message

import (
	"context"
	"errors"

	"github.com/jmcardon/http4s/provider"
)

// Entity is an outgoing request body.
type Entity struct {
	// Body yields the body chunks. Nil means no body.
	Body provider.Iterator[[]byte]
	// Length is the declared byte length; negative when undeclared.
	Length int64
	// Chunked marks a body sent with chunked transfer coding.
	Chunked bool
}

// NoEntity is the absent body.
var NoEntity = Entity{Length: -1}

// IsPresent reports whether the entity carries a body with known framing:
// a declared length or chunked transfer.
func (e Entity) IsPresent() bool {
	return e.Body != nil && (e.Length >= 0 || e.Chunked)
}

// BytesEntity returns a body of exactly p with a declared length.
func BytesEntity(p []byte) Entity {
	return Entity{Body: provider.FromSlice(p), Length: int64(len(p))}
}

// ChunkedEntity returns a chunked body yielding chunks in order.
func ChunkedEntity(chunks ...[]byte) Entity {
	return Entity{Body: provider.FromSlice(chunks...), Length: -1, Chunked: true}
}

// ReadAll drains it, closes it and returns the concatenated bytes.
func ReadAll(ctx context.Context, it provider.Iterator[[]byte]) ([]byte, error) {
	if it == nil {
		return nil, errors.New("message: nil body")
	}
	chunks, err := provider.Collect(ctx, it)
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out, err
}
