package provider

import "context"

// Iterator provides pull-based sequential access to a stream of values.
// The consumer calls Next() to retrieve values one at a time.
// Close must be called when done to release resources.
//
// Iterators are single-pass and not safe for concurrent calls to Next.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromSlice returns an Iterator over items.
func FromSlice[T any](items ...T) Iterator[T] {
	return &sliceIterator[T]{items: items}
}

type sliceIterator[T any] struct {
	items  []T
	pos    int
	closed bool
}

func (s *sliceIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.closed || s.pos >= len(s.items) {
		return zero, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

func (s *sliceIterator[T]) Close() error {
	s.closed = true
	return nil
}

// FuncIterator adapts a pair of functions to Iterator. closeFn may be nil.
func FuncIterator[T any](next func(ctx context.Context) (T, bool, error), closeFn func() error) Iterator[T] {
	return &funcIterator[T]{next: next, close: closeFn}
}

type funcIterator[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (f *funcIterator[T]) Next(ctx context.Context) (T, bool, error) { return f.next(ctx) }

func (f *funcIterator[T]) Close() error {
	if f.close == nil {
		return nil
	}
	return f.close()
}

// Collect drains it and closes it. Values read before a failure are returned
// alongside the error.
func Collect[T any](ctx context.Context, it Iterator[T]) (out []T, err error) {
	defer func() {
		if cerr := it.Close(); err == nil {
			err = cerr
		}
	}()

	for {
		v, ok, nerr := it.Next(ctx)
		if nerr != nil {
			return out, nerr
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}
