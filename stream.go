package ethtool

import (
	"context"
	"io"
	"iter"

	"go.uber.org/zap"
)

// A Stream lazily decodes the replies to a single request.  Each reply is
// decoded only when the caller asks for it, and a decoding failure affects
// only that reply.  A Stream is not safe for concurrent use and cannot be
// restarted; send a new request to query again.
type Stream[T any] struct {
	sub    Subscription
	decode func([]byte) (T, error)
	dbg    *debugger

	n    int
	done bool
}

// newStream is the internal constructor for Stream.
func newStream[T any](sub Subscription, decode func([]byte) (T, error), dbg *debugger) *Stream[T] {
	return &Stream[T]{
		sub:    sub,
		decode: decode,
		dbg:    dbg,
	}
}

// Next decodes the next reply.  It returns io.EOF when the transport signals
// the end of the reply, after which the Stream is closed.
//
// Transport failures are returned as an *OpError and also close the Stream.
// Decoding failures are returned as a *DecodeError; the Stream remains
// usable and the caller may continue with the next reply.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if s.done {
		return zero, io.EOF
	}

	b, err := s.sub.Next(ctx)
	switch {
	case err == io.EOF:
		s.dbg.debugf(1, "stream done", zap.Int("messages", s.n))
		_ = s.Close()
		return zero, io.EOF
	case err != nil:
		s.dbg.debugf(1, "stream failed", zap.Int("messages", s.n), zap.Error(err))
		_ = s.Close()
		return zero, &OpError{Op: "receive", Err: err}
	}

	s.n++
	s.dbg.dump(2, "reply", b)

	v, err := s.decode(b)
	if err != nil {
		s.dbg.debugf(1, "reply decode failed", zap.Int("message", s.n), zap.Error(err))
		return zero, err
	}

	return v, nil
}

// All returns an iterator over the remaining replies.  Leaving the loop
// early, or reaching its end, closes the Stream.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()

		for {
			v, err := s.Next(ctx)
			if err == io.EOF {
				return
			}

			if !yield(v, err) {
				return
			}
		}
	}
}

// Close releases the request's transport resources.  Close is idempotent
// and only needed for a Stream which is abandoned without using All.
func (s *Stream[T]) Close() error {
	if s.done {
		return nil
	}

	s.done = true
	return s.sub.Close()
}
