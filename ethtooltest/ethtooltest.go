// Package ethtooltest provides utilities for ethtool testing.
package ethtooltest

import (
	"context"
	"errors"
	"io"
	"sync"
	"syscall"

	"github.com/ethnl/ethtool"
	"github.com/mdlayher/netlink"
)

// A Request is a request received by a Transport.
type Request struct {
	Command ethtool.Command
	Flags   netlink.HeaderFlags
	Payload []byte
}

// A Reply is one reply message delivered to a Subscription.  If Err is set,
// the Subscription fails with Err instead of delivering Data.
type Reply struct {
	Data []byte
	Err  error
}

// Replies wraps payloads as successful replies.
func Replies(payloads ...[]byte) []Reply {
	rs := make([]Reply, 0, len(payloads))
	for _, p := range payloads {
		rs = append(rs, Reply{Data: p})
	}

	return rs
}

// Error returns an error with the specified error number, as the kernel
// would report in a netlink error message.
func Error(number int) error {
	return &netlink.OpError{
		Op:  "receive",
		Err: syscall.Errno(number),
	}
}

// A Func is a function that can be used to test ethtool interactions.  The
// function can choose to return zero or more replies, or an error which
// fails the submission of the request.
type Func func(req Request) ([]Reply, error)

// A Transport is an ethtool.Transport which passes every request to a Func.
// It keeps count of the subscriptions which have not been closed.
type Transport struct {
	fn Func

	mu     sync.Mutex
	active int
	closed bool
}

var _ ethtool.Transport = &Transport{}

// errClosed is returned when sending on a closed Transport.
var errClosed = errors.New("ethtooltest: transport closed")

// New creates a Transport which serves requests using fn.
func New(fn Func) *Transport {
	return &Transport{fn: fn}
}

// Dial is a convenience which creates a Transport and an ethtool.Handle
// that uses it.
func Dial(fn Func, opts ...ethtool.HandleOption) (*ethtool.Handle, *Transport) {
	t := New(fn)
	return ethtool.NewHandle(t, opts...), t
}

// Send implements ethtool.Transport.
func (t *Transport) Send(ctx context.Context, cmd ethtool.Command, flags netlink.HeaderFlags, payload []byte) (ethtool.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, errClosed
	}
	t.mu.Unlock()

	// Hand the Func its own copy so the caller's buffer can't be retained.
	p := make([]byte, len(payload))
	copy(p, payload)

	replies, err := t.fn(Request{
		Command: cmd,
		Flags:   flags,
		Payload: p,
	})
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.active++

	return &subscription{t: t, replies: replies}, nil
}

// Active returns the number of subscriptions which have not been closed.
func (t *Transport) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Close closes the Transport.  Subsequent requests fail.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// A subscription delivers the replies returned by a Func.
type subscription struct {
	t       *Transport
	replies []Reply
	closed  bool
}

func (s *subscription) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.closed || len(s.replies) == 0 {
		return nil, io.EOF
	}

	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}

	return r.Data, nil
}

func (s *subscription) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true
	s.replies = nil

	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.t.active--
	return nil
}
