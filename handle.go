package ethtool

import (
	"context"

	"github.com/mdlayher/netlink"
	"go.uber.org/zap"
)

// A Handle issues ethtool queries over a Transport.  A Handle is safe for
// concurrent use when its Transport is.
type Handle struct {
	t   Transport
	dbg *debugger
}

// A HandleOption configures a Handle.
type HandleOption func(h *Handle)

// WithLogger sets the logger used to report requests and replies.  By
// default a Handle only logs when ETHNLDEBUG is set.
func WithLogger(l *zap.Logger) HandleOption {
	return func(h *Handle) {
		h.dbg = loggerDebugger(l)
	}
}

// NewHandle creates a Handle which sends requests over t.
func NewHandle(t Transport, opts ...HandleOption) *Handle {
	h := &Handle{
		t:   t,
		dbg: defaultDebugger(),
	}
	for _, o := range opts {
		o(h)
	}

	return h
}

// LinkState returns a handle for link state queries.
func (h *Handle) LinkState() *LinkStateHandle {
	return &LinkStateHandle{h: h}
}

// execute submits a request and returns a Stream which decodes each reply
// with decode.  When dump is set the kernel replies for every interface.
func execute[T any](
	ctx context.Context,
	h *Handle,
	cmd Command,
	dump bool,
	payload []byte,
	decode func([]byte) (T, error),
) (*Stream[T], error) {
	flags := netlink.Request
	if dump {
		flags |= netlink.Dump
	}

	h.dbg.debugf(1, "sending request",
		zap.Uint8("command", cmd.ID),
		zap.Bool("dump", dump),
		zap.Int("length", len(payload)),
	)
	h.dbg.dump(2, "request", payload)

	sub, err := h.t.Send(ctx, cmd, flags, payload)
	if err != nil {
		h.dbg.debugf(1, "request failed", zap.Uint8("command", cmd.ID), zap.Error(err))
		return nil, &OpError{Op: "send", Err: err}
	}

	return newStream(sub, decode, h.dbg), nil
}

// A LinkStateHandle builds link state queries.
type LinkStateHandle struct {
	h *Handle
}

// Get builds a request for the link state of the interface with the
// specified name.  An empty name requests the link state of every
// interface.  No I/O occurs until the request is executed.
func (lh *LinkStateHandle) Get(name string) LinkStateRequest {
	return LinkStateRequest{h: lh.h, ifi: Interface{Name: name}}
}

// GetByIndex builds a request for the link state of the interface with the
// specified index.  An index of 0 requests every interface.
func (lh *LinkStateHandle) GetByIndex(index int) LinkStateRequest {
	return LinkStateRequest{h: lh.h, ifi: Interface{Index: index}}
}

// A LinkStateRequest describes a link state query.  It is a value; executing
// it more than once sends the query again.
type LinkStateRequest struct {
	h     *Handle
	ifi   Interface
	flags HeaderFlags
}

// WithFlags returns a copy of r which sets the header request flags.
func (r LinkStateRequest) WithFlags(flags HeaderFlags) LinkStateRequest {
	r.flags = flags
	return r
}

// Dump reports whether r requests the link state of every interface.
func (r LinkStateRequest) Dump() bool {
	return r.ifi == Interface{}
}

// Header returns the header which identifies the interface r concerns.
func (r LinkStateRequest) Header() LinkStateHeader {
	h := LinkStateHeader(r.ifi.header())
	if r.flags != 0 {
		h = append(h, r.flags)
	}

	return h
}

// Payload encodes the attributes of r.  The header is the sole attribute.
func (r LinkStateRequest) Payload() ([]byte, error) {
	return EncodeLinkState(r.Header())
}

// Execute sends r and returns a Stream over the replies.  Each reply is the
// ordered attribute sequence of one interface.  A failure to submit r is
// returned as an *OpError before any reply is read.
//
// The returned Stream must be closed by the caller unless it is consumed
// with All or read with Next until an error other than a *DecodeError.
func (r LinkStateRequest) Execute(ctx context.Context) (*Stream[[]LinkStateAttr], error) {
	b, err := r.Payload()
	if err != nil {
		return nil, err
	}

	return execute(ctx, r.h, Command{ID: CmdLinkStateGet, Version: GenlVersion}, r.Dump(), b, DecodeLinkState)
}

// LinkStates is a convenience which executes r and summarizes every reply.
// It stops at the first error.
func (r LinkStateRequest) LinkStates(ctx context.Context) ([]LinkState, error) {
	s, err := r.Execute(ctx)
	if err != nil {
		return nil, err
	}

	var lss []LinkState
	for attrs, err := range s.All(ctx) {
		if err != nil {
			return nil, err
		}

		lss = append(lss, ParseLinkState(attrs))
	}

	return lss, nil
}
