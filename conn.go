package ethtool

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"go.uber.org/zap"
)

// A Conn is a Transport backed by a generic netlink connection to the
// kernel's ethtool family.
//
// Send receives every part of a reply before returning, so a dump holds the
// raw payloads of all interfaces in memory until its Stream is drained or
// closed.  Only decoding is deferred to the Stream.
type Conn struct {
	c      conn
	family genetlink.Family
	dbg    *debugger

	// mu serializes request/reply exchanges so that concurrent requests
	// never read each other's replies.
	mu     sync.Mutex
	closed bool
}

var _ Transport = &Conn{}

// A conn is a generic netlink connection, which can be swapped for tests.
type conn interface {
	Close() error
	GetFamily(name string) (genetlink.Family, error)
	Send(m genetlink.Message, family uint16, flags netlink.HeaderFlags) (netlink.Message, error)
	Receive() ([]genetlink.Message, []netlink.Message, error)
	SetDeadline(t time.Time) error
}

var _ conn = &genetlink.Conn{}

// Config contains options for a Conn.
type Config struct {
	// NetNS specifies the network namespace the Conn will operate in.  If
	// set to 0, the current thread's network namespace is used.
	NetNS int

	// Logger, if set, receives debugging information about requests.
	// Otherwise ETHNLDEBUG is consulted.
	Logger *zap.Logger
}

// Dial opens a generic netlink connection and resolves the ethtool family.
// Config specifies optional configuration for Conn.  If config is nil, a
// default configuration will be used.
func Dial(config *Config) (*Conn, error) {
	if config == nil {
		config = &Config{}
	}

	// ethtool is a reasonably new genetlink family and its API supports the
	// strict socket options.
	c, err := genetlink.Dial(&netlink.Config{
		NetNS:  config.NetNS,
		Strict: true,
	})
	if err != nil {
		return nil, &OpError{Op: "dial", Err: err}
	}

	ec, err := newConn(c, config)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return ec, nil
}

// newConn is the internal constructor for Conn, used in tests.
func newConn(c conn, config *Config) (*Conn, error) {
	f, err := c.GetFamily(familyName)
	if err != nil {
		return nil, &OpError{Op: "get family", Err: err}
	}

	dbg := defaultDebugger()
	if config != nil && config.Logger != nil {
		dbg = loggerDebugger(config.Logger)
	}

	dbg.debugf(1, "resolved family",
		zap.String("name", f.Name),
		zap.Uint16("id", f.ID),
		zap.Uint8("version", f.Version),
	)

	return &Conn{
		c:      c,
		family: f,
		dbg:    dbg,
	}, nil
}

// Close closes the connection.  Subscriptions which were already returned
// remain readable.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	return c.c.Close()
}

// Send implements Transport.  The ethtool family ID is filled in from the
// family resolved by Dial.  If ctx has a deadline, it bounds both sending
// the request and receiving every part of its reply.
func (c *Conn) Send(ctx context.Context, cmd Command, flags netlink.HeaderFlags, payload []byte) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errClosed
	}

	if d, ok := ctx.Deadline(); ok {
		if err := c.c.SetDeadline(d); err != nil {
			return nil, err
		}
		defer func() { _ = c.c.SetDeadline(time.Time{}) }()
	}

	req, err := c.c.Send(genetlink.Message{
		Header: genetlink.Header{
			Command: cmd.ID,
			Version: cmd.Version,
		},
		Data: payload,
	}, c.family.ID, flags)
	if err != nil {
		return nil, err
	}

	// The netlink connection drains every part of a multi-part reply and
	// reports any netlink error message as an error here.
	msgs, replies, err := c.c.Receive()
	if err != nil {
		return nil, err
	}

	if err := netlink.Validate(req, replies); err != nil {
		return nil, err
	}

	c.dbg.debugf(1, "received reply",
		zap.Uint8("command", cmd.ID),
		zap.Uint32("sequence", req.Header.Sequence),
		zap.Int("messages", len(msgs)),
	)

	return &subscription{msgs: msgs}, nil
}

// A subscription hands out the payloads of already received replies.
type subscription struct {
	msgs []genetlink.Message
}

func (s *subscription) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(s.msgs) == 0 {
		return nil, io.EOF
	}

	b := s.msgs[0].Data
	s.msgs = s.msgs[1:]
	return b, nil
}

func (s *subscription) Close() error {
	s.msgs = nil
	return nil
}
