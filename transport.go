package ethtool

import (
	"context"

	"github.com/mdlayher/netlink"
)

// The generic netlink family name and version of ethtool.
const (
	familyName  = "ethtool"
	GenlVersion = 1
)

// Commands understood by the ethtool family.
const (
	CmdLinkStateGet = 6
)

// A Command identifies an ethtool generic netlink command.
type Command struct {
	ID      uint8
	Version uint8
}

// A Transport delivers ethtool requests to the kernel.  Conn is the Linux
// implementation; package ethtooltest provides one for tests.
type Transport interface {
	// Send submits a request with the specified command, netlink header
	// flags and attribute payload.  The returned Subscription yields the
	// payload of each reply message in the order the kernel emitted them.
	Send(ctx context.Context, cmd Command, flags netlink.HeaderFlags, payload []byte) (Subscription, error)
}

// A Subscription yields the reply payloads of a single request.
type Subscription interface {
	// Next returns the payload of the next reply.  It returns io.EOF once
	// the final message of a multi-part reply has been delivered.
	Next(ctx context.Context) ([]byte, error)

	// Close releases any resources associated with the request.  It is
	// safe to call Close before all replies have been consumed.
	Close() error
}
