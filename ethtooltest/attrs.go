package ethtooltest

import (
	"fmt"

	"github.com/ethnl/ethtool"
	"github.com/mdlayher/netlink/nlenc"
)

// Link state attribute kinds, as the kernel numbers them.
const (
	kindLink         ethtool.Kind = 2
	kindSQI          ethtool.Kind = 3
	kindSQIMax       ethtool.Kind = 4
	kindExtState     ethtool.Kind = 5
	kindExtSubstate  ethtool.Kind = 6
	kindExtDownCount ethtool.Kind = 7
)

// The ethtool package only emits attributes which a request may carry.  The
// helpers below build the kernel's reply attributes as raw records so tests
// can fabricate replies.

// Link returns a raw LINKSTATE_LINK attribute.
func Link(up bool) ethtool.Unknown {
	var b byte
	if up {
		b = 1
	}

	return ethtool.Unknown{Kind: kindLink, Data: []byte{b}}
}

// SQI returns a raw LINKSTATE_SQI attribute.
func SQI(v uint32) ethtool.Unknown {
	return ethtool.Unknown{Kind: kindSQI, Data: nlenc.Uint32Bytes(v)}
}

// SQIMax returns a raw LINKSTATE_SQI_MAX attribute.
func SQIMax(v uint32) ethtool.Unknown {
	return ethtool.Unknown{Kind: kindSQIMax, Data: nlenc.Uint32Bytes(v)}
}

// ExtState returns a raw LINKSTATE_EXT_STATE attribute.
func ExtState(v ethtool.ExtState) ethtool.Unknown {
	return ethtool.Unknown{Kind: kindExtState, Data: []byte{uint8(v)}}
}

// ExtSubstate returns a raw LINKSTATE_EXT_SUBSTATE attribute.
func ExtSubstate(v uint8) ethtool.Unknown {
	return ethtool.Unknown{Kind: kindExtSubstate, Data: []byte{v}}
}

// ExtDownCount returns a raw LINKSTATE_EXT_DOWN_CNT attribute.
func ExtDownCount(v uint32) ethtool.Unknown {
	return ethtool.Unknown{Kind: kindExtDownCount, Data: nlenc.Uint32Bytes(v)}
}

// Message encodes attrs as the payload of one reply message.  It panics if
// the attributes cannot be encoded.
func Message(attrs ...ethtool.LinkStateEmitter) []byte {
	b, err := ethtool.EncodeLinkState(attrs...)
	if err != nil {
		panic(fmt.Sprintf("ethtooltest: failed to encode message: %v", err))
	}

	return b
}

// Interface returns the reply header for the named interface.
func Interface(index int, name string) ethtool.LinkStateHeader {
	return ethtool.LinkStateHeader{
		ethtool.DevIndex(index),
		ethtool.DevName(name),
	}
}
