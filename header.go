package ethtool

import (
	"github.com/mdlayher/netlink/nlenc"
)

// Header attribute kinds, nested inside the header attribute of every
// ethtool request and reply.
const (
	headerUnspec   Kind = 0
	headerDevIndex Kind = 1
	headerDevName  Kind = 2
	headerFlags    Kind = 3
)

// Request flags which may be set in a HeaderFlags attribute.
const (
	// FlagCompactBitsets requests bitsets in their compact form.
	FlagCompactBitsets HeaderFlags = 1 << 0

	// FlagOmitReply suppresses the reply to a set request.
	FlagOmitReply HeaderFlags = 1 << 1

	// FlagStats requests statistics in addition to regular data.
	FlagStats HeaderFlags = 1 << 2
)

// A HeaderAttr is one attribute of the header sub-structure: a DevIndex,
// DevName, HeaderFlags, or Unknown.
type HeaderAttr interface {
	headerKind() Kind
	appendAttr(b []byte) ([]byte, error)
}

// DevIndex identifies an interface by its index.
type DevIndex uint32

// DevName identifies an interface by its name.  It is encoded with a
// trailing NUL, and decoding trims every trailing NUL, so a DevName which
// itself ends in NUL bytes does not survive a round trip.
type DevName string

// HeaderFlags is a bitmask of request flags.
type HeaderFlags uint32

var (
	_ HeaderAttr = DevIndex(0)
	_ HeaderAttr = DevName("")
	_ HeaderAttr = HeaderFlags(0)
	_ HeaderAttr = Unknown{}
)

func (DevIndex) headerKind() Kind    { return headerDevIndex }
func (DevName) headerKind() Kind     { return headerDevName }
func (HeaderFlags) headerKind() Kind { return headerFlags }

func (v DevIndex) appendAttr(b []byte) ([]byte, error) {
	return appendRecord(b, headerDevIndex, nlenc.Uint32Bytes(uint32(v)))
}

func (v DevName) appendAttr(b []byte) ([]byte, error) {
	return appendRecord(b, headerDevName, nlenc.Bytes(string(v)))
}

func (v HeaderFlags) appendAttr(b []byte) ([]byte, error) {
	return appendRecord(b, headerFlags, nlenc.Uint32Bytes(uint32(v)))
}

// headerKindName returns the protocol name of a header attribute kind.
func headerKindName(k Kind) string {
	switch k.Type() {
	case headerUnspec:
		return "HEADER_UNSPEC"
	case headerDevIndex:
		return "HEADER_DEV_INDEX"
	case headerDevName:
		return "HEADER_DEV_NAME"
	case headerFlags:
		return "HEADER_FLAGS"
	default:
		return "HEADER_UNKNOWN"
	}
}

// DecodeHeader decodes the payload of a header attribute into its
// sub-attributes, preserving their order.
func DecodeHeader(b []byte) ([]HeaderAttr, error) {
	rs, err := parseRecords(b, headerKindName)
	if err != nil {
		return nil, err
	}

	var attrs []HeaderAttr
	for _, r := range rs {
		a, err := decodeHeaderAttr(r)
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, a)
	}

	return attrs, nil
}

// decodeHeaderAttr decodes a single header record.
func decodeHeaderAttr(r record) (HeaderAttr, error) {
	switch r.Kind.Type() {
	case headerDevIndex:
		v, err := uint32Value(r, headerKindName)
		if err != nil {
			return nil, err
		}
		return DevIndex(v), nil
	case headerDevName:
		return DevName(nlenc.String(r.Data)), nil
	case headerFlags:
		v, err := uint32Value(r, headerKindName)
		if err != nil {
			return nil, err
		}
		return HeaderFlags(v), nil
	default:
		return Unknown(r), nil
	}
}

// EncodeHeader encodes header sub-attributes in order.  The result is the
// payload of a header attribute.
func EncodeHeader(attrs []HeaderAttr) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	for _, a := range attrs {
		if b, err = a.appendAttr(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// An Interface identifies a network interface by index, name, or both.
type Interface struct {
	Index int
	Name  string
}

// header builds the header sub-attributes which identify ifi.  A zero
// Interface produces no attributes, which requests every interface.
func (ifi Interface) header() []HeaderAttr {
	var attrs []HeaderAttr
	if ifi.Index > 0 {
		attrs = append(attrs, DevIndex(ifi.Index))
	}
	if ifi.Name != "" {
		attrs = append(attrs, DevName(ifi.Name))
	}

	return attrs
}

// interfaceOf extracts the first-seen interface identity from a header.
func interfaceOf(attrs []HeaderAttr) Interface {
	var (
		ifi          Interface
		seenI, seenN bool
	)
	for _, a := range attrs {
		switch a := a.(type) {
		case DevIndex:
			if !seenI {
				ifi.Index, seenI = int(a), true
			}
		case DevName:
			if !seenN {
				ifi.Name, seenN = string(a), true
			}
		}
	}

	return ifi
}
