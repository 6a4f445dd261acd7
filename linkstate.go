package ethtool

import "fmt"

// Link state attribute kinds.
const (
	linkStateUnspec      Kind = 0
	linkStateHeader      Kind = 1
	linkStateLink        Kind = 2
	linkStateSQI         Kind = 3
	linkStateSQIMax      Kind = 4
	linkStateExtState    Kind = 5
	linkStateExtSubstate Kind = 6
	linkStateExtDownCnt  Kind = 7
)

// A LinkStateAttr is one attribute of a link state message.  The concrete
// types are LinkStateHeader, Link, SQI, SQIMax, ExtState, ExtSubstate,
// ExtDownCount, and Unknown.
type LinkStateAttr interface {
	linkStateKind() Kind
}

// A LinkStateEmitter is a LinkStateAttr which can be encoded into a request.
// The kernel only reports the remaining link state attributes, so only
// LinkStateHeader and Unknown implement LinkStateEmitter.
type LinkStateEmitter interface {
	LinkStateAttr
	appendAttr(b []byte) ([]byte, error)
}

type (
	// LinkStateHeader identifies the interface a link state message
	// concerns.
	LinkStateHeader []HeaderAttr

	// Link reports whether the link is up.
	Link bool

	// SQI is the signal quality index of the link.
	SQI uint32

	// SQIMax is the maximum value SQI can report.
	SQIMax uint32

	// ExtState is the extended reason a link is down.
	ExtState uint8

	// ExtSubstate refines ExtState.  Its meaning depends on ExtState.
	ExtSubstate uint8

	// ExtDownCount counts link down events since the driver loaded.
	ExtDownCount uint32
)

// An Unknown is an attribute of a kind this package does not interpret.
// Its Kind, flags included, and Data are kept verbatim so it re-encodes to
// its original bytes.
//
// An Unknown may also be built with a kind this package does interpret, to
// encode raw reply attributes for tests.  Such an attribute decodes as its
// typed variant, for example Unknown{Kind: 2, Data: []byte{1}} decodes as
// Link(true), so decoding only reproduces an Unknown for uninterpreted kinds.
type Unknown struct {
	Kind Kind
	Data []byte
}

var (
	_ LinkStateEmitter = LinkStateHeader(nil)
	_ LinkStateEmitter = Unknown{}

	_ LinkStateAttr = Link(false)
	_ LinkStateAttr = SQI(0)
	_ LinkStateAttr = SQIMax(0)
	_ LinkStateAttr = ExtState(0)
	_ LinkStateAttr = ExtSubstate(0)
	_ LinkStateAttr = ExtDownCount(0)
)

func (LinkStateHeader) linkStateKind() Kind { return linkStateHeader | KindNested }
func (Link) linkStateKind() Kind            { return linkStateLink }
func (SQI) linkStateKind() Kind             { return linkStateSQI }
func (SQIMax) linkStateKind() Kind          { return linkStateSQIMax }
func (ExtState) linkStateKind() Kind        { return linkStateExtState }
func (ExtSubstate) linkStateKind() Kind     { return linkStateExtSubstate }
func (ExtDownCount) linkStateKind() Kind    { return linkStateExtDownCnt }
func (u Unknown) linkStateKind() Kind       { return u.Kind }
func (u Unknown) headerKind() Kind          { return u.Kind }

func (h LinkStateHeader) appendAttr(b []byte) ([]byte, error) {
	payload, err := EncodeHeader(h)
	if err != nil {
		return nil, err
	}

	return appendRecord(b, h.linkStateKind(), payload)
}

func (u Unknown) appendAttr(b []byte) ([]byte, error) {
	return appendRecord(b, u.Kind, u.Data)
}

// linkStateKindName returns the protocol name of a link state attribute kind.
func linkStateKindName(k Kind) string {
	switch k.Type() {
	case linkStateUnspec:
		return "LINKSTATE_UNSPEC"
	case linkStateHeader:
		return "LINKSTATE_HEADER"
	case linkStateLink:
		return "LINKSTATE_LINK"
	case linkStateSQI:
		return "LINKSTATE_SQI"
	case linkStateSQIMax:
		return "LINKSTATE_SQI_MAX"
	case linkStateExtState:
		return "LINKSTATE_EXT_STATE"
	case linkStateExtSubstate:
		return "LINKSTATE_EXT_SUBSTATE"
	case linkStateExtDownCnt:
		return "LINKSTATE_EXT_DOWN_CNT"
	default:
		return "LINKSTATE_UNKNOWN"
	}
}

// DecodeLinkState decodes the attributes of a single link state message.
// Attributes are returned in buffer order; duplicates are kept.  An empty
// buffer decodes to no attributes.
func DecodeLinkState(b []byte) ([]LinkStateAttr, error) {
	rs, err := parseRecords(b, linkStateKindName)
	if err != nil {
		return nil, err
	}

	var attrs []LinkStateAttr
	for _, r := range rs {
		a, err := decodeLinkStateAttr(r)
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, a)
	}

	return attrs, nil
}

// decodeLinkStateAttr decodes a single link state record.
func decodeLinkStateAttr(r record) (LinkStateAttr, error) {
	f := Frame{Kind: r.Kind, Name: linkStateKindName(r.Kind)}

	switch r.Kind.Type() {
	case linkStateHeader:
		h, err := DecodeHeader(r.Data)
		if err != nil {
			return nil, within(f, err)
		}
		return LinkStateHeader(h), nil
	case linkStateLink:
		if err := fixedLength(r, linkStateKindName, 1); err != nil {
			return nil, err
		}
		switch r.Data[0] {
		case 0:
			return Link(false), nil
		case 1:
			return Link(true), nil
		default:
			return nil, newDecodeError(f, ErrInvalidValue,
				fmt.Sprintf("boolean byte must be 0 or 1, got %#02x", r.Data[0]))
		}
	case linkStateSQI, linkStateSQIMax, linkStateExtDownCnt:
		v, err := uint32Value(r, linkStateKindName)
		if err != nil {
			return nil, err
		}

		switch r.Kind.Type() {
		case linkStateSQI:
			return SQI(v), nil
		case linkStateSQIMax:
			return SQIMax(v), nil
		default:
			return ExtDownCount(v), nil
		}
	case linkStateExtState, linkStateExtSubstate:
		if err := fixedLength(r, linkStateKindName, 1); err != nil {
			return nil, err
		}

		if r.Kind.Type() == linkStateExtState {
			return ExtState(r.Data[0]), nil
		}
		return ExtSubstate(r.Data[0]), nil
	default:
		return Unknown(r), nil
	}
}

// EncodeLinkState encodes link state attributes in order.
func EncodeLinkState(attrs ...LinkStateEmitter) ([]byte, error) {
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

// Emitters narrows decoded attributes to those which can be encoded.  It
// returns an error wrapping ErrNotImplemented naming the first attribute
// which the kernel only reports.
func Emitters(attrs []LinkStateAttr) ([]LinkStateEmitter, error) {
	es := make([]LinkStateEmitter, 0, len(attrs))
	for _, a := range attrs {
		e, ok := a.(LinkStateEmitter)
		if !ok {
			k := a.linkStateKind()
			return nil, fmt.Errorf("%w: %s(%d) is read-only",
				ErrNotImplemented, linkStateKindName(k), k.Type())
		}

		es = append(es, e)
	}

	return es, nil
}

// Header returns the first header in attrs, if any.
func Header(attrs []LinkStateAttr) (LinkStateHeader, bool) {
	for _, a := range attrs {
		if h, ok := a.(LinkStateHeader); ok {
			return h, true
		}
	}

	return nil, false
}

// A LinkState is the typed summary of one link state message.  Optional
// fields are nil when the kernel did not report them.  When a kind occurs
// more than once, the first value wins.
type LinkState struct {
	Interface    Interface
	Link         bool
	SQI          *uint32
	SQIMax       *uint32
	ExtState     *ExtState
	ExtSubstate  *uint8
	ExtDownCount *uint32

	// Unknown holds attributes this package does not interpret.
	Unknown []Unknown
}

// ParseLinkState summarizes the attributes of one link state message.
func ParseLinkState(attrs []LinkStateAttr) LinkState {
	var (
		ls             LinkState
		seenHdr, seenL bool
	)
	for _, a := range attrs {
		switch a := a.(type) {
		case LinkStateHeader:
			if !seenHdr {
				ls.Interface, seenHdr = interfaceOf(a), true
			}
		case Link:
			if !seenL {
				ls.Link, seenL = bool(a), true
			}
		case SQI:
			firstUint32(&ls.SQI, uint32(a))
		case SQIMax:
			firstUint32(&ls.SQIMax, uint32(a))
		case ExtDownCount:
			firstUint32(&ls.ExtDownCount, uint32(a))
		case ExtState:
			if ls.ExtState == nil {
				ls.ExtState = &a
			}
		case ExtSubstate:
			if ls.ExtSubstate == nil {
				v := uint8(a)
				ls.ExtSubstate = &v
			}
		case Unknown:
			ls.Unknown = append(ls.Unknown, a)
		}
	}

	return ls
}

func firstUint32(dst **uint32, v uint32) {
	if *dst == nil {
		*dst = &v
	}
}

// Extended link down reasons.
const (
	ExtStateAutoneg ExtState = iota
	ExtStateLinkTrainingFailure
	ExtStateLinkLogicalMismatch
	ExtStateBadSignalIntegrity
	ExtStateNoCable
	ExtStateCableIssue
	ExtStateEEPROMIssue
	ExtStateCalibrationFailure
	ExtStatePowerBudgetExceeded
	ExtStateOverheat
	ExtStateModule
)

// String implements fmt.Stringer.
func (s ExtState) String() string {
	switch s {
	case ExtStateAutoneg:
		return "Autoneg"
	case ExtStateLinkTrainingFailure:
		return "Link training failure"
	case ExtStateLinkLogicalMismatch:
		return "Logical mismatch"
	case ExtStateBadSignalIntegrity:
		return "Bad signal integrity"
	case ExtStateNoCable:
		return "No cable"
	case ExtStateCableIssue:
		return "Cable issue"
	case ExtStateEEPROMIssue:
		return "EEPROM issue"
	case ExtStateCalibrationFailure:
		return "Calibration failure"
	case ExtStatePowerBudgetExceeded:
		return "Power budget exceeded"
	case ExtStateOverheat:
		return "Overheat"
	case ExtStateModule:
		return "Module"
	default:
		return fmt.Sprintf("ExtState(%d)", uint8(s))
	}
}
