package ethtool

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mdlayher/netlink/nlenc"
)

// A Kind is the 16-bit type field of a netlink attribute.  The two leftmost
// bits are flags which describe the payload; Type reports the kind with
// those bits cleared.
type Kind uint16

// Flag bits which may be set in a Kind.
const (
	// KindNested indicates that an attribute's payload is itself a sequence
	// of attributes.
	KindNested Kind = 0x8000

	// KindNetByteOrder indicates that an attribute's payload is stored in
	// network byte order.  Mutually exclusive with KindNested.
	KindNetByteOrder Kind = 0x4000

	kindTypeMask = ^(KindNested | KindNetByteOrder)
)

// Type masks off the flag bits of k.  Only the 14 rightmost bits are used.
func (k Kind) Type() Kind { return k & kindTypeMask }

// IsNested reports whether k carries the KindNested flag.
func (k Kind) IsNested() bool { return k&KindNested != 0 }

// IsNetByteOrder reports whether k carries the KindNetByteOrder flag.
func (k Kind) IsNetByteOrder() bool { return k&KindNetByteOrder != 0 }

const (
	// nlaHeaderLen is the length of the length and kind fields of a record.
	nlaHeaderLen = 4

	// nlaAlignTo is the alignment unit of record payloads.
	nlaAlignTo = 4

	// maxPayloadLen is the largest payload a record length field can describe.
	maxPayloadLen = math.MaxUint16 - nlaHeaderLen
)

// nlaAlign returns n rounded up to the attribute alignment unit.
func nlaAlign(n int) int {
	return (n + nlaAlignTo - 1) &^ (nlaAlignTo - 1)
}

// A record is a single undecoded attribute: its full kind, flags included,
// and a private copy of its payload.
type record struct {
	Kind Kind
	Data []byte
}

// parseRecords splits b into its attribute records in buffer order.  name
// resolves kinds to names for error reporting.
//
// The final record may omit its trailing padding, as the kernel does.
func parseRecords(b []byte, name func(Kind) string) ([]record, error) {
	var rs []record
	for i := 0; i < len(b); {
		rest := b[i:]
		if len(rest) < nlaHeaderLen {
			return nil, &DecodeError{
				Err:    ErrTruncated,
				Detail: fmt.Sprintf("%d trailing bytes cannot hold a record header", len(rest)),
			}
		}

		l := int(nlenc.Uint16(rest[0:2]))
		k := Kind(nlenc.Uint16(rest[2:4]))
		f := Frame{Kind: k, Name: name(k)}

		switch {
		case l < nlaHeaderLen:
			return nil, newDecodeError(f, ErrInvalidLength,
				fmt.Sprintf("declared length %d is shorter than a record header", l))
		case l > len(rest):
			return nil, newDecodeError(f, ErrTruncated,
				fmt.Sprintf("declared length %d, only %d bytes remain", l, len(rest)))
		}

		var data []byte
		if l > nlaHeaderLen {
			data = make([]byte, l-nlaHeaderLen)
			copy(data, rest[nlaHeaderLen:l])
		}
		rs = append(rs, record{Kind: k, Data: data})

		i += min(nlaAlign(l), len(rest))
	}

	return rs, nil
}

// appendRecord appends a single record with kind k and payload data to b,
// followed by zero padding to the alignment unit.
func appendRecord(b []byte, k Kind, data []byte) ([]byte, error) {
	if len(data) > maxPayloadLen {
		return nil, fmt.Errorf("%w: kind %d carries %d bytes, max %d",
			ErrTooLarge, k.Type(), len(data), maxPayloadLen)
	}

	l := nlaHeaderLen + len(data)

	var hdr [nlaHeaderLen]byte
	nlenc.PutUint16(hdr[0:2], uint16(l))
	nlenc.PutUint16(hdr[2:4], uint16(k))

	b = append(b, hdr[:]...)
	b = append(b, data...)
	return append(b, make([]byte, nlaAlign(l)-l)...), nil
}

// fixedLength validates that a fixed-width payload is exactly n bytes.
func fixedLength(r record, name func(Kind) string, n int) error {
	if len(r.Data) == n {
		return nil
	}

	return newDecodeError(Frame{Kind: r.Kind, Name: name(r.Kind)}, ErrInvalidLength,
		fmt.Sprintf("want %d bytes, got %d", n, len(r.Data)))
}

// uint32Value decodes a 4 byte record, honoring KindNetByteOrder.
func uint32Value(r record, name func(Kind) string) (uint32, error) {
	if err := fixedLength(r, name, 4); err != nil {
		return 0, err
	}

	if r.Kind.IsNetByteOrder() {
		return binary.BigEndian.Uint32(r.Data), nil
	}

	return nlenc.Uint32(r.Data), nil
}
