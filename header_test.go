package ethtool_test

import (
	"errors"
	"testing"

	"github.com/ethnl/ethtool"
	"github.com/google/go-cmp/cmp"
)

func TestHeader(t *testing.T) {
	skipBigEndian(t)

	tests := []struct {
		name  string
		b     []byte
		attrs []ethtool.HeaderAttr
	}{
		{
			name: "empty",
		},
		{
			name: "index",
			b: []byte{
				0x08, 0x00,
				0x01, 0x00,
				0x0a, 0x00, 0x00, 0x00,
			},
			attrs: []ethtool.HeaderAttr{ethtool.DevIndex(10)},
		},
		{
			name: "name",
			b: []byte{
				0x0a, 0x00,
				0x02, 0x00,
				'w', 'l', 'a', 'n',
				'0', 0x00, 0x00, 0x00,
			},
			attrs: []ethtool.HeaderAttr{ethtool.DevName("wlan0")},
		},
		{
			name: "flags and unknown",
			b: []byte{
				0x08, 0x00,
				0x03, 0x00,
				0x05, 0x00, 0x00, 0x00,
				0x06, 0x00,
				0x07, 0x00,
				0xaa, 0xbb, 0x00, 0x00,
			},
			attrs: []ethtool.HeaderAttr{
				ethtool.FlagCompactBitsets | ethtool.FlagStats,
				ethtool.Unknown{Kind: 7, Data: []byte{0xaa, 0xbb}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ethtool.DecodeHeader(tt.b)
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}

			if diff := cmp.Diff(tt.attrs, attrs); diff != "" {
				t.Fatalf("unexpected attributes (-want +got):\n%s", diff)
			}

			b, err := ethtool.EncodeHeader(attrs)
			if err != nil {
				t.Fatalf("failed to encode: %v", err)
			}

			if diff := cmp.Diff(tt.b, b); diff != "" {
				t.Fatalf("unexpected bytes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeHeaderValues(t *testing.T) {
	skipBigEndian(t)

	tests := []struct {
		name  string
		b     []byte
		attrs []ethtool.HeaderAttr
	}{
		{
			name: "network byte order",
			b: []byte{
				// DEV_INDEX
				0x08, 0x00,
				0x01, 0x40,
				0x00, 0x00, 0x00, 0x02,
				// FLAGS
				0x08, 0x00,
				0x03, 0x40,
				0x00, 0x00, 0x00, 0x04,
			},
			attrs: []ethtool.HeaderAttr{
				ethtool.DevIndex(2),
				ethtool.FlagStats,
			},
		},
		{
			name: "name trailing NULs trimmed",
			b: []byte{
				0x0a, 0x00,
				0x02, 0x00,
				'e', 't', 'h', '0',
				0x00, 0x00, 0x00, 0x00,
			},
			attrs: []ethtool.HeaderAttr{
				ethtool.DevName("eth0"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ethtool.DecodeHeader(tt.b)
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}

			if diff := cmp.Diff(tt.attrs, attrs); diff != "" {
				t.Fatalf("unexpected attributes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	skipBigEndian(t)

	tests := []struct {
		name string
		b    []byte
		err  error
	}{
		{
			name: "short flags",
			b: []byte{
				0x05, 0x00,
				0x03, 0x00,
				0x01, 0x00, 0x00, 0x00,
			},
			err: ethtool.ErrInvalidLength,
		},
		{
			name: "trailing bytes",
			b: []byte{
				0x08, 0x00,
				0x01, 0x00,
				0x01, 0x00, 0x00, 0x00,
				0x01, 0x00,
			},
			err: ethtool.ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ethtool.DecodeHeader(tt.b)
			if !errors.Is(err, tt.err) {
				t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
					tt.err, err)
			}
		})
	}
}

func TestHeaderFirst(t *testing.T) {
	attrs := []ethtool.LinkStateAttr{
		ethtool.Link(true),
		ethtool.LinkStateHeader{ethtool.DevName("eth0")},
		ethtool.LinkStateHeader{ethtool.DevName("eth1")},
	}

	h, ok := ethtool.Header(attrs)
	if !ok {
		t.Fatal("expected a header")
	}

	if diff := cmp.Diff(ethtool.LinkStateHeader{ethtool.DevName("eth0")}, h); diff != "" {
		t.Fatalf("unexpected header (-want +got):\n%s", diff)
	}

	if _, ok := ethtool.Header(attrs[:1]); ok {
		t.Fatal("expected no header")
	}
}
