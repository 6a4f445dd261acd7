package ethtooltest_test

import (
	"context"
	"errors"
	"io"
	"syscall"
	"testing"

	"github.com/ethnl/ethtool"
	"github.com/ethnl/ethtool/ethtooltest"
	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/netlink"
)

func TestTransportSubscriptions(t *testing.T) {
	tr := ethtooltest.New(func(_ ethtooltest.Request) ([]ethtooltest.Reply, error) {
		return ethtooltest.Replies([]byte{0x01}, []byte{0x02}), nil
	})

	ctx := context.Background()
	a, err := tr.Send(ctx, ethtool.Command{}, netlink.Request, nil)
	if err != nil {
		t.Fatalf("failed to send: %v", err)
	}
	b, err := tr.Send(ctx, ethtool.Command{}, netlink.Request, nil)
	if err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	if diff := cmp.Diff(2, tr.Active()); diff != "" {
		t.Fatalf("unexpected active subscriptions (-want +got):\n%s", diff)
	}

	var got [][]byte
	for {
		p, err := a.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read reply: %v", err)
		}

		got = append(got, p)
	}

	if diff := cmp.Diff([][]byte{{0x01}, {0x02}}, got); diff != "" {
		t.Fatalf("unexpected replies (-want +got):\n%s", diff)
	}

	// Draining a subscription does not release it; only Close does.
	for _, s := range []ethtool.Subscription{a, a, b} {
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close subscription: %v", err)
		}
	}

	if diff := cmp.Diff(0, tr.Active()); diff != "" {
		t.Fatalf("unexpected active subscriptions (-want +got):\n%s", diff)
	}

	if _, err := b.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF after close, but got: %v", err)
	}
}

func TestTransportRequestCopied(t *testing.T) {
	var req ethtooltest.Request
	tr := ethtooltest.New(func(r ethtooltest.Request) ([]ethtooltest.Reply, error) {
		req = r
		return nil, nil
	})

	p := []byte{0x01, 0x02}
	cmd := ethtool.Command{ID: ethtool.CmdLinkStateGet, Version: ethtool.GenlVersion}
	if _, err := tr.Send(context.Background(), cmd, netlink.Request|netlink.Dump, p); err != nil {
		t.Fatalf("failed to send: %v", err)
	}
	p[0] = 0xff

	want := ethtooltest.Request{
		Command: cmd,
		Flags:   netlink.Request | netlink.Dump,
		Payload: []byte{0x01, 0x02},
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("unexpected request (-want +got):\n%s", diff)
	}
}

func TestTransportErrors(t *testing.T) {
	errNope := errors.New("nope")
	tr := ethtooltest.New(func(_ ethtooltest.Request) ([]ethtooltest.Reply, error) {
		return nil, errNope
	})

	ctx := context.Background()
	if _, err := tr.Send(ctx, ethtool.Command{}, netlink.Request, nil); !errors.Is(err, errNope) {
		t.Fatalf("expected Func error, but got: %v", err)
	}
	if diff := cmp.Diff(0, tr.Active()); diff != "" {
		t.Fatalf("unexpected active subscriptions (-want +got):\n%s", diff)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := tr.Send(canceled, ethtool.Command{}, netlink.Request, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, but got: %v", err)
	}

	_ = tr.Close()
	if _, err := tr.Send(ctx, ethtool.Command{}, netlink.Request, nil); err == nil {
		t.Fatal("expected an error after close, but none occurred")
	}
}

func TestError(t *testing.T) {
	err := ethtooltest.Error(int(syscall.EPERM))

	var oerr *netlink.OpError
	if !errors.As(err, &oerr) {
		t.Fatalf("expected *netlink.OpError, but got: %T", err)
	}

	if !errors.Is(err, syscall.EPERM) {
		t.Fatalf("expected EPERM, but got: %v", err)
	}
}

func TestMessage(t *testing.T) {
	b := ethtooltest.Message(
		ethtooltest.Interface(4, "wlan0"),
		ethtooltest.Link(true),
		ethtooltest.SQI(1),
		ethtooltest.SQIMax(2),
		ethtooltest.ExtState(ethtool.ExtStateOverheat),
		ethtooltest.ExtSubstate(3),
		ethtooltest.ExtDownCount(5),
	)

	attrs, err := ethtool.DecodeLinkState(b)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	want := []ethtool.LinkStateAttr{
		ethtool.LinkStateHeader{ethtool.DevIndex(4), ethtool.DevName("wlan0")},
		ethtool.Link(true),
		ethtool.SQI(1),
		ethtool.SQIMax(2),
		ethtool.ExtStateOverheat,
		ethtool.ExtSubstate(3),
		ethtool.ExtDownCount(5),
	}
	if diff := cmp.Diff(want, attrs); diff != "" {
		t.Fatalf("unexpected attributes (-want +got):\n%s", diff)
	}
}
