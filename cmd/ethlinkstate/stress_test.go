package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethnl/ethtool/ethtooltest"
)

func TestStressStopsOnError(t *testing.T) {
	errBoom := errors.New("boom")

	var calls atomic.Int64
	n, err := stress(context.Background(), 4, func(_ context.Context) error {
		if calls.Add(1) > 100 {
			return errBoom
		}
		return nil
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom error, but got: %v", err)
	}

	if n < 100 {
		t.Fatalf("expected at least 100 completed calls, but got: %d", n)
	}
}

func TestStressWork(t *testing.T) {
	h, tr := ethtooltest.Dial(func(_ ethtooltest.Request) ([]ethtooltest.Reply, error) {
		return ethtooltest.Replies(
			ethtooltest.Message(ethtooltest.Interface(1, "lo"), ethtooltest.Link(true)),
		), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	n, err := stress(ctx, 2, func(ctx context.Context) error {
		return work(ctx, h)
	})
	if err != nil {
		t.Fatalf("failed to stress: %v", err)
	}
	if n == 0 {
		t.Fatal("expected completed calls")
	}

	if a := tr.Active(); a != 0 {
		t.Fatalf("expected no active subscriptions, but got: %d", a)
	}
}
