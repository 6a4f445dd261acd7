package ethtool_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ethnl/ethtool"
	"github.com/ethnl/ethtool/ethtooltest"
)

// This example demonstrates querying the link state of every interface on
// the system.
func ExampleDial() {
	c, err := ethtool.Dial(nil)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Fatal("ethtool netlink is not supported by this kernel")
		}
		log.Fatalf("failed to dial ethtool: %v", err)
	}
	defer c.Close()

	h := ethtool.NewHandle(c)

	ctx := context.Background()
	s, err := h.LinkState().Get("").Execute(ctx)
	if err != nil {
		log.Fatalf("failed to query link state: %v", err)
	}

	for attrs, err := range s.All(ctx) {
		if err != nil {
			// A malformed reply only affects itself.
			log.Printf("skipping reply: %v", err)
			continue
		}

		ls := ethtool.ParseLinkState(attrs)
		fmt.Printf("%s: up: %t\n", ls.Interface.Name, ls.Link)
	}
}

// This example demonstrates decoding the raw attributes of a link state reply.
func ExampleDecodeLinkState() {
	b := ethtooltest.Message(
		ethtooltest.Interface(2, "eth0"),
		ethtooltest.Link(false),
		ethtooltest.ExtState(ethtool.ExtStateNoCable),
		ethtool.Unknown{Kind: 100, Data: []byte{0xff}},
	)

	attrs, err := ethtool.DecodeLinkState(b)
	if err != nil {
		log.Fatalf("failed to decode: %v", err)
	}

	for _, a := range attrs {
		switch a := a.(type) {
		case ethtool.LinkStateHeader:
			fmt.Printf("header: %d attributes\n", len(a))
		case ethtool.Link:
			fmt.Printf("link: %t\n", a)
		case ethtool.ExtState:
			fmt.Printf("reason: %s\n", a)
		case ethtool.Unknown:
			fmt.Printf("unknown: %d\n", a.Kind)
		}
	}

	// Output:
	// header: 2 attributes
	// link: false
	// reason: No cable
	// unknown: 100
}

// This example demonstrates serving link state queries from a test transport.
func ExampleLinkStateRequest_LinkStates() {
	h, _ := ethtooltest.Dial(func(req ethtooltest.Request) ([]ethtooltest.Reply, error) {
		return ethtooltest.Replies(
			ethtooltest.Message(
				ethtooltest.Interface(1, "lo"),
				ethtooltest.Link(true),
			),
			ethtooltest.Message(
				ethtooltest.Interface(2, "eth0"),
				ethtooltest.Link(true),
				ethtooltest.SQI(5),
				ethtooltest.SQIMax(7),
			),
		), nil
	})

	lss, err := h.LinkState().Get("").LinkStates(context.Background())
	if err != nil {
		log.Fatalf("failed to get link states: %v", err)
	}

	for _, ls := range lss {
		if ls.SQI == nil {
			fmt.Printf("%s: up: %t\n", ls.Interface.Name, ls.Link)
			continue
		}

		fmt.Printf("%s: up: %t, sqi: %d/%d\n", ls.Interface.Name, ls.Link, *ls.SQI, *ls.SQIMax)
	}

	// Output:
	// lo: up: true
	// eth0: up: true, sqi: 5/7
}
