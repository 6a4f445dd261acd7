package collector_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethnl/ethtool"
	"github.com/ethnl/ethtool/collector"
	"github.com/ethnl/ethtool/ethtooltest"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	replies := func(_ ethtooltest.Request) ([]ethtooltest.Reply, error) {
		return ethtooltest.Replies(
			ethtooltest.Message(
				ethtooltest.Interface(1, "lo"),
				ethtooltest.Link(true),
			),
			ethtooltest.Message(
				ethtooltest.Interface(2, "eth0"),
				ethtooltest.Link(false),
				ethtooltest.ExtState(ethtool.ExtStateNoCable),
				ethtooltest.ExtSubstate(2),
				ethtooltest.ExtDownCount(3),
			),
			// Malformed replies are skipped.
			ethtooltest.Message(
				ethtooltest.Interface(4, "bad0"),
				ethtool.Unknown{Kind: 2, Data: []byte{0x02}},
			),
			ethtooltest.Message(
				ethtooltest.Interface(3, "eth1"),
				ethtooltest.Link(true),
				ethtooltest.SQI(5),
				ethtooltest.SQIMax(7),
			),
		), nil
	}

	tests := []struct {
		name string
		fn   ethtooltest.Func
		opts []collector.Option
		want string
	}{
		{
			name: "all interfaces",
			fn:   replies,
			want: `
# HELP ethtool_link_down_events_total Number of link down events since the driver was loaded.
# TYPE ethtool_link_down_events_total counter
ethtool_link_down_events_total{device="eth0"} 3
# HELP ethtool_link_ext_state_info Extended reason an interface's link is down.
# TYPE ethtool_link_ext_state_info gauge
ethtool_link_ext_state_info{device="eth0",state="No cable"} 1
# HELP ethtool_link_ext_substate Driver specific refinement of the extended link down reason.
# TYPE ethtool_link_ext_substate gauge
ethtool_link_ext_substate{device="eth0"} 2
# HELP ethtool_link_scrape_success Whether the last link state query succeeded.
# TYPE ethtool_link_scrape_success gauge
ethtool_link_scrape_success 1
# HELP ethtool_link_sqi Signal quality index of the link.
# TYPE ethtool_link_sqi gauge
ethtool_link_sqi{device="eth1"} 5
# HELP ethtool_link_sqi_max Maximum signal quality index the link can report.
# TYPE ethtool_link_sqi_max gauge
ethtool_link_sqi_max{device="eth1"} 7
# HELP ethtool_link_up Whether the link of an interface is up.
# TYPE ethtool_link_up gauge
ethtool_link_up{device="eth0"} 0
ethtool_link_up{device="eth1"} 1
ethtool_link_up{device="lo"} 1
`,
		},
		{
			name: "filtered",
			fn:   replies,
			opts: []collector.Option{
				collector.WithNamespace("node_ethtool"),
				collector.WithInterfaces("eth1"),
			},
			want: `
# HELP node_ethtool_link_scrape_success Whether the last link state query succeeded.
# TYPE node_ethtool_link_scrape_success gauge
node_ethtool_link_scrape_success 1
# HELP node_ethtool_link_sqi Signal quality index of the link.
# TYPE node_ethtool_link_sqi gauge
node_ethtool_link_sqi{device="eth1"} 5
# HELP node_ethtool_link_sqi_max Maximum signal quality index the link can report.
# TYPE node_ethtool_link_sqi_max gauge
node_ethtool_link_sqi_max{device="eth1"} 7
# HELP node_ethtool_link_up Whether the link of an interface is up.
# TYPE node_ethtool_link_up gauge
node_ethtool_link_up{device="eth1"} 1
`,
		},
		{
			name: "query failed",
			fn: func(_ ethtooltest.Request) ([]ethtooltest.Reply, error) {
				return nil, errors.New("no ethtool")
			},
			want: `
# HELP ethtool_link_scrape_success Whether the last link state query succeeded.
# TYPE ethtool_link_scrape_success gauge
ethtool_link_scrape_success 0
`,
		},
		{
			name: "receive failed",
			fn: func(_ ethtooltest.Request) ([]ethtooltest.Reply, error) {
				return []ethtooltest.Reply{
					{Data: ethtooltest.Message(ethtooltest.Interface(1, "lo"), ethtooltest.Link(true))},
					{Err: errors.New("socket closed")},
				}, nil
			},
			want: `
# HELP ethtool_link_scrape_success Whether the last link state query succeeded.
# TYPE ethtool_link_scrape_success gauge
ethtool_link_scrape_success 0
# HELP ethtool_link_up Whether the link of an interface is up.
# TYPE ethtool_link_up gauge
ethtool_link_up{device="lo"} 1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, tr := ethtooltest.Dial(tt.fn)
			c := collector.New(h, tt.opts...)

			if err := testutil.CollectAndCompare(c, strings.NewReader(tt.want)); err != nil {
				t.Fatalf("unexpected metrics:\n%v", err)
			}

			if n := tr.Active(); n != 0 {
				t.Fatalf("expected no active subscriptions, but got: %d", n)
			}
		})
	}
}
