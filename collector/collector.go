// Package collector exports ethtool link state as Prometheus metrics.
package collector

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ethnl/ethtool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "ethtool").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Interfaces restricts the exported interfaces by name.  All
	// interfaces are exported when empty.
	Interfaces []string

	// Timeout bounds each link state query (default: 5s).
	Timeout time.Duration

	// Logger receives query failures (default: no logging).
	Logger *zap.Logger
}

// An Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithInterfaces restricts the exported interfaces.
func WithInterfaces(names ...string) Option {
	return func(c *Config) {
		c.Interfaces = names
	}
}

// WithTimeout sets the timeout of each link state query.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithLogger sets the logger used to report query failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "ethtool",
		Timeout:   5 * time.Second,
		Logger:    zap.NewNop(),
	}
}

var _ prometheus.Collector = &Collector{}

// A Collector is a prometheus.Collector which queries the link state of
// every interface on each scrape.
type Collector struct {
	h   *ethtool.Handle
	cfg Config

	// Scrapes are serialized so that slow queries don't pile up.
	mu sync.Mutex

	up, sqi, sqiMax, downs, extState, extSubstate, success *prometheus.Desc
}

// New creates a Collector which sends queries using h.
func New(h *ethtool.Handle, opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, "link", name),
			help,
			labels,
			cfg.ConstLabels,
		)
	}

	return &Collector{
		h:   h,
		cfg: cfg,

		up: desc("up",
			"Whether the link of an interface is up.",
			"device"),
		sqi: desc("sqi",
			"Signal quality index of the link.",
			"device"),
		sqiMax: desc("sqi_max",
			"Maximum signal quality index the link can report.",
			"device"),
		downs: desc("down_events_total",
			"Number of link down events since the driver was loaded.",
			"device"),
		extState: desc("ext_state_info",
			"Extended reason an interface's link is down.",
			"device", "state"),
		extSubstate: desc("ext_substate",
			"Driver specific refinement of the extended link down reason.",
			"device"),
		success: desc("scrape_success",
			"Whether the last link state query succeeded.",
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ds := []*prometheus.Desc{
		c.up,
		c.sqi,
		c.sqiMax,
		c.downs,
		c.extState,
		c.extSubstate,
		c.success,
	}

	for _, d := range ds {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	success := 1.0
	if err := c.collect(ctx, ch); err != nil {
		c.cfg.Logger.Warn("failed to query link state", zap.Error(err))
		success = 0
	}

	ch <- prometheus.MustNewConstMetric(c.success, prometheus.GaugeValue, success)
}

// collect sends a dump request and exports every reply.  A malformed reply
// is skipped.
func (c *Collector) collect(ctx context.Context, ch chan<- prometheus.Metric) error {
	s, err := c.h.LinkState().Get("").Execute(ctx)
	if err != nil {
		return err
	}

	for attrs, err := range s.All(ctx) {
		if err != nil {
			var derr *ethtool.DecodeError
			if errors.As(err, &derr) {
				c.cfg.Logger.Warn("skipping malformed link state reply", zap.Error(err))
				continue
			}

			return err
		}

		ls := ethtool.ParseLinkState(attrs)
		if !c.exported(ls.Interface.Name) {
			continue
		}

		c.export(ch, ls)
	}

	return nil
}

func (c *Collector) exported(name string) bool {
	if name == "" {
		return false
	}

	return len(c.cfg.Interfaces) == 0 || slices.Contains(c.cfg.Interfaces, name)
}

// export emits the metrics of a single interface.  Attributes the kernel did
// not report produce no metric.
func (c *Collector) export(ch chan<- prometheus.Metric, ls ethtool.LinkState) {
	device := ls.Interface.Name

	up := 0.0
	if ls.Link {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, device)

	if ls.SQI != nil {
		ch <- prometheus.MustNewConstMetric(c.sqi, prometheus.GaugeValue, float64(*ls.SQI), device)
	}
	if ls.SQIMax != nil {
		ch <- prometheus.MustNewConstMetric(c.sqiMax, prometheus.GaugeValue, float64(*ls.SQIMax), device)
	}
	if ls.ExtDownCount != nil {
		ch <- prometheus.MustNewConstMetric(c.downs, prometheus.CounterValue, float64(*ls.ExtDownCount), device)
	}

	if ls.ExtState != nil {
		ch <- prometheus.MustNewConstMetric(c.extState, prometheus.GaugeValue, 1,
			device, ls.ExtState.String())
	}
	if ls.ExtSubstate != nil {
		ch <- prometheus.MustNewConstMetric(c.extSubstate, prometheus.GaugeValue, float64(*ls.ExtSubstate), device)
	}
}
