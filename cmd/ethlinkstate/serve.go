package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethnl/ethtool"
	"github.com/ethnl/ethtool/collector"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd(g *globals) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve link state over HTTP",
		Long: `Serve link state as Prometheus metrics on /metrics and as JSON
on /v1/links.

Examples:
  ethlinkstate serve
  ethlinkstate serve --listen :9417 -c /etc/ethlinkstate.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				g.cfg.Listen = listen
			}

			c, h, err := g.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, g.log, g.cfg, newRouter(h, g.cfg, g.log))
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config, :9417)")

	return cmd
}

// runServe serves handler until ctx is canceled.
func runServe(ctx context.Context, log *zap.Logger, cfg config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Info("serving link state", zap.String("listen", cfg.Listen))
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errC; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// newRouter creates the HTTP routes of the serve command.
func newRouter(h *ethtool.Handle, cfg config, log *zap.Logger) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collector.New(h,
			collector.WithInterfaces(cfg.Interfaces...),
			collector.WithTimeout(cfg.Timeout),
			collector.WithLogger(log.Named("collector")),
		),
	)

	s := &server{h: h, cfg: cfg, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/v1/links", func(r chi.Router) {
		r.Get("/", s.listLinks)
		r.Get("/{name}", s.getLink)
	})

	return r
}

// A server serves link state as JSON.
type server struct {
	h   *ethtool.Handle
	cfg config
	log *zap.Logger
}

// link is the JSON representation of an ethtool.LinkState.
type link struct {
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	Up           bool    `json:"up"`
	SQI          *uint32 `json:"sqi,omitempty"`
	SQIMax       *uint32 `json:"sqi_max,omitempty"`
	ExtState     string  `json:"ext_state,omitempty"`
	ExtSubstate  *uint8  `json:"ext_substate,omitempty"`
	ExtDownCount *uint32 `json:"ext_down_count,omitempty"`
}

func newLink(ls ethtool.LinkState) link {
	l := link{
		Index:        ls.Interface.Index,
		Name:         ls.Interface.Name,
		Up:           ls.Link,
		SQI:          ls.SQI,
		SQIMax:       ls.SQIMax,
		ExtSubstate:  ls.ExtSubstate,
		ExtDownCount: ls.ExtDownCount,
	}
	if ls.ExtState != nil {
		l.ExtState = ls.ExtState.String()
	}

	return l
}

func (s *server) listLinks(w http.ResponseWriter, r *http.Request) {
	s.serveLinks(w, r, s.h.LinkState().Get(""), false)
}

func (s *server) getLink(w http.ResponseWriter, r *http.Request) {
	s.serveLinks(w, r, s.h.LinkState().Get(chi.URLParam(r, "name")), true)
}

// serveLinks executes req and writes its replies as JSON.  When single is
// set, exactly one reply is expected and written as an object.
func (s *server) serveLinks(w http.ResponseWriter, r *http.Request, req ethtool.LinkStateRequest, single bool) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	lss, err := req.LinkStates(ctx)
	switch {
	case errors.Is(err, os.ErrNotExist):
		http.Error(w, "interface not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.Warn("failed to query link state", zap.Error(err))
		http.Error(w, "failed to query link state", http.StatusBadGateway)
		return
	}

	links := make([]link, 0, len(lss))
	for _, ls := range lss {
		links = append(links, newLink(ls))
	}

	var v any = links
	if single {
		if len(links) != 1 {
			http.Error(w, "interface not found", http.StatusNotFound)
			return
		}
		v = links[0]
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("failed to write response", zap.Error(err))
	}
}
