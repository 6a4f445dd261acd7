package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethnl/ethtool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func stressCmd(g *globals) *cobra.Command {
	var (
		jobs     int
		pprof    string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Continuously stress ethtool link state queries",
		Long: `Continuously dial ethtool connections and dump the link state of
every interface from several goroutines, serving pprof data meanwhile.

Examples:
  ethlinkstate stress -j 8
  ethlinkstate stress --duration 30s --pprof :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pprof != "" {
				go func() {
					// For pprof support.
					if err := http.ListenAndServe(pprof, nil); err != nil {
						g.log.Error("pprof server failed", zap.Error(err))
					}
				}()
			}

			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			n, err := stress(ctx, jobs, func(ctx context.Context) error {
				c, h, err := g.dial()
				if err != nil {
					return err
				}
				defer c.Close()

				return work(ctx, h)
			})
			g.log.Info("stress finished", zap.Int64("requests", n))

			return err
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of jobs")
	cmd.Flags().StringVar(&pprof, "pprof", ":8080", "Address to serve pprof on, empty to disable")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this duration, 0 runs forever")

	return cmd
}

// stress runs fn from jobs goroutines until ctx is done or fn fails.  It
// returns the number of completed calls and the first failure.
func stress(ctx context.Context, jobs int, fn func(ctx context.Context) error) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		n    atomic.Int64
		once sync.Once
		ferr error
		wg   sync.WaitGroup
	)

	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		go func() {
			defer wg.Done()

			for ctx.Err() == nil {
				if err := fn(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}

					once.Do(func() {
						ferr = err
						cancel()
					})
					return
				}

				n.Add(1)
			}
		}()
	}

	wg.Wait()
	return n.Load(), ferr
}

// work dumps the link state of every interface several times over one
// connection.
func work(ctx context.Context, h *ethtool.Handle) error {
	for i := 0; i < 10; i++ {
		if _, err := h.LinkState().Get("").LinkStates(ctx); err != nil {
			return err
		}
	}

	return nil
}
