package discovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// probeAll probes candidates with bounded parallelism and returns one
// Reachability per candidate, in candidate order. Probes still running when
// the ceiling expires count as unreachable; they are not retried.
func (d *Discoverer) probeAll(ctx context.Context, candidates []models.Endpoint) []datasource.Reachability {
	if len(candidates) == 0 {
		return nil
	}

	ceilingCtx, cancel := context.WithTimeout(ctx, d.opts.ProbeCeiling)
	defer cancel()

	var mu sync.Mutex
	results := make([]datasource.Reachability, len(candidates))

	g, gctx := errgroup.WithContext(ceilingCtx)
	g.SetLimit(d.opts.ProbeConcurrency)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, ep := range candidates {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				r := d.probeOne(gctx, ep)
				mu.Lock()
				results[i] = r
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ceilingCtx.Done():
		d.logger.Info("Probe ceiling reached, remaining candidates count as unreachable",
			zap.Duration("ceiling", d.opts.ProbeCeiling))
	}

	mu.Lock()
	defer mu.Unlock()
	snapshot := make([]datasource.Reachability, len(results))
	copy(snapshot, results)
	return snapshot
}

func (d *Discoverer) probeOne(ctx context.Context, endpoint models.Endpoint) datasource.Reachability {
	probeCtx, cancel := context.WithTimeout(ctx, d.opts.ProbeTimeout)
	defer cancel()

	start := time.Now()
	r := d.opts.Prober.Probe(probeCtx, endpoint)
	if probeCtx.Err() != nil {
		// An answer that arrives after the deadline does not count.
		r = datasource.Unreachable
	}

	d.logger.Debug("Probed endpoint",
		zap.String("endpoint", endpoint.String()),
		zap.Stringer("result", r),
		zap.Duration("elapsed", time.Since(start)))
	return r
}
