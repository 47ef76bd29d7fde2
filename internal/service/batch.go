package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/metrics"
	"github.com/gyaneshwarpardhi/churn/internal/risk"
	"github.com/gyaneshwarpardhi/churn/internal/traces"
)

// BatchItem is the outcome for one record of a batch, at its input position.
type BatchItem struct {
	Assessment risk.Assessment
	Err        error
}

type batchWork struct {
	snap *Snapshot
	raw  customer.Raw
	out  *BatchItem
	wg   *sync.WaitGroup
}

// ScoreBatch scores raws concurrently on the batch pool and returns results
// in input order. Every item sees the same snapshot. Per-item validation or
// prediction failures are reported in BatchItem.Err; the call itself fails
// only when the service is unready, the queue is full, or the wait times out.
func (s *Service) ScoreBatch(ctx context.Context, raws []customer.Raw) ([]BatchItem, error) {
	start := time.Now()
	ctx, span := traces.StartSpan(ctx, "churn.batch", traces.BatchSize(len(raws)))
	defer span.End()

	snap := s.snap.Load()
	if snap == nil {
		err := s.unavailable()
		traces.Fail(span, err)
		countError(err)
		return nil, err
	}

	out := make([]BatchItem, len(raws))
	var wg sync.WaitGroup
	rejected := 0
	for i := range raws {
		wg.Add(1)
		w := &batchWork{snap: snap, raw: raws[i], out: &out[i], wg: &wg}
		if !s.pool.Submit(w) {
			wg.Done()
			rejected++
		}
	}
	metrics.QueueUtilization.Set(s.QueueUtilization())

	// Queued items still run; their results are simply discarded.
	if rejected > 0 {
		metrics.BatchRejected.Add(float64(rejected))
		err := fmt.Errorf("%w: %d of %d items rejected (capacity %d)", ErrQueueFull, rejected, len(raws), s.pool.QueueCap())
		traces.Fail(span, err)
		countError(err)
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timeout := s.conf.Timeout()
	select {
	case <-done:
	case <-time.After(timeout):
		err := fmt.Errorf("%w after %v", ErrBatchTimeout, timeout)
		traces.Fail(span, err)
		countError(err)
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	metrics.PredictionDuration.WithLabelValues("batch").Observe(msSince(start))
	return out, nil
}

func (s *Service) runBatchItem(_ context.Context, w *batchWork) {
	defer w.wg.Done()
	rec, err := customer.Parse(w.raw)
	if err != nil {
		countError(err)
		w.out.Err = err
		return
	}
	res, _, err := s.assess(w.snap, rec)
	if err != nil {
		countError(err)
		w.out.Err = err
		return
	}
	metrics.Predictions.WithLabelValues(string(res.Tier)).Inc()
	w.out.Assessment = res
}
