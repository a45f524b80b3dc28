package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/sentiscope/internal/metrics"
	"github.com/spacesedan/sentiscope/internal/models"
	"golang.org/x/sync/errgroup"
)

// ResultSink receives every successfully analyzed batch.
type ResultSink interface {
	Name() string
	Store(ctx context.Context, batch models.ArchivedBatch) error
}

// MultiSink writes a batch to every sink concurrently. A failing sink does
// not stop the others. errgroup.Wait reports only the first failure, so the
// per-sink errors are collected and joined in sink order.
type MultiSink []ResultSink

func (m MultiSink) Name() string { return "multi" }

func (m MultiSink) Store(ctx context.Context, batch models.ArchivedBatch) error {
	var g errgroup.Group
	errs := make([]error, len(m))

	for i, sink := range m {
		g.Go(func() error {
			if err := sink.Store(ctx, batch); err != nil {
				metrics.SinkFailures.WithLabelValues(sink.Name()).Inc()
				slog.Error("[ResultSink] Failed to store batch",
					slog.String("sink", sink.Name()),
					slog.String("batch_id", batch.BatchID),
					slog.String("error", err.Error()))

				errs[i] = fmt.Errorf("%s: %w", sink.Name(), err)
				return errs[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}
