// Package analysis turns input texts into sentiment results and batch
// statistics, and hands finished batches to the result sinks.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiscope/internal/apperror"
	"github.com/spacesedan/sentiscope/internal/ingest"
	"github.com/spacesedan/sentiscope/internal/metrics"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/sentiment"
)

const archiveTimeout = 5 * time.Second

type Service struct {
	scorer sentiment.Scorer
	sink   ResultSink
	clock  clockwork.Clock
}

// NewService builds the analysis service. sink may be nil when no archive
// is configured.
func NewService(scorer sentiment.Scorer, sink ResultSink, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{scorer: scorer, sink: sink, clock: clock}
}

// AnalyzeText scores a single text.
func (s *Service) AnalyzeText(ctx context.Context, username, text string) (models.SentimentResult, error) {
	result, err := s.score(ctx, text)
	if err != nil {
		return models.SentimentResult{}, apperror.Parse(err)
	}

	var stats models.Statistics
	stats.Add(result.Sentiment)
	s.archive(ctx, username, models.SourceText, []models.SentimentResult{result}, stats)

	return result, nil
}

// AnalyzeTable scores every row in order. The first failing row aborts the
// whole batch.
func (s *Service) AnalyzeTable(ctx context.Context, username string, table *ingest.Table) (models.BatchResult, error) {
	batch := models.BatchResult{Results: make([]models.SentimentResult, 0, len(table.Rows))}

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return models.BatchResult{}, apperror.Internal("analysis canceled", err)
		}

		result, err := s.score(ctx, row.Text)
		if err != nil {
			return models.BatchResult{}, apperror.Parse(fmt.Errorf("row %d: %w", i+1, err))
		}
		result.ID = row.ID
		result.Timestamp = row.Timestamp

		batch.Results = append(batch.Results, result)
		batch.Statistics.Add(result.Sentiment)
	}

	s.archive(ctx, username, models.SourceCSV, batch.Results, batch.Statistics)

	return batch, nil
}

func (s *Service) score(ctx context.Context, text string) (models.SentimentResult, error) {
	score, err := s.scorer.Score(ctx, text)
	if err != nil {
		return models.SentimentResult{}, err
	}
	metrics.RowsAnalyzed.WithLabelValues(string(score.Label)).Inc()

	return models.SentimentResult{
		Text:         text,
		Sentiment:    score.Label,
		Polarity:     score.Polarity,
		Subjectivity: score.Subjectivity,
	}, nil
}

// archive is best effort: sink failures are logged and counted, never
// returned to the caller.
func (s *Service) archive(ctx context.Context, username string, source models.Source, results []models.SentimentResult, stats models.Statistics) {
	if s.sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	batch := models.ArchivedBatch{
		BatchID:    uuid.NewString(),
		Username:   username,
		Source:     source,
		CreatedAt:  s.clock.Now().UTC(),
		Results:    results,
		Statistics: stats,
	}

	if err := s.sink.Store(ctx, batch); err != nil {
		slog.Warn("[Analysis] Batch was not fully archived",
			slog.String("batch_id", batch.BatchID),
			slog.String("error", err.Error()))
		return
	}

	slog.Debug("[Analysis] Batch archived",
		slog.String("batch_id", batch.BatchID),
		slog.Int("rows", len(results)))
}
