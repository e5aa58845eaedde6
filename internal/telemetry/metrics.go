// internal/telemetry/metrics.go
//
// Game counters exported through the global OTel meter provider.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the game counters. The zero value is not usable; call NewMetrics.
type Metrics struct {
	started  metric.Int64Counter
	guesses  metric.Int64Counter
	finished metric.Int64Counter
}

// NewMetrics registers the counters on the global MeterProvider, so call it
// after InitOtel.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("hangman")
	started, err := meter.Int64Counter("hangman.games.started",
		metric.WithDescription("Games started, by difficulty"))
	if err != nil {
		return nil, err
	}
	guesses, err := meter.Int64Counter("hangman.guesses",
		metric.WithDescription("Guesses applied, by correctness"))
	if err != nil {
		return nil, err
	}
	finished, err := meter.Int64Counter("hangman.games.finished",
		metric.WithDescription("Games that reached a terminal state, by result"))
	if err != nil {
		return nil, err
	}
	return &Metrics{started: started, guesses: guesses, finished: finished}, nil
}

func (m *Metrics) GameStarted(ctx context.Context, difficulty string) {
	m.started.Add(ctx, 1, metric.WithAttributes(attribute.String("difficulty", difficulty)))
}

func (m *Metrics) Guess(ctx context.Context, correct bool) {
	m.guesses.Add(ctx, 1, metric.WithAttributes(attribute.Bool("correct", correct)))
}

func (m *Metrics) GameFinished(ctx context.Context, state string) {
	m.finished.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}
