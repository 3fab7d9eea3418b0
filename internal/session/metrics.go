package session

import (
	"context"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var transitions metric.Int64Counter

// InitMeters creates the session telemetry instruments. Optional: when it
// is not called, transitions are simply not recorded.
func InitMeters(ctx context.Context, appName string) error {
	meter := otel.Meter(
		"console-session/"+appName,
		metric.WithInstrumentationVersion(otel.Version()),
	)

	var err error

	transitions, err = meter.Int64Counter(
		"session.transition_count",
		metric.WithDescription("Session state machine transitions"),
		metric.WithUnit("transition"),
	)
	if err != nil {
		return oops.In("Session").
			WithContext(ctx).
			Wrapf(err, "creating transition_count meter")
	}

	return nil
}

func recordTransition(ctx context.Context, from, to Status) {
	if transitions == nil {
		return
	}

	transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}
