package ai

import (
	"context"

	"ai-board-of-directors/backend/pkg/observability"
	"ai-board-of-directors/backend/pkg/resilience"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Guarded wraps a Completer with a circuit breaker and a trace span per call
type Guarded struct {
	next    Completer
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps next. A nil breaker disables short-circuiting.
func NewGuarded(next Completer, breaker *resilience.CircuitBreaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	ctx, span := observability.Tracer().Start(ctx, "ai.Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("board.persona", req.PersonaName),
			attribute.String("board.personality", req.Personality),
			attribute.Int("board.history_turns", len(req.History)),
		),
	)
	defer span.End()

	var out *Completion
	call := func(ctx context.Context) error {
		var err error
		out, err = g.next.Complete(ctx, req)
		return err
	}

	var err error
	if g.breaker != nil {
		err = g.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("board.suggestions", len(out.Suggestions)))
	return out, nil
}

// Unavailable is the Completer used when no API key is configured; every call fails
type Unavailable struct{}

func (Unavailable) Complete(context.Context, CompletionRequest) (*Completion, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) TranslateWords(context.Context, []string, string) (map[string]string, error) {
	return nil, ErrNotConfigured
}
