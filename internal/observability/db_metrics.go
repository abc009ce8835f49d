package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const dbTracerName = "github.com/geocoder89/supplylens/repo/postgres"

// Unique constraints the repositories turn into business faults.
var constraintClass = map[string]string{
	"users_email_key": "email_taken",
	"uq_user_token":   "watchlist_duplicate",
}

// ObserveDB runs one store operation inside a client span and records its
// latency and error class. A nil Prom still traces.
func (p *Prom) ObserveDB(ctx context.Context, op string, fn func() error) error {
	_, span := otel.Tracer(dbTracerName).Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		class := classifyDBErr(err)
		span.SetAttributes(attribute.String("db.error_class", class))

		if class == "no_rows" {
			status = "not_found"
		} else {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, class)
			if p != nil {
				p.DbErrorsTotal.WithLabelValues(op, class).Inc()
			}
		}
	}

	if p != nil {
		p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	}
	return err
}

func classifyDBErr(err error) string {
	if errors.Is(err, pgx.ErrNoRows) {
		return "no_rows"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			if class, ok := constraintClass[pgErr.ConstraintName]; ok {
				return class
			}
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
