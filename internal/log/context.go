// SPDX-License-Identifier: MIT

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const jobIDKey ctxKey = "job_id"

// ContextWithJobID stores the provided job ID in the context.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job ID from context if present.
func JobIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(jobIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns the base logger enriched with any job id carried by ctx.
func FromContext(ctx context.Context) zerolog.Logger {
	l := logger()
	if id := JobIDFromContext(ctx); id != "" {
		l = l.With().Str(FieldJobID, id).Logger()
	}
	return l
}

// WithComponentFromContext combines FromContext with a component tag.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	l := FromContext(ctx)
	return l.With().Str(FieldComponent, component).Logger()
}
