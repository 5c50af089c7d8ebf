package logging

import (
	"context"
	"errors"
)

type LogEntry struct {
	Key   string
	Value interface{}
}

func Entry(k string, v interface{}) LogEntry {
	return LogEntry{Key: k, Value: v}
}

type Logger interface {
	Debug(ctx context.Context, msg string, entries ...LogEntry)
	Info(ctx context.Context, msg string, entries ...LogEntry)
	Warning(ctx context.Context, msg string, entries ...LogEntry)
	Error(ctx context.Context, msg string, entries ...LogEntry)
}

// Error logs an unexpected error, downgrading context cancellation to
// info level since it is not a service fault.
func Error(ctx context.Context, log Logger, err error, entries ...LogEntry) {
	if errors.Is(err, context.Canceled) {
		log.Info(ctx, "Operation canceled.", entries...)
		return
	}
	log.Error(ctx, "Unexpected error.", entries...)
}
