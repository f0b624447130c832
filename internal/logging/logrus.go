package logging

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus.FieldLogger to Logger. Key–value args become
// logrus fields; a dangling key is recorded under "!BADKEY" like slog does.
type LogrusLogger struct {
	l logrus.FieldLogger
}

func NewLogrusLogger(l logrus.FieldLogger) *LogrusLogger {
	return &LogrusLogger{l: l}
}

// FieldLogger exposes the underlying logrus logger, e.g. for HTTP access
// logging middleware.
func (g *LogrusLogger) FieldLogger() logrus.FieldLogger {
	return g.l
}

func (g *LogrusLogger) entry(ctx context.Context, args []any) *logrus.Entry {
	return g.l.WithFields(toFields(args)).WithContext(ctx)
}

func (g *LogrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Debug(msg)
}

func (g *LogrusLogger) Info(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Info(msg)
}

func (g *LogrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Warn(msg)
}

func (g *LogrusLogger) Error(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Error(msg)
}

func (g *LogrusLogger) With(args ...any) Logger {
	return &LogrusLogger{l: g.l.WithFields(toFields(args))}
}

func toFields(args []any) logrus.Fields {
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return fields
}
