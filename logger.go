package trafficlight

import (
	"context"
	"log/slog"
	"os"
)

var logLevel = new(slog.LevelVar)
var logger *slog.Logger

func init() {
	opts := slog.HandlerOptions{
		Level: logLevel,
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &opts))
	slog.SetDefault(logger)
}

type lightKeyType string

const lightKey lightKeyType = "light"

func withLight(ctx context.Context, l *TrafficLight) context.Context {
	return context.WithValue(ctx, lightKey, l)
}

func newLoggerFromContext(ctx context.Context) *slog.Logger {
	if v := ctx.Value(lightKey); v != nil {
		l := v.(*TrafficLight)
		return slog.With("light", l.Name(), "phase", l.CurrentPhase().String())
	}
	return logger
}
