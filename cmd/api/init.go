package main

import (
	"context"
	"errors"

	"scicalc/internal/calculator"
	"scicalc/internal/explain"
	"scicalc/internal/observability"
)

type shutdownFunc func(context.Context) error

// initTelemetry starts OTLP export of traces, metrics and logs and creates
// the domain metric instruments. Add new domain InitMetrics calls here as the
// project grows.
func initTelemetry(ctx context.Context) (shutdownFunc, error) {
	var shutdowns []shutdownFunc
	shutdown := func(ctx context.Context) error {
		var err error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			err = errors.Join(err, shutdowns[i](ctx))
		}
		return err
	}

	for _, start := range []func(context.Context) (func(context.Context) error, error){
		observability.InitTracing,
		observability.InitMetrics,
		observability.InitLogging,
	} {
		stop, err := start(ctx)
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, stop)
	}

	if err := calculator.InitMetrics(); err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	if err := explain.InitMetrics(); err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	return shutdown, nil
}
