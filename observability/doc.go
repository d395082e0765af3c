// Package observability wires payclient into OpenTelemetry.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("payclient"), log)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("payclient"), log)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.DefaultMetrics()
//
// The middleware package records one span and one request measurement per
// logical request; the pollable package records one measurement per
// polling operation.
package observability
