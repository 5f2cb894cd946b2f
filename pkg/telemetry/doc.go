// Package telemetry reports renderer activity to Prometheus and
// OpenTelemetry.
//
// Both Metrics and Tracer implement ui.Observer and can be installed on a
// builder together:
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	tr := telemetry.NewTracer(telemetry.WithTracerName("preview"))
//	b := ui.NewBuilder(ui.DOM(doc), ui.WithObserver(ui.Observers(m, tr)))
//
// Metrics also carries the preview server's counters (dispatched events,
// connected clients, published snapshots).
package telemetry
