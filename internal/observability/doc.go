// Package observability provides distributed tracing for the core runtime
// via OpenTelemetry. The audit Logger stamps each of its events with the
// trace and span ID active on its context, so those log lines can be
// correlated against the trace collector independently of this package.
package observability
