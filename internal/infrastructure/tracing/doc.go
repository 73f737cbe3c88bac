/*
Package tracing records lightweight spans for the inspector and the host
lifecycle.

Spans are logged through zap by a collector goroutine; there is no exporter.
A trace ID ties together an inspector request and whatever it caused on the
host loop, and the game owner opens spans for capability discovery and for
every scheduler run.

# Usage

	tracer := tracing.New("hostkit", logger.Component("trace"))
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "scheduler.run")
	span.SetTag("path", "raf")
	// ...
	span.Finish()
	tracer.Submit(span)

# Propagation

Requests may carry X-Trace-ID and X-Span-ID; responses always carry the
trace and the span the middleware opened.
*/
package tracing
