/*
Package tracing provides lightweight request tracing across the navigator
and the legacy file server.

# Overview

Each HTTP request gets a span. When the navigator talks to a remote file
server, the trace and span ids travel in headers, so the file server's span
logs the navigator's span as its parent and both share one trace id.

# Usage

	tracer := tracing.New("navigator", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// outgoing calls
	client.OnBeforeRequest(tracing.RestyMiddleware)

# Trace Format

Traces use HTTP headers for propagation:
  - X-Trace-ID: identifier for the entire request flow
  - X-Span-ID: identifier of the calling operation

Ids are prefixed ULIDs (req_*), so they sort by start time.

# Performance

Finished spans are buffered (1000) and logged by one collector goroutine.
A full buffer drops spans rather than blocking requests.
*/
package tracing
