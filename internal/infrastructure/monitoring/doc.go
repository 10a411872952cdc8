/*
Package monitoring provides Prometheus metrics for the navigator.

# Overview

Collectors are registered on an injected prometheus.Registerer so tests and
several servers in one process do not collide on the default registry.

# Features

- HTTP request metrics (latency, throughput, size) labelled by route
- Navigator operation counts and latency by outcome code
- Copy, upload and export entry and byte counters
- Remote file server call metrics
- WebSocket connection metrics

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Metrics satisfy session.Recorder
	mgr := session.NewManager(logger, session.WithRecorder(metrics))
*/
package monitoring
