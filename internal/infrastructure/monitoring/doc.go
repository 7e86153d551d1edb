/*
Package monitoring provides Prometheus metrics for the backend.

Metrics cover HTTP requests, command invocations, terminal sessions, the
supervised process, the filesystem watch, the event bus and WebSocket
clients. Each Metrics value owns its own registry so tests can create as many
as they like.

# Usage

	metrics := monitoring.NewMetrics(nil)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "terminal.create")
	// ...
	timer.Stop("success")
*/
package monitoring
