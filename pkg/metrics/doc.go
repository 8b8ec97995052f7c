// Package metrics defines Prometheus metrics for the gateway, covering
// session bootstrap, token minting, cluster lookups, resource operations,
// and audit sinks.
package metrics
