// Package server exposes rule evaluation over HTTP.
//
// Routes:
//
//	POST /v1/execute   evaluate facts against a registered rule set
//	GET  /v1/rulesets  list registered rule sets
//	GET  /healthz      liveness probe
//	GET  /metrics      Prometheus exposition (when enabled)
//
// Each /v1/execute request runs in its own stateless session, so
// concurrent requests never share fact state.
package server
