/*
Package metrics provides Prometheus metrics collection and exposition for
topicgate.

Metrics are registered at package init against the default Prometheus
registry and exposed via Handler() for scraping. A small Collector
periodically snapshots the Topic Registry into the gauges that can't be
updated inline (active topic count, per-topic subscriber count). The RPC
server updates the topic created/deleted counters and the RPC request
metrics directly. The lifecycle-action, callback, broker and cleanup-sweep
metrics are registered and exposed, but no component updates them, so they
stay at zero.

# Categories

  - Topics: active count, created/deleted totals, per-topic subscriber gauge.
  - Lifecycle actions: START/STOP/DELETE counts, callback dispatch duration
    and failure counts.
  - Broker: reconnect counter, received-event counter by kind.
  - Cleanup sweep: pass duration histogram.
  - RPC: request counts and duration by method.

# Health

health.go carries a small component health registry (HealthChecker) kept
from the teacher's own use of it almost unchanged — RegisterComponent,
GetHealth, GetReadiness and their HTTP handlers are domain-neutral. The
orchestrator (cmd/topicgated) registers "broker" and "rpc" as the two
critical components readiness depends on.
*/
package metrics
