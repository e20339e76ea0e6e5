/*
Package api implements the PubSub RPC Server (C5) and the ambient HTTP
surface.

Server wraps pkg/rpc's hand-written PubSub gRPC service: CreateTopic
delegates to the Topic Manager to allocate a topic id and reports back the
broker endpoint a subscriber should connect to; DeleteTopic marks a topic
for removal and lets the cleanup sweep do the actual teardown. There is no
mTLS here — authenticating publishers is out of scope, unlike the control
plane this package's structure is descended from.

HealthServer exposes /health, /ready, /metrics on a separate, unauthenticated
listener, built on pkg/metrics's component-health registry and pkg/health's
TCPChecker polling the broker's reachability.
*/
package api
