/*
Package client provides a Go client library for the PubSub RPC service.

It wraps rpc.PubSubClient in a small, CLI-friendly Client type: NewClient
dials a PubSub RPC server with no authentication, and CreateTopic/
DeleteTopic each apply their own request timeout so callers don't have to
manage a context.

cmd/topicgated's "topic create-topic" and "topic delete-topic" ops
subcommands are the only consumers.
*/
package client
