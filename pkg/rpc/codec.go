// Package rpc carries the wire contract between this service and its
// publishers: the inbound PubSub surface (CreateTopic/DeleteTopic) and the
// outbound PublisherCallback surface (ManageTopic).
//
// Both are plain gRPC services with hand-written message structs instead of
// protoc-generated bindings. gRPC's content-subtype negotiation lets a
// custom encoding.Codec stand in for the default proto codec: the client
// asks for content-subtype "json" via grpc.CallContentSubtype, the server
// looks up the same codec by name, and real gRPC framing/deadlines/status
// codes apply throughout even though no .proto file or generated code exists.
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// ContentSubtype is the gRPC content-subtype under which the JSON codec is
// registered and requested. The resulting wire content-type is
// "application/grpc+json".
const ContentSubtype = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements google.golang.org/grpc/encoding.Codec using
// encoding/json instead of protobuf wire format.
type jsonCodec struct{}

func (jsonCodec) Name() string { return ContentSubtype }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpc: unmarshal into %T: %w", v, err)
	}
	return nil
}
