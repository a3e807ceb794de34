// Package rpc is the coordinator↔worker control plane (spec §4.7/§6):
// AssignTasks, InjectBarrier, AckCheckpoint, ReportStatus, Terminate.
// It runs over google.golang.org/grpc like the teacher's connector
// proxy does, but carries plain Go structs through a JSON
// encoding.Codec instead of protoc-generated message types, since no
// protoc is available to this build.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is negotiated over the wire as the gRPC content-subtype:
// a request's Content-Type header becomes "application/grpc+json".
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
