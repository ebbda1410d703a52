// Package api defines the Connect RPC surface of expensebook: message
// types, procedure names, handler constructors and clients for the Auth,
// Expense, Balance and Group services.
//
// Messages travel as JSON. Monetary fields are decimal strings so no
// precision is lost on the wire.
package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// codecName replaces Connect's default protobuf-JSON codec, which only
// handles generated protobuf messages.
const codecName = "json"

// JSONCodec marshals plain Go structs with encoding/json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return codecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}
