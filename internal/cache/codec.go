package cache

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes cached aggregates. Payload bytes are opaque to the
// store; two reads of the same key return byte-identical payloads.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec stores payloads as JSON. Human-inspectable from the store CLI.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error    { return json.Unmarshal(b, v) }

// MsgpackCodec stores payloads as msgpack, trading readability for size.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(v any) ([]byte, error)   { return msgpack.Marshal(v) }
func (MsgpackCodec) Unmarshal(b []byte, v any) error { return msgpack.Unmarshal(b, v) }
