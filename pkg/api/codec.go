package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidPayload wraps every decode or validation failure at the boundary.
var ErrInvalidPayload = errors.New("invalid payload")

// Codec serialises envelopes. JSON goes out as text frames, msgpack as
// binary frames.
type Codec interface {
	Name() string
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	DecodeEnvelope(data []byte) (Envelope, error)
}

// Envelope is a decoded frame: event name plus the payload still in the
// codec's encoding.
type Envelope struct {
	T string
	P []byte

	codec Codec
}

type outEnvelope struct {
	T string `json:"t"`
	P any    `json:"p,omitempty"`
}

var (
	JSON    Codec = jsonCodec{}
	MsgPack Codec = msgpackCodec{}
)

// CodecByName picks a codec from a query parameter. Empty means JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// Encode wraps payload in an envelope for event.
func Encode(c Codec, event string, payload any) ([]byte, error) {
	return c.Marshal(outEnvelope{T: event, P: payload})
}

// DecodePayload unpacks the envelope payload into T and runs its Validator.
// An empty payload leaves T zero-valued but still validated.
func DecodePayload[T any](env Envelope) (T, error) {
	var payload T
	if len(env.P) > 0 && env.codec != nil {
		if err := env.codec.Unmarshal(env.P, &payload); err != nil {
			return payload, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.T, err)
		}
	}
	if v, ok := any(payload).(Validator); ok {
		if err := v.Validate(); err != nil {
			return payload, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.T, err)
		}
	}
	return payload, nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Binary() bool                       { return false }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (c jsonCodec) DecodeEnvelope(data []byte) (Envelope, error) {
	var raw struct {
		T string          `json:"t"`
		P json.RawMessage `json:"p"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: envelope: %v", ErrInvalidPayload, err)
	}
	if raw.T == "" {
		return Envelope{}, fmt.Errorf("%w: envelope without event name", ErrInvalidPayload)
	}
	p := []byte(raw.P)
	if bytes.Equal(p, []byte("null")) {
		p = nil
	}
	return Envelope{T: raw.T, P: p, codec: c}, nil
}

// msgpackCodec reuses the json struct tags so both codecs share field names.
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (c msgpackCodec) DecodeEnvelope(data []byte) (Envelope, error) {
	var raw struct {
		T string             `json:"t"`
		P msgpack.RawMessage `json:"p"`
	}
	if err := c.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: envelope: %v", ErrInvalidPayload, err)
	}
	if raw.T == "" {
		return Envelope{}, fmt.Errorf("%w: envelope without event name", ErrInvalidPayload)
	}
	return Envelope{T: raw.T, P: []byte(raw.P), codec: c}, nil
}
