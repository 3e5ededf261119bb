// Package rpc implements the typed request/response protocol between labd
// and its clients. Requests travel as newline-delimited frames of the form
// "<tag>:<json-payload>"; responses are bare JSON payloads whose schema is
// implied by the originating request kind.
package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is any JSON-marshalable value returned by a request handler. A
// nil Response means the request is fire-and-forget and no frame is sent.
type Response any

// Request is one registered request kind. Handle runs on the server with
// the server-owned environment.
type Request interface {
	Tag() string
	Handle(env *Env) (Response, error)
}

// TypeRegistry maps request tags to factories producing empty request
// values for payload decoding. It is populated explicitly at startup; tags
// are never derived from type names at runtime.
type TypeRegistry struct {
	types map[string]func() Request
}

// NewTypeRegistry returns a registry with all built-in request kinds
// registered.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]func() Request)}
	r.Register(func() Request { return &HelloRequest{} })
	r.Register(func() Request { return &ListDevicesRequest{} })
	r.Register(func() Request { return &DeviceInfoRequest{} })
	r.Register(func() Request { return &HaltRequest{} })
	return r
}

// Register adds a request kind under its own tag. Registering a duplicate
// tag panics: it is a wiring error, not a runtime condition.
func (r *TypeRegistry) Register(factory func() Request) {
	tag := factory().Tag()
	if _, ok := r.types[tag]; ok {
		panic(fmt.Sprintf("rpc: request tag %q registered twice", tag))
	}
	r.types[tag] = factory
}

// EncodeFrame serializes a request into one wire frame, without the
// trailing newline.
func EncodeFrame(req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Tag(), err)
	}
	frame := make([]byte, 0, len(req.Tag())+1+len(payload))
	frame = append(frame, req.Tag()...)
	frame = append(frame, ':')
	frame = append(frame, payload...)
	return frame, nil
}

// DecodeFrame resolves a frame's tag and deserializes its payload into a
// fresh request value of the registered kind.
func (r *TypeRegistry) DecodeFrame(frame []byte) (Request, error) {
	tag, payload, ok := bytes.Cut(frame, []byte{':'})
	if !ok {
		return nil, fmt.Errorf("malformed frame %q: missing tag separator", frame)
	}

	factory, ok := r.types[string(tag)]
	if !ok {
		return nil, &UnknownRequestTagError{Tag: string(tag)}
	}

	req := factory()
	if err := json.Unmarshal(payload, req); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", tag, err)
	}
	return req, nil
}
