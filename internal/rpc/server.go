package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
)

// ErrorResponse is sent in place of a request's normal response when its
// handler or frame decoding fails. The connection keeps serving.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server accepts client connections and dispatches request frames against
// a single environment. Connections are served one at a time: the whole
// point of the daemon is to serialize instrument access, so a concurrent
// accept loop would only move the queue somewhere less visible.
type Server struct {
	addr     string
	registry *TypeRegistry
	env      *Env
}

// NewServer returns a server bound to the given environment. addr is the
// TCP listen address.
func NewServer(addr string, registry *TypeRegistry, env *Env) *Server {
	return &Server{addr: addr, registry: registry, env: env}
}

// ListenAndServe listens on the configured address and serves until the
// context is cancelled or a Halt request arrives.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on an existing listener. It owns the listener
// and closes it before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	log.Printf("rpc: serving on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || s.env.HaltRequested() {
				return nil
			}
			return err
		}
		s.serveConn(conn)
		if s.env.HaltRequested() {
			log.Printf("rpc: halt requested, shutting down")
			return nil
		}
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	log.Printf("rpc: client connected from %s", conn.RemoteAddr())

	r := newFrameReader(conn)
	for {
		frame, err := r.readFrame()
		if err != nil {
			if !errors.Is(err, errConnClosed) {
				log.Printf("rpc: read from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		resp, err := s.dispatch(frame)
		if s.env.HaltRequested() {
			// Halt is fire-and-forget: the connection drops without a
			// response and the accept loop exits.
			return
		}
		if err != nil {
			log.Printf("rpc: dispatch: %v", err)
			resp = &ErrorResponse{Error: err.Error()}
		}
		if resp == nil {
			continue
		}
		if err := writeFrame(conn, resp); err != nil {
			log.Printf("rpc: write to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) dispatch(frame []byte) (Response, error) {
	req, err := s.registry.DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	return req.Handle(s.env)
}

func writeFrame(conn net.Conn, resp Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = conn.Write(append(payload, '\n'))
	return err
}
