// Package api exposes the glasses over HTTP.
//
//	GET  /discover    named peripherals in range
//	POST /connect     bind to device_address (form or JSON)
//	GET  /disconnect  release the binding
//	POST /display     write already encoded packets
//	POST /encode      encode a pixel frame without touching the session
//	GET  /status      current binding
//
// Every failure is reported as {"message": "..."}.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/chemion/internal/protocol"
	"github.com/srg/chemion/internal/session"
)

const maxBodyBytes = 1 << 20

// DeviceSession is the part of session.Session the handlers drive.
type DeviceSession interface {
	Discover(ctx context.Context) ([]session.Descriptor, error)
	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context) error
	State() session.State
}

// Displayer writes encoded packets to the bound glasses.
type Displayer interface {
	Display(ctx context.Context, packets protocol.PacketSequence) error
}

// ErrorMessage is the body of every failed request.
type ErrorMessage struct {
	Message string `json:"message"`
}

// Status is the body of GET /status.
type Status struct {
	Connected bool   `json:"connected"`
	Address   string `json:"device_address,omitempty"`
}

type Server struct {
	session   DeviceSession
	displayer Displayer
	logger    *logrus.Logger
}

// NewRouter wires all routes and returns an http.Handler.
func NewRouter(sess DeviceSession, displayer Displayer, logger *logrus.Logger) http.Handler {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{session: sess, displayer: displayer, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /discover", s.discover)
	mux.HandleFunc("POST /connect", s.connect)
	mux.HandleFunc("GET /disconnect", s.disconnect)
	mux.HandleFunc("POST /display", s.display)
	mux.HandleFunc("POST /encode", s.encode)
	mux.HandleFunc("GET /status", s.status)

	return withRequestLogging(logger, mux)
}

func (s *Server) discover(w http.ResponseWriter, r *http.Request) {
	devices, err := s.session.Discover(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if devices == nil {
		devices = []session.Descriptor{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	target, err := decodeDevice(w, r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	logFields(r).WithFields(logrus.Fields{
		"address": target.Address,
		"name":    target.Name,
	}).Debug("Connect requested")

	if err := s.session.Connect(r.Context(), target.Address); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Disconnect(r.Context()); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) display(w http.ResponseWriter, r *http.Request) {
	var req protocol.PacketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.displayer.Display(r.Context(), req.Packets); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) encode(w http.ResponseWriter, r *http.Request) {
	var req protocol.FrameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	packets, err := protocol.Encode(req.Frame)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.PacketRequest{Packets: packets})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	st := Status{}
	if c, ok := s.session.State().(session.Connected); ok {
		st.Connected = true
		st.Address = c.Address
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, err error) {
	logFields(r).WithFields(logrus.Fields{
		"status": code,
		"error":  err,
	}).Warn("Request failed")
	writeJSON(w, code, ErrorMessage{Message: err.Error()})
}

// decodeDevice reads device_address and device_name from a form or JSON body.
func decodeDevice(w http.ResponseWriter, r *http.Request) (session.Descriptor, error) {
	var d session.Descriptor

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, &d); err != nil {
			return d, err
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return d, fmt.Errorf("invalid form: %w", err)
		}
		d.Address = r.PostFormValue("device_address")
		d.Name = r.PostFormValue("device_name")
	}

	d.Address = strings.TrimSpace(d.Address)
	if d.Address == "" {
		return d, errors.New("device_address is required")
	}
	return d, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
