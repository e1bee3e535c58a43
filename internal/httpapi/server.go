// Package httpapi exposes the game service over HTTP. Request bodies are
// validated against the JSON Schemas in the schemas directory before they are
// decoded; every failure answers with a protocol error code.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/chrisf-bit/store-manager/internal/game"
	"github.com/chrisf-bit/store-manager/internal/protocol"
	"github.com/chrisf-bit/store-manager/internal/store"
	"github.com/chrisf-bit/store-manager/internal/transport/watch"
)

// maxBodyBytes caps request bodies; submissions are small.
const maxBodyBytes = 1 << 20

type Server struct {
	log *log.Logger
	svc *game.Service
	hub *watch.Hub

	createRun       *jsonschema.Schema
	submitDecisions *jsonschema.Schema
}

// NewServer compiles the request schemas from schemaDir and returns the API
// server. hub may be nil to disable the watch endpoint.
func NewServer(logger *log.Logger, svc *game.Service, hub *watch.Hub, schemaDir string) (*Server, error) {
	createRun, err := jsonschema.Compile(filepath.Join(schemaDir, protocol.CreateRunSchema))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", protocol.CreateRunSchema, err)
	}
	submitDecisions, err := jsonschema.Compile(filepath.Join(schemaDir, protocol.SubmitDecisionsSchema))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", protocol.SubmitDecisionsSchema, err)
	}
	return &Server{
		log:             logger,
		svc:             svc,
		hub:             hub,
		createRun:       createRun,
		submitDecisions: submitDecisions,
	}, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok " + protocol.Version))
	})
	mux.HandleFunc("POST /v1/runs", s.handleCreateRun)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /v1/runs/{id}/rounds/{round}", s.handleGetRound)
	mux.HandleFunc("POST /v1/runs/{id}/rounds/{round}/decisions", s.handleSubmitDecisions)
	mux.HandleFunc("GET /v1/runs/{id}/report", s.handleReport)
	mux.HandleFunc("GET /v1/runs/{id}/watch", s.handleWatch)
	return mux
}

func (s *Server) handleCreateRun(rw http.ResponseWriter, r *http.Request) {
	var req protocol.CreateRunRequest
	if !s.decodeBody(rw, r, s.createRun, &req) {
		return
	}
	created, err := s.svc.CreateRun(r.Context(), game.NewRunParams{
		StoreName: req.StoreName,
		StoreSize: req.StoreSize,
		Region:    req.Region,
	})
	if err != nil {
		s.fail(rw, err)
		return
	}
	s.writeJSON(rw, http.StatusCreated, created)
}

func (s *Server) handleGetRun(rw http.ResponseWriter, r *http.Request) {
	run, err := s.svc.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(rw, err)
		return
	}
	s.writeJSON(rw, http.StatusOK, run)
}

func (s *Server) handleGetRound(rw http.ResponseWriter, r *http.Request) {
	round, ok := s.roundNumber(rw, r)
	if !ok {
		return
	}
	info, err := s.svc.RoundData(r.Context(), r.PathValue("id"), round)
	if err != nil {
		s.fail(rw, err)
		return
	}
	s.writeJSON(rw, http.StatusOK, info)
}

func (s *Server) handleSubmitDecisions(rw http.ResponseWriter, r *http.Request) {
	round, ok := s.roundNumber(rw, r)
	if !ok {
		return
	}
	var req protocol.SubmitDecisionsRequest
	if !s.decodeBody(rw, r, s.submitDecisions, &req) {
		return
	}
	decs := make([]game.DecisionInput, 0, len(req.Decisions))
	for _, d := range req.Decisions {
		decs = append(decs, game.DecisionInput{TemplateID: d.DecisionTemplateID, OptionKey: d.OptionKey})
	}
	choices := make([]game.ScenarioChoice, 0, len(req.Scenarios))
	for _, c := range req.Scenarios {
		choices = append(choices, game.ScenarioChoice{ScenarioID: c.ScenarioID, OptionIndex: c.OptionIndex})
	}

	out, err := s.svc.SubmitRound(r.Context(), r.PathValue("id"), round, decs, choices)
	if err != nil {
		s.fail(rw, err)
		return
	}
	s.writeJSON(rw, http.StatusOK, out)
}

func (s *Server) handleReport(rw http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(rw, err)
		return
	}
	s.writeJSON(rw, http.StatusOK, rep)
}

func (s *Server) handleWatch(rw http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(rw, http.StatusNotFound, protocol.ErrRunNotFound, "watch disabled")
		return
	}
	id := r.PathValue("id")
	if _, err := s.svc.Run(r.Context(), id); err != nil {
		s.fail(rw, err)
		return
	}
	s.hub.Serve(rw, r, id)
}

// decodeBody validates the request body against schema and decodes it into
// dst. Writes the error response itself and reports whether decoding worked.
func (s *Server) decodeBody(rw http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "unreadable body")
		return false
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var loose any
	if err := json.Unmarshal(raw, &loose); err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "malformed JSON")
		return false
	}
	if err := schema.Validate(loose); err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "malformed JSON")
		return false
	}
	return true
}

func (s *Server) roundNumber(rw http.ResponseWriter, r *http.Request) (int, bool) {
	round, err := strconv.Atoi(r.PathValue("round"))
	if err != nil || round < 0 {
		s.writeError(rw, http.StatusBadRequest, protocol.ErrBadRound, "round must be a non-negative integer")
		return 0, false
	}
	return round, true
}

// fail maps service errors onto status codes and protocol error codes.
func (s *Server) fail(rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(rw, http.StatusNotFound, protocol.ErrRunNotFound, "not found")
	case errors.Is(err, game.ErrRunCompleted):
		s.writeError(rw, http.StatusConflict, protocol.ErrRunCompleted, err.Error())
	case errors.Is(err, game.ErrRoundOutOfSequence):
		s.writeError(rw, http.StatusConflict, protocol.ErrBadRound, err.Error())
	case errors.Is(err, game.ErrInvalidSubmission):
		s.writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
	default:
		s.log.Printf("internal error: %v", err)
		s.writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
	}
}

func (s *Server) writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		s.log.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(rw http.ResponseWriter, status int, code, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(protocol.ErrorBody{Code: code, Message: msg})
}
