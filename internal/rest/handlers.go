// internal/rest/handlers.go
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tamzrod/automation-gateway/internal/link"
	"github.com/tamzrod/automation-gateway/internal/protocol"
)

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]any{"error": message})
}

// submitError maps a failed board command onto an HTTP status.
func submitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, protocol.ErrInvalidChannel):
		errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, link.ErrLinkDown):
		errorResponse(w, http.StatusServiceUnavailable, "board not connected")
	default:
		errorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

// urlChannel reads the 1-based channel number from the route.
func urlChannel(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "channel"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, s.monitor.Report())
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	if s.board.State() != link.StateConnected {
		errorResponse(w, http.StatusServiceUnavailable, "board not connected")
		return
	}
	snap, _, ok := s.store.Read()
	if !ok {
		errorResponse(w, http.StatusServiceUnavailable, "board status not available yet")
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}

func (s *Server) relay(w http.ResponseWriter, r *http.Request) {
	ch, ok := urlChannel(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "relay number must be an integer")
		return
	}

	// state defaults to true when the body omits it
	body := struct {
		State *bool `json:"state"`
	}{}
	if err := decodeBody(r, &body); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	on := true
	if body.State != nil {
		on = *body.State
	}

	cmd, err := protocol.SetRelay(s.variant, ch-1, on)
	if err != nil {
		submitError(w, err)
		return
	}
	if _, err := s.board.Submit(r.Context(), cmd); err != nil {
		submitError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "relay": ch, "state": on})
}

func (s *Server) output(w http.ResponseWriter, r *http.Request) {
	ch, ok := urlChannel(r)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "output number must be an integer")
		return
	}

	// value defaults to 100 when the body omits it
	body := struct {
		Value *int `json:"value"`
	}{}
	if err := decodeBody(r, &body); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	value := 100
	if body.Value != nil {
		value = *body.Value
	}

	cmd, err := protocol.SetOutput(s.variant, ch-1, value)
	if err != nil {
		submitError(w, err)
		return
	}
	if _, err := s.board.Submit(r.Context(), cmd); err != nil {
		submitError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "output": ch, "value": cmd.Value})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if _, err := s.board.Submit(r.Context(), protocol.Reset()); err != nil {
		submitError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

// decodeBody tolerates an empty body and rejects anything that is not
// the expected JSON shape.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.New("request body must be a JSON object")
}
