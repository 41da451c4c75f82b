package host

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bjaus/compose"
)

// Handler returns the registry's HTTP surface. Public functions are served
// at POST /api/{kind}/{name} with a JSON body as args; internal functions
// are not routable and respond 404, indistinguishable from absent ones.
//
// Responses are JSON envelopes:
//
//	{"status":"success","value":...}
//	{"status":"error","message":"..."}
//
// Validation failures map to 400, missing identity to 401, unknown or
// internal functions to 404, everything else to 500.
func (r *Registry) Handler() http.Handler {
	m := mux.NewRouter()
	m.HandleFunc("/api/{kind}/{name}", r.serveInvoke).Methods(http.MethodPost)
	return m
}

func (r *Registry) serveInvoke(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	name := vars["name"]
	kind := compose.Kind(vars["kind"])
	switch kind {
	case compose.KindQuery, compose.KindMutation, compose.KindAction:
	default:
		writeError(w, http.StatusNotFound, "unknown function kind")
		return
	}

	reg, ok := r.Lookup(name)
	if !ok || reg.Kind != kind || reg.Visibility != compose.Public {
		writeError(w, http.StatusNotFound, "function not found")
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	out, err := r.Invoke(req.Context(), name, body)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"value":  json.RawMessage(out),
	})
}

func statusFor(err error) int {
	var verr *compose.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var aerr *compose.AuthorizationError
	if errors.As(err, &aerr) {
		return http.StatusUnauthorized
	}
	var uerr *compose.UsageError
	if errors.As(err, &uerr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": msg,
	})
}
