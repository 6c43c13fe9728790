package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ruleworks/arbiter/pkg/engine"
	"ruleworks/arbiter/pkg/rules"
)

// executeRequest is the POST /v1/execute body.
type executeRequest struct {
	// RulesetURI names the registered rule set to evaluate against.
	RulesetURI string `json:"ruleset_uri"`

	// Facts are evaluated in order.
	Facts []map[string]any `json:"facts"`
}

// executeResponse is the POST /v1/execute reply.
type executeResponse struct {
	RulesetURI string `json:"ruleset_uri"`
	Strategy   string `json:"strategy"`
	FactCount  int    `json:"fact_count"`
	Results    []any  `json:"results"`
}

// rulesetInfo describes one registration for GET /v1/rulesets.
type rulesetInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Rules       int    `json:"rules"`
	Strategy    string `json:"strategy"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleExecute() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBytes)

		var req executeRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.RulesetURI == "" {
			writeError(w, http.StatusBadRequest, "ruleset_uri is required")
			return
		}

		session, err := s.engine.CreateSession(req.RulesetURI, &engine.SessionOptions{Stateless: true})
		if err != nil {
			var verr *engine.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
		defer session.Close()

		facts := make([]rules.Fact, len(req.Facts))
		for i, f := range req.Facts {
			facts[i] = rules.Fact(f)
		}
		if err := session.AddFacts(facts); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to add facts")
			return
		}

		results, err := session.Execute(r.Context())
		if err != nil {
			s.logger.Error("execution failed",
				"ruleset", req.RulesetURI,
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "execution failed")
			return
		}
		if results == nil {
			results = []any{}
		}

		writeJSON(w, http.StatusOK, executeResponse{
			RulesetURI: req.RulesetURI,
			Strategy:   string(session.RuleSet().Strategy()),
			FactCount:  len(req.Facts),
			Results:    results,
		})
	})
}

func (s *Server) handleRulesets() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registrations := s.engine.Registrations()
		infos := make([]rulesetInfo, 0, len(registrations))
		for _, uri := range s.engine.RegisteredNames() {
			rs := registrations[uri]
			infos = append(infos, rulesetInfo{
				URI:         uri,
				Name:        rs.Name(),
				Description: rs.Description(),
				Rules:       rs.Len(),
				Strategy:    string(rs.Strategy()),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"rulesets": infos})
	})
}

func (s *Server) handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"rulesets":  len(s.engine.RegisteredNames()),
			"timestamp": time.Now().Unix(),
		})
	})
}
