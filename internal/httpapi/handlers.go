package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	defs := make([]tech.Definition, 0, len(s.catalog))
	for _, def := range s.catalog {
		if category != "" && string(def.Category) != category {
			continue
		}
		defs = append(defs, def)
	}
	s.writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.query.Runs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.query.Summary(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.query.Status(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAdvantage(w http.ResponseWriter, r *http.Request) {
	result, err := s.query.Advantage(r.Context(), r.URL.Query().Get("run"), chi.URLParam(r, "entity"), chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EventFilter{
		RunID:      q.Get("run"),
		Kind:       q.Get("kind"),
		Technology: q.Get("technology"),
		Actor:      q.Get("actor"),
		Limit:      100,
	}
	var err error
	if filter.FromDay, err = intParam(r, "from"); err != nil {
		s.writeError(w, err)
		return
	}
	if filter.ToDay, err = intParam(r, "to"); err != nil {
		s.writeError(w, err)
		return
	}
	if limit, err := intParam(r, "limit"); err != nil {
		s.writeError(w, err)
		return
	} else if limit > 0 {
		filter.Limit = limit
	}
	if filter.ToDay > 0 && filter.FromDay > filter.ToDay {
		s.writeError(w, fmt.Errorf("%w: from must not exceed to", errBadRequest))
		return
	}

	events, err := s.query.Events(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if events == nil {
		events = []store.EventRecord{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleTechnologies(w http.ResponseWriter, r *http.Request) {
	var discovered *bool
	if v := r.URL.Query().Get("discovered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: discovered must be a boolean", errBadRequest))
			return
		}
		discovered = &b
	}
	states, err := s.query.Technologies(r.Context(), r.URL.Query().Get("run"), discovered)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if states == nil {
		states = []store.TechnologyState{}
	}
	s.writeJSON(w, http.StatusOK, states)
}

func (s *Server) handleTechnology(w http.ResponseWriter, r *http.Request) {
	detail, err := s.query.Technology(r.Context(), r.URL.Query().Get("run"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	records, err := s.query.Knowledge(r.Context(), r.URL.Query().Get("run"), r.URL.Query().Get("agent"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []store.KnowledgeRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}
