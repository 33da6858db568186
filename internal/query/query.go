// Package query is the read side over recorded runs: summaries, technology
// advantage, events, per-technology state and agent knowledge.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

var (
	ErrNoRun    = errors.New("no recorded run")
	ErrNotFound = errors.New("not found")
)

// Store is the subset of store.Store the query service reads from.
type Store interface {
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	ListRuns(ctx context.Context) ([]store.Run, error)
	ListEvents(ctx context.Context, filter store.EventFilter) ([]store.EventRecord, error)
	GetTechnologyStates(ctx context.Context, runID string) ([]store.TechnologyState, error)
	GetKnowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error)
	GetGroupKnowledge(ctx context.Context, runID string) ([]store.GroupKnowledge, error)
	GetSummary(ctx context.Context, runID string) (*tech.Summary, error)
}

const DefaultTTL = 30 * time.Second

type Service struct {
	db      Store
	catalog *tech.Catalog
	cache   *cache.Cache
}

// New builds a service over db. catalog supplies the static definitions
// (benefits, descriptions) that snapshots do not carry.
func New(db Store, catalog *tech.Catalog) *Service {
	return &Service{
		db:      db,
		catalog: catalog,
		cache:   cache.New(DefaultTTL, 2*DefaultTTL),
	}
}

// Invalidate drops every cached read, e.g. after a new run is recorded.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

func (s *Service) Runs(ctx context.Context) ([]store.Run, error) {
	runs, err := s.db.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Run resolves runID, or the latest run when runID is empty.
func (s *Service) Run(ctx context.Context, runID string) (*store.Run, error) {
	run, err := s.db.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	if run == nil {
		if runID == "" {
			return nil, ErrNoRun
		}
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, nil
}

func (s *Service) resolve(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	if v, ok := s.cache.Get("latest"); ok {
		return v.(string), nil
	}
	run, err := s.Run(ctx, "")
	if err != nil {
		return "", err
	}
	s.cache.Set("latest", run.ID, cache.DefaultExpiration)
	return run.ID, nil
}

func (s *Service) Summary(ctx context.Context, runID string) (*tech.Summary, error) {
	id, err := s.resolve(ctx, runID)
	if err != nil {
		return nil, err
	}
	key := "summary:" + id
	if v, ok := s.cache.Get(key); ok {
		return v.(*tech.Summary), nil
	}

	summary, err := s.db.GetSummary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	if summary == nil {
		return nil, fmt.Errorf("summary of run %s: %w", id, ErrNotFound)
	}
	s.cache.Set(key, summary, cache.DefaultExpiration)
	return summary, nil
}

type AdvantageResult struct {
	RunID        string   `json:"run_id"`
	Entity       string   `json:"entity"`
	Kind         string   `json:"kind"`
	Advantage    float64  `json:"advantage"`
	Contributing []string `json:"contributing,omitempty"`
}

// Status reports the catalog-wide totals of a run: technologies per category
// and the discovered share.
func (s *Service) Status(ctx context.Context, runID string) (*tech.Status, error) {
	summary, err := s.Summary(ctx, runID)
	if err != nil {
		return nil, err
	}
	id, err := s.resolve(ctx, runID)
	if err != nil {
		return nil, err
	}
	states, err := s.states(ctx, id)
	if err != nil {
		return nil, err
	}
	categories := make([]tech.Category, 0, len(states))
	for _, st := range states {
		categories = append(categories, st.Category)
	}
	status := tech.StatusOf(*summary, categories)
	return &status, nil
}

// Advantage multiplies the benefit of the given kind over every technology
// the entity knew at the end of the run. Group names take precedence and
// resolve to what the group's living members knew when the run ended.
func (s *Service) Advantage(ctx context.Context, runID, entity, kind string) (*AdvantageResult, error) {
	if entity == "" || kind == "" {
		return nil, fmt.Errorf("entity and kind are required")
	}
	id, err := s.resolve(ctx, runID)
	if err != nil {
		return nil, err
	}

	groups, err := s.groups(ctx, id)
	if err != nil {
		return nil, err
	}
	known, ok := groups[entity]
	if !ok {
		records, err := s.knowledge(ctx, id, entity)
		if err != nil {
			return nil, err
		}
		known = tech.NewSet()
		for _, r := range records {
			known.Add(r.Technology)
		}
	}

	result := &AdvantageResult{
		RunID:     id,
		Entity:    entity,
		Kind:      kind,
		Advantage: tech.AdvantageFor(s.catalog, known, kind),
	}
	for _, techID := range known.Sorted() {
		if t, ok := s.catalog.Get(techID); ok {
			if _, ok := t.Benefits[kind]; ok {
				result.Contributing = append(result.Contributing, techID)
			}
		}
	}
	return result, nil
}

// Events lists recorded events matching filter. An empty RunID reads the
// latest run.
func (s *Service) Events(ctx context.Context, filter store.EventFilter) ([]store.EventRecord, error) {
	id, err := s.resolve(ctx, filter.RunID)
	if err != nil {
		return nil, err
	}
	filter.RunID = id
	events, err := s.db.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

type TechnologyDetail struct {
	RunID      string                  `json:"run_id"`
	State      store.TechnologyState   `json:"state"`
	Definition *tech.Definition        `json:"definition,omitempty"`
	Unlocks    []string                `json:"unlocks,omitempty"`
	Holders    []store.KnowledgeRecord `json:"holders"`
}

func (s *Service) Technology(ctx context.Context, runID, techID string) (*TechnologyDetail, error) {
	id, err := s.resolve(ctx, runID)
	if err != nil {
		return nil, err
	}
	states, err := s.states(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &TechnologyDetail{RunID: id, Holders: []store.KnowledgeRecord{}}
	found := false
	for _, state := range states {
		if state.ID == techID {
			detail.State = state
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("technology %s: %w", techID, ErrNotFound)
	}
	if t, ok := s.catalog.Get(techID); ok {
		def := t.Definition
		detail.Definition = &def
		detail.Unlocks = s.catalog.Unlocks(techID)
	}

	records, err := s.knowledge(ctx, id, "")
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Technology == techID {
			detail.Holders = append(detail.Holders, r)
		}
	}
	sort.SliceStable(detail.Holders, func(i, j int) bool {
		return detail.Holders[i].Level > detail.Holders[j].Level
	})
	return detail, nil
}

// Technologies returns the end-of-run state of every technology, optionally
// restricted to discovered or undiscovered ones.
func (s *Service) Technologies(ctx context.Context, runID string, discovered *bool) ([]store.TechnologyState, error) {
	id, err := s.resolve(ctx, runID)
	if err != nil {
		return nil, err
	}
	states, err := s.states(ctx, id)
	if err != nil {
		return nil, err
	}
	if discovered == nil {
		return states, nil
	}
	out := make([]store.TechnologyState, 0, len(states))
	for _, state := range states {
		if state.Discovered == *discovered {
			out = append(out, state)
		}
	}
	return out, nil
}

// Knowledge returns the agent's knowledge levels, or every agent's when agent
// is empty.
func (s *Service) Knowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error) {
	id, err := s.resolve(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.knowledge(ctx, id, agent)
}

func (s *Service) states(ctx context.Context, runID string) ([]store.TechnologyState, error) {
	key := "states:" + runID
	if v, ok := s.cache.Get(key); ok {
		return v.([]store.TechnologyState), nil
	}
	states, err := s.db.GetTechnologyStates(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("getting technology states: %w", err)
	}
	s.cache.Set(key, states, cache.DefaultExpiration)
	return states, nil
}

func (s *Service) knowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error) {
	key := "knowledge:" + runID + ":" + agent
	if v, ok := s.cache.Get(key); ok {
		return v.([]store.KnowledgeRecord), nil
	}
	records, err := s.db.GetKnowledge(ctx, runID, agent)
	if err != nil {
		return nil, fmt.Errorf("getting knowledge: %w", err)
	}
	s.cache.Set(key, records, cache.DefaultExpiration)
	return records, nil
}

func (s *Service) groups(ctx context.Context, runID string) (map[string]tech.Set, error) {
	key := "groups:" + runID
	if v, ok := s.cache.Get(key); ok {
		return v.(map[string]tech.Set), nil
	}
	records, err := s.db.GetGroupKnowledge(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("getting group knowledge: %w", err)
	}
	groups := make(map[string]tech.Set, len(records))
	for _, g := range records {
		groups[g.Group] = tech.NewSet(g.Technologies...)
	}
	s.cache.Set(key, groups, cache.DefaultExpiration)
	return groups, nil
}
