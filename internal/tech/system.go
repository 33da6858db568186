package tech

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
)

// StageFault records a stage that errored or panicked during a tick. The
// remaining stages still run.
type StageFault struct {
	Stage string `json:"stage"`
	Day   int    `json:"day"`
	Err   string `json:"error"`
}

type DayReport struct {
	Day    int          `json:"day"`
	Events []Event      `json:"events"`
	Faults []StageFault `json:"faults,omitempty"`
}

type stage struct {
	name string
	run  func(day int, pop *Population, emit Emit) error
}

// System wires every component together and drives them once per simulated day.
type System struct {
	Catalog      *Catalog
	Knowledge    *KnowledgeIndex
	Projects     *Projects
	Discoveries  *Discoveries
	Innovations  *Innovations
	Transfers    *Transfers
	Goals        *Goals
	Competitions *Competitions
	Failures     *Failures
	Conflicts    *Conflicts

	rates   Rates
	src     Source
	logger  *slog.Logger
	pending []Event
	day     int
}

type Option func(*System)

func WithRates(r Rates) Option {
	return func(s *System) { s.rates = r }
}

func WithSource(src Source) Option {
	return func(s *System) { s.src = src }
}

func WithSeed(seed uint64) Option {
	return func(s *System) { s.src = NewRand(seed) }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *System) { s.logger = l }
}

func New(catalog *Catalog, opts ...Option) *System {
	s := &System{
		Catalog:   catalog,
		Knowledge: NewKnowledgeIndex(),
		rates:     DefaultRates(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = NewRand(1)
	}
	r := &s.rates
	s.Projects = NewProjects(catalog, s.Knowledge, r, s.src)
	s.Discoveries = NewDiscoveries(catalog, s.Knowledge, r, s.src)
	s.Innovations = NewInnovations(catalog, s.Knowledge, r, s.src)
	s.Transfers = NewTransfers(catalog, s.Knowledge, r, s.src)
	s.Competitions = NewCompetitions(catalog, s.Projects, r, s.src)
	s.Goals = NewGoals(catalog, s.Knowledge, s.Competitions, r, s.src)
	s.Failures = NewFailures(catalog, s.Projects, r, s.src)
	s.Conflicts = NewConflicts(s.Knowledge, r, s.src)
	return s
}

func (s *System) stages() []stage {
	return []stage{
		{"discovery", s.Discoveries.Process},
		{"research", s.Projects.Advance},
		{"innovation", s.Innovations.Process},
		{"transfer", s.Transfers.Process},
		{"initiation", s.Projects.Initiation},
		{"goals", s.Goals.Process},
		{"competitions", s.Competitions.Process},
		{"failures", s.Failures.Process},
		{"conflicts", s.Conflicts.Process},
		{"knowledge", func(_ int, pop *Population, _ Emit) error {
			s.Knowledge.RefreshGroups(pop)
			return nil
		}},
	}
}

// Day runs one tick. Events queued between ticks lead the report, followed by
// every stage's events in stage order.
func (s *System) Day(day int, pop *Population) DayReport {
	s.day = day
	report := DayReport{Day: day}
	report.Events = append(report.Events, s.pending...)
	s.pending = nil

	emit := func(e Event) {
		report.Events = append(report.Events, e)
	}
	for _, st := range s.stages() {
		if err := s.runStage(st, day, pop, emit); err != nil {
			report.Faults = append(report.Faults, StageFault{Stage: st.name, Day: day, Err: err.Error()})
			s.logger.Error("tick stage failed", "stage", st.name, "day", day, "error", err)
		}
	}
	if report.Events == nil {
		report.Events = []Event{}
	}
	s.logger.Debug("technology day", "day", day, "events", len(report.Events), "faults", len(report.Faults))
	return report
}

func (s *System) runStage(st stage, day int, pop *Population, emit Emit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("stage panic", "stage", st.name, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic in %s stage: %v", st.name, r)
		}
	}()
	if pop == nil {
		return fmt.Errorf("running %s stage: no population", st.name)
	}
	return st.run(day, pop, emit)
}

// Seed grants starting knowledge. Seeding a technology marks it discovered so
// the catalog and knowledge index agree.
func (s *System) Seed(agent, techID string, level float64, day int) error {
	t, ok := s.Catalog.Get(techID)
	if !ok {
		return fmt.Errorf("seeding %s: unknown technology %q", agent, techID)
	}
	if !t.Discovered() && !s.Catalog.MarkDiscovered(techID, day, agent) {
		return fmt.Errorf("seeding %s with %s: prerequisites undiscovered", agent, techID)
	}
	s.Knowledge.Grant(agent, techID, level)
	return nil
}

// StartProject opens a project outside the tick loop. Its event leads the next report.
func (s *System) StartProject(techID, lead, sponsor string, collaborators []string) (*Project, error) {
	p := s.Projects.Initiate(techID, lead, sponsor, s.day)
	if p == nil {
		return nil, fmt.Errorf("starting research on %q: not eligible", techID)
	}
	for _, c := range collaborators {
		s.Projects.AddCollaborator(p.ID, c)
	}
	kind := EventResearchInitiated
	if sponsor != "" {
		kind = EventGroupResearchInitiated
	}
	s.pending = append(s.pending, Event{
		Kind:       kind,
		Day:        s.day,
		Technology: techID,
		Actor:      lead,
		Group:      sponsor,
		Ref:        p.ID,
		Text:       fmt.Sprintf("%s began researching %s", lead, techID),
	})
	return p, nil
}

func (s *System) SetGoal(techID, setter string, priority Priority, deadline *int, reward string) (*Goal, error) {
	goal := s.Goals.Set(techID, setter, priority, s.day, deadline, reward)
	if goal == nil {
		return nil, fmt.Errorf("setting goal on %q for %s: not eligible", techID, setter)
	}
	s.pending = append(s.pending, goalSetEvent(goal))
	return goal, nil
}

func (s *System) StartCompetition(kind CompetitionKind, techID string, participants []string, stakes string) (*Competition, error) {
	item := s.Competitions.Start(kind, techID, participants, stakes, s.day)
	if item == nil {
		return nil, fmt.Errorf("starting %s over %q: needs two participants and an undiscovered technology", kind, techID)
	}
	s.pending = append(s.pending, startedEvent(item, s.day))
	return item, nil
}

func (s *System) ResolveConflict(id string, method ResolutionMethod) error {
	if !s.Conflicts.Resolve(id, method, s.day, func(e Event) { s.pending = append(s.pending, e) }) {
		return fmt.Errorf("resolving conflict %s: not open or unknown method %q", id, method)
	}
	return nil
}
