package tech

import (
	"fmt"
	"math"
)

type ProjectStatus string

const (
	StatusNotStarted ProjectStatus = "not_started"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusAbandoned  ProjectStatus = "abandoned"
	StatusBlocked    ProjectStatus = "blocked"
)

func (s ProjectStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// canTransition encodes the project state machine. Terminal states have no exits.
func canTransition(from, to ProjectStatus) bool {
	switch from {
	case StatusNotStarted:
		return to == StatusInProgress || to == StatusAbandoned
	case StatusInProgress:
		return to == StatusCompleted || to == StatusAbandoned || to == StatusBlocked
	case StatusBlocked:
		return to == StatusInProgress || to == StatusAbandoned
	case StatusCompleted, StatusAbandoned:
		return false
	default:
		return false
	}
}

const (
	ReasonLeadUnavailable = "lead_researcher_unavailable"
	ReasonSuperseded      = "superseded"
	ReasonFailure         = "research_failure"
)

type Project struct {
	ID              string        `json:"id"`
	Technology      string        `json:"technology"`
	Lead            string        `json:"lead"`
	Collaborators   []string      `json:"collaborators,omitempty"`
	Sponsor         string        `json:"sponsor,omitempty"`
	Status          ProjectStatus `json:"status"`
	Progress        float64       `json:"progress"`
	Required        float64       `json:"required"`
	DailyRate       float64       `json:"daily_rate"`
	Breakthroughs   []float64     `json:"breakthroughs"`
	StartDay        int           `json:"start_day"`
	LastProgressDay int           `json:"last_progress_day"`
	EndDay          int           `json:"end_day,omitempty"`
	EndReason       string        `json:"end_reason,omitempty"`
	// ResourcesInvested is carried for persistence; nothing consumes it yet.
	ResourcesInvested map[string]float64 `json:"resources_invested,omitempty"`
}

// Fraction is progress over required, clamped to [0,1].
func (p *Project) Fraction() float64 {
	if p.Required <= 0 {
		return 1
	}
	return clamp01(p.Progress / p.Required)
}

func (p *Project) stage() int {
	n := len(p.Breakthroughs)
	if n == 0 {
		return -1
	}
	s := int(math.Floor(p.Fraction() * float64(n)))
	if s >= n {
		s = n - 1
	}
	return s
}

func (p *Project) involves(name string) bool {
	if p.Lead == name {
		return true
	}
	for _, c := range p.Collaborators {
		if c == name {
			return true
		}
	}
	return false
}

// Projects owns every research project and advances the in-progress ones.
type Projects struct {
	catalog   *Catalog
	knowledge *KnowledgeIndex
	rates     *Rates
	src       Source

	projects map[string]*Project
	order    []string
	lessons  map[string]float64
}

func NewProjects(catalog *Catalog, knowledge *KnowledgeIndex, rates *Rates, src Source) *Projects {
	return &Projects{
		catalog:   catalog,
		knowledge: knowledge,
		rates:     rates,
		src:       src,
		projects:  make(map[string]*Project),
		lessons:   make(map[string]float64),
	}
}

func (m *Projects) Get(id string) (*Project, bool) {
	p, ok := m.projects[id]
	return p, ok
}

// All returns projects in creation order.
func (m *Projects) All() []*Project {
	out := make([]*Project, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.projects[id])
	}
	return out
}

func (m *Projects) Active() []*Project {
	var out []*Project
	for _, id := range m.order {
		if p := m.projects[id]; p.Status == StatusInProgress {
			out = append(out, p)
		}
	}
	return out
}

// ActiveFor returns the in-progress project on a technology, if any.
func (m *Projects) ActiveFor(techID string) *Project {
	for _, id := range m.order {
		p := m.projects[id]
		if p.Technology == techID && p.Status == StatusInProgress {
			return p
		}
	}
	return nil
}

func (m *Projects) Leading(name string) *Project {
	for _, id := range m.order {
		p := m.projects[id]
		if p.Lead == name && p.Status == StatusInProgress {
			return p
		}
	}
	return nil
}

// Lessons returns the accumulated rate bonus earned from past failures on a technology.
func (m *Projects) Lessons(techID string) float64 {
	return m.lessons[techID]
}

func (m *Projects) addLessons(techID string, bonus float64) {
	m.lessons[techID] = math.Min(m.rates.LessonsCap, m.lessons[techID]+bonus)
}

// Initiate opens a project led by lead. It returns nil when the technology is
// unknown or discovered, the lead lacks its prerequisites, or another project
// on it is already in progress.
func (m *Projects) Initiate(techID, lead, sponsor string, day int) *Project {
	t, ok := m.catalog.Get(techID)
	if !ok || t.Discovered() {
		return nil
	}
	if m.ActiveFor(techID) != nil {
		return nil
	}
	if !m.catalog.IsEligible(techID, m.knowledge.Known(lead)) {
		return nil
	}

	required := t.Complexity * 100 * sample(m.src, m.rates.RequiredJitter)
	rate := m.rates.BaseDailyRate * sample(m.src, m.rates.RateJitter) * (1 + m.lessons[techID])
	p := &Project{
		ID:              newID(m.src, "research"),
		Technology:      techID,
		Lead:            lead,
		Sponsor:         sponsor,
		Status:          StatusNotStarted,
		Required:        required,
		DailyRate:       rate,
		Breakthroughs:   append([]float64(nil), m.rates.BreakthroughLadder...),
		StartDay:        day,
		LastProgressDay: day,
	}
	m.transition(p, StatusInProgress, day, "")
	m.projects[p.ID] = p
	m.order = append(m.order, p.ID)
	return p
}

// AddCollaborator joins name to an in-progress project.
func (m *Projects) AddCollaborator(projectID, name string) bool {
	p, ok := m.projects[projectID]
	if !ok || p.Status != StatusInProgress || p.involves(name) {
		return false
	}
	p.Collaborators = append(p.Collaborators, name)
	return true
}

func (m *Projects) transition(p *Project, to ProjectStatus, day int, reason string) bool {
	if !canTransition(p.Status, to) {
		return false
	}
	p.Status = to
	if to.Terminal() {
		p.EndDay = day
		p.EndReason = reason
	}
	return true
}

// Advance moves every in-progress project forward one day.
func (m *Projects) Advance(day int, pop *Population, emit Emit) error {
	for _, p := range m.Active() {
		t, ok := m.catalog.Get(p.Technology)
		if !ok {
			return fmt.Errorf("advancing project %s: unknown technology %q", p.ID, p.Technology)
		}
		if t.Discovered() {
			m.abandon(p, ReasonSuperseded, day, emit)
			continue
		}
		lead, ok := pop.Agent(p.Lead)
		if !ok || !lead.Alive() {
			if roll(m.src, m.rates.LeadAbsentAbandon) {
				m.abandon(p, ReasonLeadUnavailable, day, emit)
			}
			continue
		}

		bonus := m.skillBonus(lead, t, m.rates.LeadSkillWeight)
		for _, name := range p.Collaborators {
			if c, ok := pop.Agent(name); ok && c.Alive() {
				bonus += m.skillBonus(c, t, m.rates.CollaboratorSkillWeight)
			}
		}
		p.Progress += (p.DailyRate + bonus) * sample(m.src, m.rates.ProgressJitter)
		p.LastProgressDay = day

		if stage := p.stage(); stage >= 0 && roll(m.src, p.Breakthroughs[stage]) {
			p.Progress += p.Required * m.rates.BreakthroughBoost
			emit(Event{
				Kind:       EventResearchBreakthrough,
				Day:        day,
				Technology: p.Technology,
				Actor:      p.Lead,
				Ref:        p.ID,
				Detail:     map[string]any{"stage": stage, "progress": p.Fraction()},
				Text:       fmt.Sprintf("%s had a breakthrough researching %s", p.Lead, t.Name),
			})
			lead.Remember(Memory{
				Text:       fmt.Sprintf("I had a breakthrough while researching %s", t.Name),
				Importance: 0.7,
				Kind:       "research",
				Emotion:    "excited",
			})
		}

		if p.Progress >= p.Required {
			m.complete(p, t, day, pop, emit)
		}
	}
	return nil
}

func (m *Projects) skillBonus(agent Agent, t *Technology, weight float64) float64 {
	var bonus float64
	for _, name := range sortedKeys(t.RequiredSkills) {
		bonus += math.Max(0, skill(agent, name)-t.RequiredSkills[name]) * weight
	}
	return bonus
}

func (m *Projects) complete(p *Project, t *Technology, day int, pop *Population, emit Emit) {
	if !m.catalog.MarkDiscovered(t.ID, day, p.Lead) {
		m.abandon(p, ReasonSuperseded, day, emit)
		return
	}
	m.transition(p, StatusCompleted, day, "")
	m.knowledge.Grant(p.Lead, t.ID, 1.0)
	for _, name := range p.Collaborators {
		m.knowledge.Grant(name, t.ID, m.rates.CollaboratorKnowledge)
	}
	emit(Event{
		Kind:       EventTechnologyDiscovered,
		Day:        day,
		Technology: t.ID,
		Actor:      p.Lead,
		Group:      p.Sponsor,
		Ref:        p.ID,
		Detail: map[string]any{
			"collaborators": append([]string(nil), p.Collaborators...),
			"duration":      day - p.StartDay,
		},
		Text: fmt.Sprintf("%s discovered %s after %d days of research", p.Lead, t.Name, day-p.StartDay),
	})
	if lead, ok := pop.Agent(p.Lead); ok {
		lead.Remember(Memory{
			Text:       fmt.Sprintf("I discovered %s through careful research", t.Name),
			Importance: 0.9,
			Kind:       "achievement",
			Emotion:    "proud",
		})
	}
	for _, name := range p.Collaborators {
		if c, ok := pop.Agent(name); ok && c.Alive() {
			c.Remember(Memory{
				Text:       fmt.Sprintf("I helped %s discover %s", p.Lead, t.Name),
				Importance: 0.7,
				Kind:       "achievement",
				Emotion:    "satisfied",
			})
		}
	}
}

func (m *Projects) abandon(p *Project, reason string, day int, emit Emit) {
	if !m.transition(p, StatusAbandoned, day, reason) {
		return
	}
	emit(Event{
		Kind:       EventResearchAbandoned,
		Day:        day,
		Technology: p.Technology,
		Actor:      p.Lead,
		Group:      p.Sponsor,
		Ref:        p.ID,
		Detail:     map[string]any{"reason": reason, "progress": p.Fraction()},
		Text:       fmt.Sprintf("research on %s led by %s was abandoned (%s)", p.Technology, p.Lead, reason),
	})
}

// Aptitude sums how far an agent's skills exceed a technology's minimums.
func Aptitude(agent Agent, t *Technology) float64 {
	var total float64
	for _, name := range sortedKeys(t.RequiredSkills) {
		total += math.Max(0, skill(agent, name)-t.RequiredSkills[name])
	}
	return total
}

// Initiation lets idle agents and sponsoring groups open new projects.
func (m *Projects) Initiation(day int, pop *Population, emit Emit) error {
	for _, agent := range pop.Living() {
		if m.Leading(agent.Name()) != nil || !roll(m.src, m.rates.InitiateChance) {
			continue
		}
		candidates := m.openCandidates(m.knowledge.Known(agent.Name()))
		if len(candidates) == 0 {
			continue
		}
		p := m.Initiate(pick(m.src, candidates), agent.Name(), "", day)
		if p == nil {
			continue
		}
		t, _ := m.catalog.Get(p.Technology)
		emit(Event{
			Kind:       EventResearchInitiated,
			Day:        day,
			Technology: p.Technology,
			Actor:      agent.Name(),
			Ref:        p.ID,
			Text:       fmt.Sprintf("%s began researching %s", agent.Name(), t.Name),
		})
		agent.Remember(Memory{
			Text:       fmt.Sprintf("I started researching %s", t.Name),
			Importance: 0.6,
			Kind:       "research",
			Emotion:    "curious",
		})
	}

	for _, group := range pop.Groups() {
		if !group.Kind().Sponsors() || !roll(m.src, m.rates.GroupSponsorChance) {
			continue
		}
		m.sponsor(group, day, pop, emit)
	}
	return nil
}

func (m *Projects) openCandidates(known Set) []string {
	var out []string
	for _, id := range m.catalog.Available(known) {
		if m.ActiveFor(id) == nil {
			out = append(out, id)
		}
	}
	return out
}

func (m *Projects) sponsor(group Group, day int, pop *Population, emit Emit) {
	members := pop.LivingMembers(group)
	if len(members) == 0 {
		return
	}
	pooled := make(Set)
	for _, member := range members {
		for id := range m.knowledge.Known(member.Name()) {
			pooled.Add(id)
		}
	}
	candidates := m.openCandidates(pooled)
	if limit := m.rates.GroupCandidates; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	techID := pick(m.src, candidates)
	if techID == "" {
		return
	}
	t, _ := m.catalog.Get(techID)

	var lead Agent
	best := -1.0
	for _, member := range members {
		if m.Leading(member.Name()) != nil || !m.catalog.IsEligible(techID, m.knowledge.Known(member.Name())) {
			continue
		}
		if a := Aptitude(member, t); a > best {
			lead, best = member, a
		}
	}
	if lead == nil {
		return
	}
	p := m.Initiate(techID, lead.Name(), group.Name(), day)
	if p == nil {
		return
	}

	for len(p.Collaborators) < m.rates.MaxCollaborators {
		var next Agent
		nextScore := 0.0
		for _, member := range members {
			if p.involves(member.Name()) {
				continue
			}
			if a := Aptitude(member, t); a > nextScore {
				next, nextScore = member, a
			}
		}
		if next == nil {
			break
		}
		m.AddCollaborator(p.ID, next.Name())
	}

	emit(Event{
		Kind:       EventGroupResearchInitiated,
		Day:        day,
		Technology: techID,
		Actor:      lead.Name(),
		Group:      group.Name(),
		Ref:        p.ID,
		Detail:     map[string]any{"collaborators": append([]string(nil), p.Collaborators...)},
		Text:       fmt.Sprintf("%s sponsored research into %s led by %s", group.Name(), t.Name, lead.Name()),
	})
}
